package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PollMetrics counts transition outcomes. Outcome labels are "success" or a
// stable domain error code such as "UserAlreadyVoted".
type PollMetrics struct {
	pollsCreated *prometheus.CounterVec
	votes        *prometheus.CounterVec
}

func NewPollMetrics(namespace string, registerer prometheus.Registerer) (*PollMetrics, error) {
	m := &PollMetrics{
		pollsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_create_transitions_total",
			Help:      "Number of create poll transitions by outcome",
		}, []string{"outcome"}),
		votes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "poll_vote_transitions_total",
			Help:      "Number of cast vote transitions by outcome",
		}, []string{"outcome"}),
	}
	if registerer != nil {
		for _, collector := range []prometheus.Collector{m.pollsCreated, m.votes} {
			if err := registerer.Register(collector); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *PollMetrics) ObservePollCreated(outcome string) {
	m.pollsCreated.WithLabelValues(outcome).Inc()
}

func (m *PollMetrics) ObserveVote(outcome string) {
	m.votes.WithLabelValues(outcome).Inc()
}
