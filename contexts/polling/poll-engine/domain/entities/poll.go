package entities

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
)

const (
	DefaultMaxOptions     = 5
	DefaultMaxLabelLength = 50

	// Option ids are one byte wide, so no poll can carry more than 255 options.
	maxOptionID = math.MaxUint8
)

// Limits bounds poll creation. Zero values fall back to the defaults.
type Limits struct {
	MaxOptions     int
	MaxLabelLength int
}

func DefaultLimits() Limits {
	return Limits{
		MaxOptions:     DefaultMaxOptions,
		MaxLabelLength: DefaultMaxLabelLength,
	}
}

func (l Limits) Normalize() Limits {
	if l.MaxOptions <= 0 {
		l.MaxOptions = DefaultMaxOptions
	}
	if l.MaxOptions > maxOptionID {
		l.MaxOptions = maxOptionID
	}
	if l.MaxLabelLength <= 0 {
		l.MaxLabelLength = DefaultMaxLabelLength
	}
	return l
}

type Option struct {
	Label string
	ID    uint8
	Votes uint32
}

// Poll is the persisted ledger entry. OwnerID and Options (labels and ids) are
// fixed at creation; only Votes counters move afterwards.
type Poll struct {
	PollID    string
	OwnerID   string
	Options   []Option
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPoll builds a poll whose option ids are the 1-based positions of labels.
// Labels are kept verbatim; duplicate labels become distinct options.
func NewPoll(pollID string, ownerID string, labels []string, limits Limits, now time.Time) (Poll, error) {
	limits = limits.Normalize()
	pollID = strings.TrimSpace(pollID)
	ownerID = strings.TrimSpace(ownerID)
	if pollID == "" || ownerID == "" {
		return Poll{}, domainerrors.ErrInvalidPollInput
	}
	if len(labels) == 0 || len(labels) > limits.MaxOptions {
		return Poll{}, domainerrors.ErrInvalidPollInput
	}

	options := make([]Option, 0, len(labels))
	for i, label := range labels {
		if strings.TrimSpace(label) == "" || utf8.RuneCountInString(label) > limits.MaxLabelLength {
			return Poll{}, domainerrors.ErrInvalidPollInput
		}
		options = append(options, Option{
			Label: label,
			ID:    uint8(i + 1),
			Votes: 0,
		})
	}
	return Poll{
		PollID:    pollID,
		OwnerID:   ownerID,
		Options:   options,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}, nil
}

// Option looks up an option by id. Ids outside 1..255 never match.
func (p Poll) Option(optionID int) (Option, bool) {
	if optionID <= 0 || optionID > maxOptionID {
		return Option{}, false
	}
	for _, option := range p.Options {
		if int(option.ID) == optionID {
			return option, true
		}
	}
	return Option{}, false
}

// Increment returns a copy of the poll with one more vote on optionID. The
// receiver is left untouched so a failed transition never leaks a mutation.
func (p Poll) Increment(optionID int, now time.Time) (Poll, error) {
	if _, ok := p.Option(optionID); !ok {
		return Poll{}, domainerrors.ErrInvalidOption
	}
	next := p.Clone()
	for i := range next.Options {
		if int(next.Options[i].ID) != optionID {
			continue
		}
		if next.Options[i].Votes == math.MaxUint32 {
			return Poll{}, domainerrors.ErrVoteCounterOverflow
		}
		next.Options[i].Votes++
	}
	next.UpdatedAt = now.UTC()
	return next, nil
}

func (p Poll) Clone() Poll {
	out := p
	out.Options = append([]Option(nil), p.Options...)
	return out
}

func (p Poll) TotalVotes() uint64 {
	var total uint64
	for _, option := range p.Options {
		total += uint64(option.Votes)
	}
	return total
}

// Results is the simple per-option tally of a poll.
type Results struct {
	PollID     string
	Options    []Option
	TotalVotes uint64
	LeadingIDs []uint8
}

// Tally reports the leading options. All options tie at zero votes, in which
// case no option leads.
func (p Poll) Tally() Results {
	results := Results{
		PollID:     p.PollID,
		Options:    append([]Option(nil), p.Options...),
		TotalVotes: p.TotalVotes(),
	}
	var best uint32
	for _, option := range p.Options {
		if option.Votes > best {
			best = option.Votes
		}
	}
	if best == 0 {
		return results
	}
	for _, option := range p.Options {
		if option.Votes == best {
			results.LeadingIDs = append(results.LeadingIDs, option.ID)
		}
	}
	return results
}
