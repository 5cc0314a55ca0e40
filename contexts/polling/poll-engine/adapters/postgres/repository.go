package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"strawpoll/contexts/polling/poll-engine/domain/entities"
	domainerrors "strawpoll/contexts/polling/poll-engine/domain/errors"
	"strawpoll/contexts/polling/poll-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AutoMigrate creates the poll engine tables. The unique index on
// (poll_id, voter_id) is what makes receipt creation an insert-if-absent.
func (r *Repository) AutoMigrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&pollModel{},
		&pollOptionModel{},
		&voteReceiptModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("poll_repo_auto_migrate_failed", err)
	}
	return nil
}

func (r *Repository) WithinTransaction(ctx context.Context, fn func(tx ports.PollTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&repositoryTx{db: tx, repo: r})
	})
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	return r.loadPoll(ctx, r.db, pollID, false)
}

func (r *Repository) ListPolls(ctx context.Context) ([]entities.Poll, error) {
	var rows []pollModel
	if err := r.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("option_id ASC")
		}).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_polls_failed", err)
	}
	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetReceipt(ctx context.Context, pollID string, voterID string) (entities.VoteReceipt, bool, error) {
	var row voteReceiptModel
	err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("voter_id = ?", strings.TrimSpace(voterID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VoteReceipt{}, false, nil
		}
		return entities.VoteReceipt{}, false, r.logError("poll_repo_get_receipt_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"voter_id", strings.TrimSpace(voterID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("poll_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) loadPoll(ctx context.Context, db *gorm.DB, pollID string, forUpdate bool) (entities.Poll, error) {
	tx := db.WithContext(ctx).Where("id = ?", strings.TrimSpace(pollID))
	if forUpdate {
		// Votes from different voters on the same poll serialize on this row
		// lock, so counters read below are never stale.
		tx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row pollModel
	if err := tx.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, r.logError("poll_repo_get_poll_failed", err, "poll_id", strings.TrimSpace(pollID))
	}
	if err := db.WithContext(ctx).
		Where("poll_id = ?", row.ID).
		Order("option_id ASC").
		Find(&row.Options).Error; err != nil {
		return entities.Poll{}, r.logError("poll_repo_get_poll_options_failed", err, "poll_id", row.ID)
	}
	return row.toEntity(), nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "polling/poll-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("poll repository operation failed", fields...)
	return err
}

type repositoryTx struct {
	db   *gorm.DB
	repo *Repository
}

func (t *repositoryTx) InsertPoll(ctx context.Context, poll entities.Poll) error {
	row := pollModelFromEntity(poll)
	options := row.Options
	row.Options = nil

	create := t.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return t.repo.logError("poll_repo_insert_poll_failed", create.Error, "poll_id", row.ID)
	}
	if create.RowsAffected == 0 {
		return domainerrors.ErrAddressAlreadyInUse
	}
	if err := t.db.WithContext(ctx).Create(&options).Error; err != nil {
		return t.repo.logError("poll_repo_insert_poll_options_failed", err, "poll_id", row.ID)
	}
	return nil
}

func (t *repositoryTx) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	return t.repo.loadPoll(ctx, t.db, pollID, true)
}

func (t *repositoryTx) TryCreateReceipt(ctx context.Context, receipt entities.VoteReceipt) (ports.ReceiptOutcome, error) {
	row := voteReceiptModelFromEntity(receipt)
	// ON CONFLICT DO NOTHING covers both the address key and the
	// (poll_id, voter_id) unique index. A racing insert of the same pair
	// waits on the index until the first transaction resolves.
	create := t.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return ports.ReceiptAlreadyExists, nil
		}
		return 0, t.repo.logError("poll_repo_create_receipt_failed", create.Error,
			"poll_id", row.PollID,
			"voter_id", row.VoterID,
		)
	}
	if create.RowsAffected == 0 {
		return ports.ReceiptAlreadyExists, nil
	}
	return ports.ReceiptCreated, nil
}

func (t *repositoryTx) SavePollCounts(ctx context.Context, poll entities.Poll) error {
	pollID := strings.TrimSpace(poll.PollID)
	for _, option := range poll.Options {
		result := t.db.WithContext(ctx).
			Model(&pollOptionModel{}).
			Where("poll_id = ?", pollID).
			Where("option_id = ?", int(option.ID)).
			Update("votes", int64(option.Votes))
		if result.Error != nil {
			return t.repo.logError("poll_repo_save_option_votes_failed", result.Error,
				"poll_id", pollID,
				"option_id", option.ID,
			)
		}
		if result.RowsAffected == 0 {
			return domainerrors.ErrConflict
		}
	}
	if err := t.db.WithContext(ctx).
		Model(&pollModel{}).
		Where("id = ?", pollID).
		Update("updated_at", poll.UpdatedAt.UTC()).Error; err != nil {
		return t.repo.logError("poll_repo_touch_poll_failed", err, "poll_id", pollID)
	}
	return nil
}

func (t *repositoryTx) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return t.repo.logError("poll_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if err := t.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return t.repo.logError("poll_repo_append_outbox_insert_failed", err, "outbox_id", row.OutboxID)
	}
	return nil
}

type pollModel struct {
	ID        string            `gorm:"column:id;primaryKey"`
	OwnerID   string            `gorm:"column:owner_id;not null"`
	CreatedAt time.Time         `gorm:"column:created_at"`
	UpdatedAt time.Time         `gorm:"column:updated_at"`
	Options   []pollOptionModel `gorm:"foreignKey:PollID;references:ID"`
}

func (pollModel) TableName() string {
	return "polls"
}

type pollOptionModel struct {
	PollID   string `gorm:"column:poll_id;primaryKey"`
	OptionID int    `gorm:"column:option_id;primaryKey;autoIncrement:false"`
	Label    string `gorm:"column:label;not null"`
	Votes    int64  `gorm:"column:votes;not null;default:0"`
}

func (pollOptionModel) TableName() string {
	return "poll_options"
}

func pollModelFromEntity(poll entities.Poll) pollModel {
	row := pollModel{
		ID:        strings.TrimSpace(poll.PollID),
		OwnerID:   strings.TrimSpace(poll.OwnerID),
		CreatedAt: poll.CreatedAt.UTC(),
		UpdatedAt: poll.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	for _, option := range poll.Options {
		row.Options = append(row.Options, pollOptionModel{
			PollID:   row.ID,
			OptionID: int(option.ID),
			Label:    option.Label,
			Votes:    int64(option.Votes),
		})
	}
	return row
}

func (m pollModel) toEntity() entities.Poll {
	options := make([]entities.Option, 0, len(m.Options))
	for _, option := range m.Options {
		options = append(options, entities.Option{
			Label: option.Label,
			ID:    uint8(option.OptionID),
			Votes: uint32(option.Votes),
		})
	}
	return entities.Poll{
		PollID:    m.ID,
		OwnerID:   m.OwnerID,
		Options:   options,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type voteReceiptModel struct {
	Address   string    `gorm:"column:address;primaryKey"`
	PollID    string    `gorm:"column:poll_id;not null;uniqueIndex:idx_vote_receipts_poll_voter"`
	VoterID   string    `gorm:"column:voter_id;not null;uniqueIndex:idx_vote_receipts_poll_voter"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteReceiptModel) TableName() string {
	return "vote_receipts"
}

func voteReceiptModelFromEntity(receipt entities.VoteReceipt) voteReceiptModel {
	row := voteReceiptModel{
		Address:   strings.TrimSpace(receipt.Address),
		PollID:    strings.TrimSpace(receipt.PollID),
		VoterID:   strings.TrimSpace(receipt.VoterID),
		CreatedAt: receipt.CreatedAt.UTC(),
	}
	if row.Address == "" {
		row.Address = entities.ReceiptAddress(row.PollID, row.VoterID)
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row
}

func (m voteReceiptModel) toEntity() entities.VoteReceipt {
	return entities.VoteReceipt{
		Address:   m.Address,
		PollID:    m.PollID,
		VoterID:   m.VoterID,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status;index"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "poll_outbox"
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PollLedger = (*Repository)(nil)
var _ ports.PollReader = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
