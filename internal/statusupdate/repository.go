package statusupdate

import (
	"context"
	defError "errors"
	"slices"
	"time"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"gorm.io/gorm"
)

// ListQuery scopes a page of audit rows. Rows are always returned newest
// first; Cursor is the id of the last row of the previous page and is itself
// excluded from the result.
type ListQuery struct {
	LedgerIDs []string
	ActionID  *string
	Type      *domain.StatusUpdateType
	Limit     int
	Cursor    *string
}

type StatusUpdateRepository interface {
	Append(ctx context.Context, update *domain.LedgerStatusUpdate) error
	List(ctx context.Context, q ListQuery) ([]domain.LedgerStatusUpdate, error)
	FindByID(ctx context.Context, id string) (*domain.LedgerStatusUpdate, error)
}

type StatusUpdateRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) StatusUpdateRepository {
	return &StatusUpdateRepositoryImpl{db: db}
}

// Append inserts an audit row. Rows are immutable after this point; there is
// no update or delete path on this repository.
func (r *StatusUpdateRepositoryImpl) Append(ctx context.Context, update *domain.LedgerStatusUpdate) error {
	if update.CreatedAt.IsZero() {
		update.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(update).Error
}

func (r *StatusUpdateRepositoryImpl) List(ctx context.Context, q ListQuery) ([]domain.LedgerStatusUpdate, error) {
	query := r.db.WithContext(ctx).
		Model(&domain.LedgerStatusUpdate{}).
		Where("ledger_id IN ?", q.LedgerIDs)

	if q.ActionID != nil {
		query = query.Where("action_id = ?", *q.ActionID)
	}
	if q.Type != nil {
		query = query.Where("type = ?", *q.Type)
	}

	if q.Cursor != nil {
		cursorRow, err := r.FindByID(ctx, *q.Cursor)
		if err != nil {
			if defError.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.UnprocessableEntity("Unknown cursor", err)
			}
			return nil, err
		}
		if err := validateCursorScope(cursorRow, q.LedgerIDs); err != nil {
			return nil, err
		}
		// keyset continuation after the cursor row
		query = query.Where("(created_at, id) < (?, ?)", cursorRow.CreatedAt, cursorRow.ID)
	}

	var updates []domain.LedgerStatusUpdate
	err := query.
		Order("created_at DESC, id DESC").
		Limit(q.Limit).
		Find(&updates).Error
	return updates, err
}

// validateCursorScope rejects a cursor row from outside the queried ledgers;
// an id from a foreign ledger is not a valid pagination position.
func validateCursorScope(cursorRow *domain.LedgerStatusUpdate, ledgerIDs []string) error {
	if !slices.Contains(ledgerIDs, cursorRow.LedgerID) {
		return errors.UnprocessableEntity("Unknown cursor", nil)
	}
	return nil
}

func (r *StatusUpdateRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.LedgerStatusUpdate, error) {
	var update domain.LedgerStatusUpdate
	err := r.db.WithContext(ctx).First(&update, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &update, nil
}
