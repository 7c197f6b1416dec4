package action

import (
	"context"
	"time"

	"memorial-ledger-backend/internal/domain"

	"gorm.io/gorm"
)

type ActionRepository interface {
	Create(ctx context.Context, action *domain.LedgerAction) error
	FindByID(ctx context.Context, id string) (*domain.LedgerAction, error)
	FindByIDWithAttachments(ctx context.Context, id string) (*domain.LedgerAction, error)
	ListByLedger(ctx context.Context, ledgerID string) ([]domain.LedgerAction, error)
	Save(ctx context.Context, action *domain.LedgerAction) error
	Delete(ctx context.Context, id string) error
}

type ActionRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ActionRepository {
	return &ActionRepositoryImpl{db: db}
}

func (r *ActionRepositoryImpl) Create(ctx context.Context, action *domain.LedgerAction) error {
	now := time.Now().UTC()
	action.CreatedAt = now
	action.UpdatedAt = now
	return r.db.WithContext(ctx).Create(action).Error
}

func (r *ActionRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.LedgerAction, error) {
	var action domain.LedgerAction
	err := r.db.WithContext(ctx).First(&action, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *ActionRepositoryImpl) FindByIDWithAttachments(ctx context.Context, id string) (*domain.LedgerAction, error) {
	var action domain.LedgerAction
	err := r.db.WithContext(ctx).
		Preload("Attachments", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		First(&action, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &action, nil
}

func (r *ActionRepositoryImpl) ListByLedger(ctx context.Context, ledgerID string) ([]domain.LedgerAction, error) {
	var actions []domain.LedgerAction
	err := r.db.WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("created_at ASC").
		Find(&actions).Error
	return actions, err
}

func (r *ActionRepositoryImpl) Save(ctx context.Context, action *domain.LedgerAction) error {
	action.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(action).Error
}

// Delete removes the action; its attachments cascade. Audit rows that point
// at it keep their ledger scope with action_id set to null.
func (r *ActionRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.LedgerAction{}, "id = ?", id).Error
}
