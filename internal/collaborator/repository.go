package collaborator

import (
	"context"
	"time"

	"memorial-ledger-backend/internal/domain"

	"gorm.io/gorm"
)

type CollaboratorRepository interface {
	Create(ctx context.Context, collab *domain.LedgerCollaborator) error
	FindByID(ctx context.Context, id string) (*domain.LedgerCollaborator, error)
	ListByLedger(ctx context.Context, ledgerID string) ([]domain.LedgerCollaborator, error)
	Save(ctx context.Context, collab *domain.LedgerCollaborator) error
	Delete(ctx context.Context, id string) error
}

type CollaboratorRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) CollaboratorRepository {
	return &CollaboratorRepositoryImpl{db: db}
}

// Create inserts the grant. The unique (ledger_id, user_id) index surfaces a
// duplicate add as gorm.ErrDuplicatedKey.
func (r *CollaboratorRepositoryImpl) Create(ctx context.Context, collab *domain.LedgerCollaborator) error {
	collab.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(collab).Error
}

func (r *CollaboratorRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.LedgerCollaborator, error) {
	var collab domain.LedgerCollaborator
	err := r.db.WithContext(ctx).First(&collab, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &collab, nil
}

func (r *CollaboratorRepositoryImpl) ListByLedger(ctx context.Context, ledgerID string) ([]domain.LedgerCollaborator, error) {
	var collabs []domain.LedgerCollaborator
	err := r.db.WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("added_at ASC").
		Find(&collabs).Error
	return collabs, err
}

func (r *CollaboratorRepositoryImpl) Save(ctx context.Context, collab *domain.LedgerCollaborator) error {
	collab.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(collab).Error
}

func (r *CollaboratorRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.LedgerCollaborator{}, "id = ?", id).Error
}
