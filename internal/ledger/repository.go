package ledger

import (
	"context"
	"time"

	"memorial-ledger-backend/internal/domain"

	"gorm.io/gorm"
)

type LedgerRepository interface {
	Create(ctx context.Context, ledger *domain.Ledger) error
	FindByID(ctx context.Context, id string) (*domain.Ledger, error)
	FindByIDNested(ctx context.Context, id string) (*domain.Ledger, error)
	ListAccessible(ctx context.Context, userID string) ([]domain.Ledger, error)
	AccessibleIDs(ctx context.Context, userID string) ([]string, error)
	Save(ctx context.Context, ledger *domain.Ledger) error
	Delete(ctx context.Context, id string) error
	GetCollaborator(ctx context.Context, ledgerID, userID string) (*domain.LedgerCollaborator, error)
	ActionCounts(ctx context.Context, ledgerIDs []string) (map[string]int64, error)
	CollaboratorCounts(ctx context.Context, ledgerIDs []string) (map[string]int64, error)
	AttachmentCounts(ctx context.Context, actionIDs []string) (map[string]int64, error)
	RecentStatusUpdates(ctx context.Context, ledgerID string, limit int) ([]domain.LedgerStatusUpdate, error)
}

type LedgerRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

func (r *LedgerRepositoryImpl) Create(ctx context.Context, ledger *domain.Ledger) error {
	now := time.Now().UTC()
	ledger.CreatedAt = now
	ledger.UpdatedAt = now
	return r.db.WithContext(ctx).Create(ledger).Error
}

func (r *LedgerRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.Ledger, error) {
	var ledger domain.Ledger
	err := r.db.WithContext(ctx).First(&ledger, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (r *LedgerRepositoryImpl) FindByIDNested(ctx context.Context, id string) (*domain.Ledger, error) {
	var ledger domain.Ledger
	err := r.db.WithContext(ctx).
		Preload("Actions", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Collaborators").
		First(&ledger, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

// ListAccessible returns ledgers the user owns or collaborates on, newest first.
func (r *LedgerRepositoryImpl) ListAccessible(ctx context.Context, userID string) ([]domain.Ledger, error) {
	var ledgers []domain.Ledger
	err := r.db.WithContext(ctx).
		Where("owner_user_id = ? OR id IN (?)",
			userID,
			r.db.Model(&domain.LedgerCollaborator{}).
				Select("ledger_id").
				Where("user_id = ?", userID),
		).
		Order("created_at DESC").
		Find(&ledgers).Error
	return ledgers, err
}

func (r *LedgerRepositoryImpl) AccessibleIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&domain.Ledger{}).
		Where("owner_user_id = ? OR id IN (?)",
			userID,
			r.db.Model(&domain.LedgerCollaborator{}).
				Select("ledger_id").
				Where("user_id = ?", userID),
		).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *LedgerRepositoryImpl) Save(ctx context.Context, ledger *domain.Ledger) error {
	ledger.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(ledger).Error
}

// Delete removes the ledger; actions, attachments, collaborators and status
// updates go with it via FK cascade.
func (r *LedgerRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.Ledger{}, "id = ?", id).Error
}

func (r *LedgerRepositoryImpl) GetCollaborator(ctx context.Context, ledgerID, userID string) (*domain.LedgerCollaborator, error) {
	var collab domain.LedgerCollaborator
	err := r.db.WithContext(ctx).
		Where("ledger_id = ? AND user_id = ?", ledgerID, userID).
		First(&collab).Error
	if err != nil {
		return nil, err
	}
	return &collab, nil
}

type countRow struct {
	GroupID string
	N       int64
}

func (r *LedgerRepositoryImpl) ActionCounts(ctx context.Context, ledgerIDs []string) (map[string]int64, error) {
	return r.groupCounts(ctx, &domain.LedgerAction{}, "ledger_id", ledgerIDs)
}

func (r *LedgerRepositoryImpl) CollaboratorCounts(ctx context.Context, ledgerIDs []string) (map[string]int64, error) {
	return r.groupCounts(ctx, &domain.LedgerCollaborator{}, "ledger_id", ledgerIDs)
}

func (r *LedgerRepositoryImpl) AttachmentCounts(ctx context.Context, actionIDs []string) (map[string]int64, error) {
	return r.groupCounts(ctx, &domain.LedgerAttachment{}, "action_id", actionIDs)
}

func (r *LedgerRepositoryImpl) groupCounts(ctx context.Context, model any, column string, ids []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}

	var rows []countRow
	err := r.db.WithContext(ctx).
		Model(model).
		Select(column+" AS group_id, COUNT(*) AS n").
		Where(column+" IN ?", ids).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.GroupID] = row.N
	}
	return counts, nil
}

func (r *LedgerRepositoryImpl) RecentStatusUpdates(ctx context.Context, ledgerID string, limit int) ([]domain.LedgerStatusUpdate, error) {
	var updates []domain.LedgerStatusUpdate
	err := r.db.WithContext(ctx).
		Where("ledger_id = ?", ledgerID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&updates).Error
	return updates, err
}
