package attachment

import (
	"context"
	"time"

	"memorial-ledger-backend/internal/domain"

	"gorm.io/gorm"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.LedgerAttachment) error
	FindByID(ctx context.Context, id string) (*domain.LedgerAttachment, error)
	FindBySlotKey(ctx context.Context, actionID, slotKey string) (*domain.LedgerAttachment, error)
	ListByAction(ctx context.Context, actionID string) ([]domain.LedgerAttachment, error)
	ListEmptyByAction(ctx context.Context, actionID string) ([]domain.LedgerAttachment, error)
	Save(ctx context.Context, attachment *domain.LedgerAttachment) error
	Delete(ctx context.Context, id string) error
}

type AttachmentRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) AttachmentRepository {
	return &AttachmentRepositoryImpl{db: db}
}

// Create inserts the attachment. The unique (action_id, slot_key) index
// surfaces concurrent slot creation as gorm.ErrDuplicatedKey.
func (r *AttachmentRepositoryImpl) Create(ctx context.Context, attachment *domain.LedgerAttachment) error {
	now := time.Now().UTC()
	attachment.CreatedAt = now
	attachment.UpdatedAt = now
	return r.db.WithContext(ctx).Create(attachment).Error
}

func (r *AttachmentRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.LedgerAttachment, error) {
	var attachment domain.LedgerAttachment
	err := r.db.WithContext(ctx).First(&attachment, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *AttachmentRepositoryImpl) FindBySlotKey(ctx context.Context, actionID, slotKey string) (*domain.LedgerAttachment, error) {
	var attachment domain.LedgerAttachment
	err := r.db.WithContext(ctx).
		Where("action_id = ? AND slot_key = ?", actionID, slotKey).
		First(&attachment).Error
	if err != nil {
		return nil, err
	}
	return &attachment, nil
}

func (r *AttachmentRepositoryImpl) ListByAction(ctx context.Context, actionID string) ([]domain.LedgerAttachment, error) {
	var attachments []domain.LedgerAttachment
	err := r.db.WithContext(ctx).
		Where("action_id = ?", actionID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepositoryImpl) ListEmptyByAction(ctx context.Context, actionID string) ([]domain.LedgerAttachment, error) {
	var attachments []domain.LedgerAttachment
	err := r.db.WithContext(ctx).
		Where("action_id = ? AND data IS NULL", actionID).
		Order("created_at ASC").
		Find(&attachments).Error
	return attachments, err
}

func (r *AttachmentRepositoryImpl) Save(ctx context.Context, attachment *domain.LedgerAttachment) error {
	attachment.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(attachment).Error
}

func (r *AttachmentRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&domain.LedgerAttachment{}, "id = ?", id).Error
}
