package memorial

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type MemorialRepository interface {
	Create(ctx context.Context, memorial *Memorial) error
	FindByID(ctx context.Context, id string) (*Memorial, error)
	ListPublished(ctx context.Context, page, pageSize int) ([]Memorial, MemorialsMeta, error)
	ListWithCoordinates(ctx context.Context) ([]Memorial, error)
	Save(ctx context.Context, memorial *Memorial) error
	Delete(ctx context.Context, id string) error
}

type MemorialsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

type MemorialRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) MemorialRepository {
	return &MemorialRepositoryImpl{db: db}
}

func (r *MemorialRepositoryImpl) Create(ctx context.Context, memorial *Memorial) error {
	now := time.Now().UTC()
	memorial.CreatedAt = now
	memorial.UpdatedAt = now
	return r.db.WithContext(ctx).Create(memorial).Error
}

func (r *MemorialRepositoryImpl) FindByID(ctx context.Context, id string) (*Memorial, error) {
	var memorial Memorial
	err := r.db.WithContext(ctx).First(&memorial, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &memorial, nil
}

func (r *MemorialRepositoryImpl) ListPublished(ctx context.Context, page, pageSize int) ([]Memorial, MemorialsMeta, error) {
	var memorials []Memorial
	var totalRecords int64

	// Count total records
	if err := r.db.WithContext(ctx).Model(&Memorial{}).Where("published = ?", true).Count(&totalRecords).Error; err != nil {
		return memorials, MemorialsMeta{}, err
	}

	offset := (page - 1) * pageSize
	err := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&memorials).Error

	totalPages := int((totalRecords + int64(pageSize) - 1) / int64(pageSize))

	return memorials, MemorialsMeta{
		Total:       totalRecords,
		PerPage:     pageSize,
		TotalPage:   totalPages,
		CurrentPage: page,
	}, err
}

func (r *MemorialRepositoryImpl) ListWithCoordinates(ctx context.Context) ([]Memorial, error) {
	var memorials []Memorial
	err := r.db.WithContext(ctx).
		Where("published = ? AND lat IS NOT NULL AND lng IS NOT NULL", true).
		Find(&memorials).Error
	return memorials, err
}

func (r *MemorialRepositoryImpl) Save(ctx context.Context, memorial *Memorial) error {
	memorial.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(memorial).Error
}

func (r *MemorialRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&Memorial{}, "id = ?", id).Error
}
