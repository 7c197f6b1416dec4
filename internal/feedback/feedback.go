package feedback

import (
	"context"
	"net/http"
	"time"

	"memorial-ledger-backend/internal/errors"
	"memorial-ledger-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback is a user-submitted report or suggestion.
type Feedback struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string    `gorm:"not null;index" json:"user_id"`
	Email     string    `json:"email"`
	Category  string    `gorm:"not null" json:"category"`
	Message   string    `gorm:"not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type FeedbackRepository interface {
	Create(ctx context.Context, feedback *Feedback) error
	ListByUser(ctx context.Context, userID string) ([]Feedback, error)
}

type FeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) FeedbackRepository {
	return &FeedbackRepositoryImpl{db: db}
}

func (r *FeedbackRepositoryImpl) Create(ctx context.Context, feedback *Feedback) error {
	feedback.CreatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *FeedbackRepositoryImpl) ListByUser(ctx context.Context, userID string) ([]Feedback, error) {
	var items []Feedback
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

type Handler struct {
	repository FeedbackRepository
}

func NewHandler(repository FeedbackRepository) *Handler {
	return &Handler{repository: repository}
}

type CreateFeedbackRequest struct {
	Category string `json:"category" binding:"required,oneof=BUG FEATURE_REQUEST CONTENT OTHER"`
	Message  string `json:"message" binding:"required,min=1,max=5000"`
}

func (h *Handler) Create(c *gin.Context) {
	var form CreateFeedbackRequest
	if err := c.ShouldBindJSON(&form); err != nil {
		c.Error(errors.NewValidationError(err))
		return
	}

	actor := middleware.CurrentUser(c)

	feedback := &Feedback{
		UserID:   actor.UserID,
		Email:    actor.Email,
		Category: form.Category,
		Message:  form.Message,
	}

	if err := h.repository.Create(c.Request.Context(), feedback); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}

func (h *Handler) List(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	items, err := h.repository.ListByUser(c.Request.Context(), actor.UserID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}
