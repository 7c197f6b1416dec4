package memorial

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Memorial is a public memorial page. Coordinates are optional; memorials
// without them simply never show up in nearby results.
type Memorial struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID string    `gorm:"not null;index" json:"owner_user_id"`
	DisplayName string    `gorm:"not null" json:"display_name"`
	Description *string   `json:"description,omitempty"`
	Lat         *float64  `json:"lat,omitempty"`
	Lng         *float64  `json:"lng,omitempty"`
	Published   bool      `gorm:"default:false" json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (m *Memorial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
