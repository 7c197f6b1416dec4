package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LedgerRole is the access level a user holds on a ledger. OWNER is implied
// by Ledger.OwnerUserID and never stored as a collaborator row.
type LedgerRole string

const (
	RoleOwner  LedgerRole = "OWNER"
	RoleEditor LedgerRole = "EDITOR"
	RoleViewer LedgerRole = "VIEWER"
)

// Rank orders roles for access checks: OWNER > EDITOR > VIEWER > unknown.
func (r LedgerRole) Rank() int {
	switch r {
	case RoleOwner:
		return 3
	case RoleEditor:
		return 2
	case RoleViewer:
		return 1
	default:
		return 0
	}
}

type ActionStatus string

const (
	StatusNotHandled ActionStatus = "NOT_HANDLED"
	StatusInProgress ActionStatus = "IN_PROGRESS"
	StatusHandled    ActionStatus = "HANDLED"
)

// Label is the human wording used in status-change audit messages.
func (s ActionStatus) Label() string {
	switch s {
	case StatusNotHandled:
		return "not handled"
	case StatusInProgress:
		return "in progress"
	case StatusHandled:
		return "handled"
	default:
		return string(s)
	}
}

type AttachmentType string

const (
	TypeNote                        AttachmentType = "NOTE"
	TypeLink                        AttachmentType = "LINK"
	TypeFundraiserReference         AttachmentType = "FUNDRAISER_REFERENCE"
	TypeMemorialReference           AttachmentType = "MEMORIAL_REFERENCE"
	TypeUnderworldQuery             AttachmentType = "UNDERWORLD_QUERY"
	TypeUnderworldBusinessReference AttachmentType = "UNDERWORLD_BUSINESS_REFERENCE"
	TypeUnderworldServiceReference  AttachmentType = "UNDERWORLD_SERVICE_REFERENCE"
)

// SingleSlot reports whether the type may appear at most once per action,
// with a fixed slot key.
func (t AttachmentType) SingleSlot() bool {
	switch t {
	case TypeUnderworldQuery, TypeUnderworldBusinessReference, TypeUnderworldServiceReference:
		return true
	case TypeNote, TypeLink, TypeFundraiserReference, TypeMemorialReference:
		return false
	default:
		return false
	}
}

// FixedSlotKey returns the reserved slot key for single-slot types, or ""
// for multi-slot types.
func (t AttachmentType) FixedSlotKey() string {
	switch t {
	case TypeUnderworldQuery:
		return "underworld-query"
	case TypeUnderworldBusinessReference:
		return "selected-business"
	case TypeUnderworldServiceReference:
		return "selected-service"
	default:
		return ""
	}
}

type StatusUpdateType string

const (
	EventLedgerCreated           StatusUpdateType = "LEDGER_CREATED"
	EventActionCreated           StatusUpdateType = "ACTION_CREATED"
	EventActionStatusChanged     StatusUpdateType = "ACTION_STATUS_CHANGED"
	EventAttachmentFilled        StatusUpdateType = "ATTACHMENT_FILLED"
	EventCollaboratorAdded       StatusUpdateType = "COLLABORATOR_ADDED"
	EventCollaboratorRoleChanged StatusUpdateType = "COLLABORATOR_ROLE_CHANGED"
	EventCollaboratorRemoved     StatusUpdateType = "COLLABORATOR_REMOVED"
	EventUserNote                StatusUpdateType = "USER_NOTE"
)

// Ledger is a collaborative checklist workspace, optionally linked to a
// platform entity such as a memorial or fundraiser.
type Ledger struct {
	ID               string    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerUserID      string    `gorm:"not null;index" json:"owner_user_id"`
	Title            string    `gorm:"not null" json:"title"`
	Description      *string   `json:"description,omitempty"`
	LinkedEntityType *string   `json:"linked_entity_type,omitempty"`
	LinkedEntityID   *string   `json:"linked_entity_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	Actions       []LedgerAction       `gorm:"constraint:OnDelete:CASCADE" json:"actions,omitempty"`
	Collaborators []LedgerCollaborator `gorm:"constraint:OnDelete:CASCADE" json:"collaborators,omitempty"`
	StatusUpdates []LedgerStatusUpdate `gorm:"constraint:OnDelete:CASCADE" json:"status_updates,omitempty"`
}

func (l *Ledger) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// LedgerAction is a trackable work item within a ledger.
type LedgerAction struct {
	ID            string       `gorm:"type:uuid;primaryKey" json:"id"`
	LedgerID      string       `gorm:"type:uuid;not null;index" json:"ledger_id"`
	Title         string       `gorm:"not null" json:"title"`
	Description   *string      `json:"description,omitempty"`
	Status        ActionStatus `gorm:"type:varchar(32);not null;default:'NOT_HANDLED'" json:"status"`
	CreatorUserID string       `gorm:"not null" json:"creator_user_id"`
	CreatorEmail  string       `gorm:"not null" json:"creator_email"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	Attachments []LedgerAttachment `gorm:"constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
	// Action-scoped status updates outlive the action so ledger-level
	// history stays intact.
	StatusUpdates []LedgerStatusUpdate `gorm:"foreignKey:ActionID;constraint:OnDelete:SET NULL" json:"-"`

	AttachmentCount *int64 `gorm:"-" json:"attachment_count,omitempty"`
}

func (a *LedgerAction) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// LedgerAttachment is a typed slot on an action. Data nil means the slot is
// expected but not filled yet. (ActionID, SlotKey) is unique.
type LedgerAttachment struct {
	ID            string         `gorm:"type:uuid;primaryKey" json:"id"`
	ActionID      string         `gorm:"type:uuid;not null;index:idx_attachment_slot,unique,priority:1" json:"action_id"`
	Type          AttachmentType `gorm:"type:varchar(64);not null" json:"type"`
	SlotKey       string         `gorm:"not null;index:idx_attachment_slot,unique,priority:2" json:"slot_key"`
	Data          datatypes.JSON `gorm:"type:jsonb" json:"data"`
	CreatorUserID string         `gorm:"not null" json:"creator_user_id"`
	CreatorEmail  string         `gorm:"not null" json:"creator_email"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (a *LedgerAttachment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Empty reports whether the slot has no data yet.
func (a *LedgerAttachment) Empty() bool {
	return len(a.Data) == 0 || string(a.Data) == "null"
}

// LedgerCollaborator grants a non-owner user a role on a ledger.
// (LedgerID, UserID) is unique and the owner never appears here.
type LedgerCollaborator struct {
	ID            string     `gorm:"type:uuid;primaryKey" json:"id"`
	LedgerID      string     `gorm:"type:uuid;not null;index:idx_collaborator_user,unique,priority:1" json:"ledger_id"`
	UserID        string     `gorm:"not null;index:idx_collaborator_user,unique,priority:2" json:"user_id"`
	Role          LedgerRole `gorm:"type:varchar(16);not null" json:"role"`
	AddedByUserID string     `gorm:"not null" json:"added_by_user_id"`
	AddedAt       time.Time  `gorm:"autoCreateTime" json:"added_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (c *LedgerCollaborator) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// LedgerStatusUpdate is an append-only audit event. Rows are never updated
// or deleted; reads are ordered by CreatedAt descending.
type LedgerStatusUpdate struct {
	ID          string           `gorm:"type:uuid;primaryKey" json:"id"`
	LedgerID    string           `gorm:"type:uuid;not null;index:idx_status_ledger_created,priority:1" json:"ledger_id"`
	ActionID    *string          `gorm:"type:uuid;index" json:"action_id,omitempty"`
	Type        StatusUpdateType `gorm:"type:varchar(64);not null;index" json:"type"`
	ActorUserID *string          `json:"actor_user_id,omitempty"`
	ActorEmail  *string          `json:"actor_email,omitempty"`
	Message     *string          `json:"message,omitempty"`
	Metadata    datatypes.JSON   `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt   time.Time        `gorm:"index:idx_status_ledger_created,priority:2" json:"created_at"`
}

func (u *LedgerStatusUpdate) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
