package template

import "memorial-ledger-backend/internal/domain"

// SlotDefinition describes an attachment slot an action type expects.
type SlotDefinition struct {
	Type        domain.AttachmentType `json:"type"`
	SlotKey     string                `json:"slot_key"`
	Required    bool                  `json:"required"`
	Description string                `json:"description"`
}

// ActionDefinition maps a symbolic action type to its title, description and
// expected attachment slots.
type ActionDefinition struct {
	Key                 string           `json:"key"`
	Title               string           `json:"title"`
	Description         string           `json:"description"`
	ExpectedAttachments []SlotDefinition `json:"expected_attachments"`
}

// TemplateDefinition bundles an ordered list of action types under a name.
type TemplateDefinition struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ActionTypes []string `json:"action_types"`
}

// Catalog is the process-wide, immutable reference data for templates and
// action definitions. Built once at startup and injected; it is the single
// source of truth for what attachments an action expects.
type Catalog struct {
	actionOrder []string
	actions     map[string]ActionDefinition
	templates   []TemplateDefinition
	templateIDs map[string]TemplateDefinition
}

func NewCatalog(actions []ActionDefinition, templates []TemplateDefinition) *Catalog {
	c := &Catalog{
		actionOrder: make([]string, 0, len(actions)),
		actions:     make(map[string]ActionDefinition, len(actions)),
		templateIDs: make(map[string]TemplateDefinition, len(templates)),
		templates:   templates,
	}
	for _, a := range actions {
		c.actionOrder = append(c.actionOrder, a.Key)
		c.actions[a.Key] = a
	}
	for _, t := range templates {
		c.templateIDs[t.ID] = t
	}
	return c
}

func (c *Catalog) ActionDefinition(key string) (ActionDefinition, bool) {
	def, ok := c.actions[key]
	return def, ok
}

func (c *Catalog) ActionDefinitions() []ActionDefinition {
	defs := make([]ActionDefinition, 0, len(c.actionOrder))
	for _, key := range c.actionOrder {
		defs = append(defs, c.actions[key])
	}
	return defs
}

func (c *Catalog) Template(id string) (TemplateDefinition, bool) {
	t, ok := c.templateIDs[id]
	return t, ok
}

func (c *Catalog) Templates() []TemplateDefinition {
	return c.templates
}

// DefaultCatalog is the server-owned planning catalog for memorial ledgers.
func DefaultCatalog() *Catalog {
	actions := []ActionDefinition{
		{
			Key:         "BOOK_VENUE",
			Title:       "Book a venue",
			Description: "Find and book a venue for the memorial service",
			ExpectedAttachments: []SlotDefinition{
				{Type: domain.TypeUnderworldQuery, SlotKey: "underworld-query", Required: true, Description: "Search for venues in the area"},
				{Type: domain.TypeUnderworldBusinessReference, SlotKey: "selected-business", Required: true, Description: "The venue that was chosen"},
				{Type: domain.TypeNote, SlotKey: "venue-notes", Required: false, Description: "Booking details and constraints"},
			},
		},
		{
			Key:         "COORDINATE_WITH_FAMILY",
			Title:       "Coordinate with family",
			Description: "Align dates, speakers and logistics with the family",
			ExpectedAttachments: []SlotDefinition{
				{Type: domain.TypeNote, SlotKey: "family-contacts", Required: true, Description: "Who to reach and how"},
				{Type: domain.TypeNote, SlotKey: "meeting-notes", Required: false, Description: "Decisions from family conversations"},
			},
		},
		{
			Key:         "PUBLISH_OBITUARY",
			Title:       "Publish the obituary",
			Description: "Draft, review and publish the obituary",
			ExpectedAttachments: []SlotDefinition{
				{Type: domain.TypeMemorialReference, SlotKey: "memorial", Required: true, Description: "The memorial page the obituary belongs to"},
				{Type: domain.TypeNote, SlotKey: "obituary-draft", Required: true, Description: "Working draft of the obituary text"},
				{Type: domain.TypeLink, SlotKey: "published-link", Required: false, Description: "Where the obituary was published"},
			},
		},
		{
			Key:         "COLLECT_PHOTOS",
			Title:       "Collect photos",
			Description: "Gather photos from family and friends for the memorial",
			ExpectedAttachments: []SlotDefinition{
				{Type: domain.TypeLink, SlotKey: "photo-album", Required: true, Description: "Shared album link"},
				{Type: domain.TypeNote, SlotKey: "photo-notes", Required: false, Description: "Who has been asked and what is still missing"},
			},
		},
		{
			Key:         "ARRANGE_CATERING",
			Title:       "Arrange catering",
			Description: "Organize food and drinks for the reception",
			ExpectedAttachments: []SlotDefinition{
				{Type: domain.TypeUnderworldQuery, SlotKey: "underworld-query", Required: true, Description: "Search for caterers"},
				{Type: domain.TypeUnderworldServiceReference, SlotKey: "selected-service", Required: false, Description: "The catering package that was booked"},
			},
		},
		{
			Key:         "SET_UP_FUNDRAISER",
			Title:       "Set up a fundraiser",
			Description: "Create a fundraiser to help cover memorial costs",
			ExpectedAttachments: []SlotDefinition{
				{Type: domain.TypeFundraiserReference, SlotKey: "fundraiser", Required: true, Description: "The fundraiser to link"},
				{Type: domain.TypeNote, SlotKey: "fundraiser-notes", Required: false, Description: "Goal and sharing plan"},
			},
		},
		{
			Key:         "NOTIFY_FRIENDS",
			Title:       "Notify friends and community",
			Description: "Let the wider circle know about the service",
			ExpectedAttachments: []SlotDefinition{
				{Type: domain.TypeNote, SlotKey: "notification-list", Required: true, Description: "Groups and people to notify"},
			},
		},
	}

	templates := []TemplateDefinition{
		{
			ID:          "memorial-service-basic",
			Name:        "Basic memorial service",
			Description: "The essentials for planning a memorial service",
			ActionTypes: []string{"BOOK_VENUE", "COORDINATE_WITH_FAMILY", "PUBLISH_OBITUARY"},
		},
		{
			ID:          "memorial-service-full",
			Name:        "Full memorial service",
			Description: "Complete planning checklist including reception and photos",
			ActionTypes: []string{"BOOK_VENUE", "COORDINATE_WITH_FAMILY", "PUBLISH_OBITUARY", "COLLECT_PHOTOS", "ARRANGE_CATERING", "NOTIFY_FRIENDS"},
		},
		{
			ID:          "fundraising-kickoff",
			Name:        "Fundraising kickoff",
			Description: "Raise support to cover memorial costs",
			ActionTypes: []string{"SET_UP_FUNDRAISER", "NOTIFY_FRIENDS"},
		},
	}

	return NewCatalog(actions, templates)
}
