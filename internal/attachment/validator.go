package attachment

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"github.com/google/uuid"
)

// ValidateData checks an attachment payload against its type's shape. Nil (or
// JSON null) always passes: that is the empty-slot state. Pure function, no
// I/O.
func ValidateData(t domain.AttachmentType, data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return errors.UnprocessableEntity("data must be a JSON object", err)
	}

	fields, ok := decoded.(map[string]any)
	if !ok {
		return errors.UnprocessableEntity("data must be a JSON object", nil)
	}

	switch t {
	case domain.TypeNote:
		return validateNote(fields)
	case domain.TypeLink:
		return validateLink(fields)
	case domain.TypeFundraiserReference:
		return validateFundraiserReference(fields)
	case domain.TypeMemorialReference:
		return validateMemorialReference(fields)
	case domain.TypeUnderworldQuery:
		return validateUnderworldQuery(fields)
	case domain.TypeUnderworldBusinessReference:
		return validateUnderworldBusinessReference(fields)
	case domain.TypeUnderworldServiceReference:
		return validateUnderworldServiceReference(fields)
	default:
		return errors.UnprocessableEntity(fmt.Sprintf("unknown attachment type %q", t), nil)
	}
}

// GenerateSlotKey derives the slot key for a new attachment. Single-slot
// types map to their fixed key; multi-slot types get a practically unique
// key from the type, a timestamp and a short random suffix.
func GenerateSlotKey(t domain.AttachmentType) string {
	if fixed := t.FixedSlotKey(); fixed != "" {
		return fixed
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("%s-%d-%s", strings.ToLower(string(t)), time.Now().UnixMilli(), suffix)
}

func validateNote(fields map[string]any) error {
	return requireString(fields, "text")
}

func validateLink(fields map[string]any) error {
	if err := requireString(fields, "url"); err != nil {
		return err
	}
	raw := fields["url"].(string)
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.UnprocessableEntity("data.url must be a well-formed URL", err)
	}

	if err := optionalString(fields, "title"); err != nil {
		return err
	}
	return optionalString(fields, "description")
}

func validateFundraiserReference(fields map[string]any) error {
	if err := requireString(fields, "fundraiserId"); err != nil {
		return err
	}
	if err := optionalString(fields, "snapshotTitle"); err != nil {
		return err
	}
	return optionalNumber(fields, "snapshotGoal")
}

func validateMemorialReference(fields map[string]any) error {
	if err := requireString(fields, "memorialId"); err != nil {
		return err
	}
	return optionalString(fields, "snapshotDisplayName")
}

func validateUnderworldQuery(fields map[string]any) error {
	if err := requireString(fields, "queryText"); err != nil {
		return err
	}

	if raw, present := fields["categories"]; present {
		items, ok := raw.([]any)
		if !ok {
			return errors.UnprocessableEntity("data.categories must be an array of strings", nil)
		}
		for _, item := range items {
			if _, ok := item.(string); !ok {
				return errors.UnprocessableEntity("data.categories must be an array of strings", nil)
			}
		}
	}

	if raw, present := fields["location"]; present {
		loc, ok := raw.(map[string]any)
		if !ok {
			return errors.UnprocessableEntity("data.location must be an object with lat and lng", nil)
		}
		if _, ok := loc["lat"].(float64); !ok {
			return errors.UnprocessableEntity("data.location.lat must be a number", nil)
		}
		if _, ok := loc["lng"].(float64); !ok {
			return errors.UnprocessableEntity("data.location.lng must be a number", nil)
		}
	}

	if raw, present := fields["budget"]; present {
		budget, ok := raw.(map[string]any)
		if !ok {
			return errors.UnprocessableEntity("data.budget must be an object", nil)
		}
		if err := optionalNumber(budget, "min"); err != nil {
			return errors.UnprocessableEntity("data.budget.min must be a number", nil)
		}
		if err := optionalNumber(budget, "max"); err != nil {
			return errors.UnprocessableEntity("data.budget.max must be a number", nil)
		}
	}

	return optionalString(fields, "urgency")
}

func validateUnderworldBusinessReference(fields map[string]any) error {
	if err := requireString(fields, "businessId"); err != nil {
		return err
	}
	if err := optionalString(fields, "snapshotName"); err != nil {
		return err
	}
	return optionalString(fields, "snapshotAddress")
}

func validateUnderworldServiceReference(fields map[string]any) error {
	if err := requireString(fields, "serviceOfferingId"); err != nil {
		return err
	}
	if err := requireString(fields, "businessId"); err != nil {
		return err
	}
	if err := optionalString(fields, "snapshotTitle"); err != nil {
		return err
	}
	return optionalNumber(fields, "snapshotPrice")
}

func requireString(fields map[string]any, key string) error {
	value, ok := fields[key].(string)
	if !ok || strings.TrimSpace(value) == "" {
		return errors.UnprocessableEntity(fmt.Sprintf("data.%s must be a non-empty string", key), nil)
	}
	return nil
}

func optionalString(fields map[string]any, key string) error {
	raw, present := fields[key]
	if !present || raw == nil {
		return nil
	}
	if _, ok := raw.(string); !ok {
		return errors.UnprocessableEntity(fmt.Sprintf("data.%s must be a string", key), nil)
	}
	return nil
}

func optionalNumber(fields map[string]any, key string) error {
	raw, present := fields[key]
	if !present || raw == nil {
		return nil
	}
	if _, ok := raw.(float64); !ok {
		return errors.UnprocessableEntity(fmt.Sprintf("data.%s must be a number", key), nil)
	}
	return nil
}
