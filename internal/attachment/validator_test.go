package attachment

import (
	"strings"
	"testing"

	"memorial-ledger-backend/internal/domain"
	"memorial-ledger-backend/internal/errors"

	"github.com/stretchr/testify/assert"
)

// TestValidateData_NullAlwaysPasses tests that nil and JSON null are valid for
// every type (empty slot state)
func TestValidateData_NullAlwaysPasses(t *testing.T) {
	types := []domain.AttachmentType{
		domain.TypeNote,
		domain.TypeLink,
		domain.TypeFundraiserReference,
		domain.TypeMemorialReference,
		domain.TypeUnderworldQuery,
		domain.TypeUnderworldBusinessReference,
		domain.TypeUnderworldServiceReference,
	}

	for _, typ := range types {
		assert.NoError(t, ValidateData(typ, nil), string(typ))
		assert.NoError(t, ValidateData(typ, []byte("null")), string(typ))
	}
}

// TestValidateData_RejectsNonObject tests that scalars and arrays are rejected
func TestValidateData_RejectsNonObject(t *testing.T) {
	for _, payload := range []string{`"text"`, `42`, `[1,2,3]`, `not json`} {
		err := ValidateData(domain.TypeNote, []byte(payload))
		assert.Error(t, err, payload)
	}
}

func TestValidateData_Note(t *testing.T) {
	assert.NoError(t, ValidateData(domain.TypeNote, []byte(`{"text":"remember the flowers"}`)))

	assert.Error(t, ValidateData(domain.TypeNote, []byte(`{}`)))
	assert.Error(t, ValidateData(domain.TypeNote, []byte(`{"text":""}`)))
	assert.Error(t, ValidateData(domain.TypeNote, []byte(`{"text":42}`)))
}

func TestValidateData_Link(t *testing.T) {
	assert.NoError(t, ValidateData(domain.TypeLink, []byte(`{"url":"https://example.com/venue","title":"Venue"}`)))

	assert.Error(t, ValidateData(domain.TypeLink, []byte(`{"url":"not a url"}`)))
	assert.Error(t, ValidateData(domain.TypeLink, []byte(`{"url":"/relative/path"}`)))
	assert.Error(t, ValidateData(domain.TypeLink, []byte(`{"title":"no url"}`)))
	assert.Error(t, ValidateData(domain.TypeLink, []byte(`{"url":"https://example.com","title":7}`)))
}

func TestValidateData_FundraiserReference(t *testing.T) {
	assert.NoError(t, ValidateData(domain.TypeFundraiserReference,
		[]byte(`{"fundraiserId":"f-1","snapshotTitle":"In memory","snapshotGoal":5000}`)))
	assert.NoError(t, ValidateData(domain.TypeFundraiserReference, []byte(`{"fundraiserId":"f-1"}`)))

	assert.Error(t, ValidateData(domain.TypeFundraiserReference, []byte(`{"snapshotTitle":"missing id"}`)))
	assert.Error(t, ValidateData(domain.TypeFundraiserReference, []byte(`{"fundraiserId":"f-1","snapshotGoal":"a lot"}`)))
}

func TestValidateData_MemorialReference(t *testing.T) {
	assert.NoError(t, ValidateData(domain.TypeMemorialReference,
		[]byte(`{"memorialId":"m-1","snapshotDisplayName":"Jane Doe"}`)))

	assert.Error(t, ValidateData(domain.TypeMemorialReference, []byte(`{}`)))
}

func TestValidateData_UnderworldQuery(t *testing.T) {
	full := `{
		"queryText": "florist near the chapel",
		"categories": ["florist", "catering"],
		"location": {"lat": 52.52, "lng": 13.405},
		"budget": {"min": 100, "max": 500},
		"urgency": "HIGH"
	}`
	assert.NoError(t, ValidateData(domain.TypeUnderworldQuery, []byte(full)))
	assert.NoError(t, ValidateData(domain.TypeUnderworldQuery, []byte(`{"queryText":"anything"}`)))

	assert.Error(t, ValidateData(domain.TypeUnderworldQuery, []byte(`{}`)))
	assert.Error(t, ValidateData(domain.TypeUnderworldQuery, []byte(`{"queryText":"x","categories":"florist"}`)))
	assert.Error(t, ValidateData(domain.TypeUnderworldQuery, []byte(`{"queryText":"x","categories":[1]}`)))
	assert.Error(t, ValidateData(domain.TypeUnderworldQuery, []byte(`{"queryText":"x","location":{"lat":52.52}}`)))
	assert.Error(t, ValidateData(domain.TypeUnderworldQuery, []byte(`{"queryText":"x","budget":{"min":"cheap"}}`)))
}

func TestValidateData_UnderworldReferences(t *testing.T) {
	assert.NoError(t, ValidateData(domain.TypeUnderworldBusinessReference, []byte(`{"businessId":"b-1"}`)))
	assert.Error(t, ValidateData(domain.TypeUnderworldBusinessReference, []byte(`{"snapshotName":"no id"}`)))

	// service reference needs both ids
	assert.NoError(t, ValidateData(domain.TypeUnderworldServiceReference,
		[]byte(`{"serviceOfferingId":"s-1","businessId":"b-1"}`)))
	assert.Error(t, ValidateData(domain.TypeUnderworldServiceReference, []byte(`{"serviceOfferingId":"s-1"}`)))
	assert.Error(t, ValidateData(domain.TypeUnderworldServiceReference, []byte(`{"businessId":"b-1"}`)))
}

// TestValidateData_ErrorsAreUnprocessable tests that validation failures map
// to 422 responses
func TestValidateData_ErrorsAreUnprocessable(t *testing.T) {
	err := ValidateData(domain.TypeNote, []byte(`{}`))

	apiErr, ok := err.(*errors.APIError)
	assert.True(t, ok)
	assert.Equal(t, 422, apiErr.Status)
}

// TestGenerateSlotKey_SingleSlotTypes tests that single-slot types always map
// to their fixed key
func TestGenerateSlotKey_SingleSlotTypes(t *testing.T) {
	assert.Equal(t, "underworld-query", GenerateSlotKey(domain.TypeUnderworldQuery))
	assert.Equal(t, "selected-business", GenerateSlotKey(domain.TypeUnderworldBusinessReference))
	assert.Equal(t, "selected-service", GenerateSlotKey(domain.TypeUnderworldServiceReference))
}

// TestGenerateSlotKey_MultiSlotTypes tests that multi-slot keys are prefixed
// with the type and never collide in practice
func TestGenerateSlotKey_MultiSlotTypes(t *testing.T) {
	key1 := GenerateSlotKey(domain.TypeNote)
	key2 := GenerateSlotKey(domain.TypeNote)

	assert.True(t, strings.HasPrefix(key1, "note-"))
	assert.NotEqual(t, key1, key2)

	assert.True(t, strings.HasPrefix(GenerateSlotKey(domain.TypeLink), "link-"))
	assert.True(t, strings.HasPrefix(GenerateSlotKey(domain.TypeFundraiserReference), "fundraiser_reference-"))
}
