package leads

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const acceptedJSON = `{
  "is_valid_lead": "yes",
  "contact_name": "John Doe",
  "email": "",
  "phone": "555-1234",
  "company": "Acme Corp",
  "website": null,
  "linkedin": "",
  "intent": "Needs a vendor for 500 units per month.",
  "urgency_level": "High",
  "lead_score": 8,
  "confidence": "Medium"
}`

func TestParseRecordAccepted(t *testing.T) {
	rec, err := ParseRecord(acceptedJSON)
	require.NoError(t, err)
	require.True(t, rec.IsLead())

	assert.Equal(t, VerdictYes, rec.Verdict)
	assert.Equal(t, "John Doe", rec.Lead.ContactName)
	assert.Equal(t, "555-1234", rec.Lead.Phone)
	assert.Equal(t, "Acme Corp", rec.Lead.Company)
	assert.Equal(t, "", rec.Lead.Website, "null text fields become empty strings")
	assert.Equal(t, LevelHigh, rec.Lead.UrgencyLevel)
	assert.Equal(t, 8, rec.Lead.LeadScore)
	assert.Equal(t, LevelMedium, rec.Lead.Confidence)
}

func TestParseRecordRejected(t *testing.T) {
	rec, err := ParseRecord(`{"is_valid_lead":"no","reason":"Personal family message, not a business inquiry."}`)
	require.NoError(t, err)
	assert.False(t, rec.IsLead())
	assert.Equal(t, VerdictNo, rec.Verdict)
	assert.Equal(t, "Personal family message, not a business inquiry.", rec.Reason)
	assert.Nil(t, rec.Lead)
}

func TestParseRecordTolerance(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"code fence", "```json\n{\"is_valid_lead\":\"no\",\"reason\":\"spam\"}\n```"},
		{"leading chatter", "Here is the result: {\"is_valid_lead\":\"no\",\"reason\":\"spam\"}"},
		{"uppercase verdict", `{"is_valid_lead":"NO","reason":"spam"}`},
		{"unknown fields dropped", `{"is_valid_lead":"no","reason":"spam","extra":{"a":1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := ParseRecord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, VerdictNo, rec.Verdict)
			assert.Equal(t, "spam", rec.Reason)
		})
	}
}

func TestParseRecordLevelsCanonicalised(t *testing.T) {
	rec, err := ParseRecord(`{"is_valid_lead":"yes","urgency_level":"low","lead_score":3,"confidence":" HIGH "}`)
	require.NoError(t, err)
	assert.Equal(t, LevelLow, rec.Lead.UrgencyLevel)
	assert.Equal(t, LevelHigh, rec.Lead.Confidence)
	assert.Equal(t, 3, rec.Lead.LeadScore)
}

func TestParseRecordIntegralFloatScore(t *testing.T) {
	rec, err := ParseRecord(`{"is_valid_lead":"yes","urgency_level":"Low","lead_score":7.0,"confidence":"Low"}`)
	require.NoError(t, err)
	assert.Equal(t, 7, rec.Lead.LeadScore)
}

func TestParseRecordMalformed(t *testing.T) {
	for _, in := range []string{"", "not json at all", "{broken", `["is_valid_lead"]`, "null"} {
		_, err := ParseRecord(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrMalformedOutput), "input %q: %v", in, err)
	}
}

func TestParseRecordSchemaMismatch(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"missing discriminant", `{"reason":"spam"}`},
		{"bad discriminant", `{"is_valid_lead":"maybe","reason":"x"}`},
		{"boolean discriminant", `{"is_valid_lead":true}`},
		{"rejected without reason", `{"is_valid_lead":"no"}`},
		{"rejected blank reason", `{"is_valid_lead":"no","reason":"  "}`},
		{"score missing", `{"is_valid_lead":"yes","urgency_level":"High","confidence":"High"}`},
		{"score zero", `{"is_valid_lead":"yes","urgency_level":"High","lead_score":0,"confidence":"High"}`},
		{"score eleven", `{"is_valid_lead":"yes","urgency_level":"High","lead_score":11,"confidence":"High"}`},
		{"score fractional", `{"is_valid_lead":"yes","urgency_level":"High","lead_score":7.5,"confidence":"High"}`},
		{"score not numeric", `{"is_valid_lead":"yes","urgency_level":"High","lead_score":"eight","confidence":"High"}`},
		{"urgency invalid", `{"is_valid_lead":"yes","urgency_level":"ASAP","lead_score":5,"confidence":"High"}`},
		{"urgency missing", `{"is_valid_lead":"yes","lead_score":5,"confidence":"High"}`},
		{"confidence missing", `{"is_valid_lead":"yes","urgency_level":"High","lead_score":5}`},
		{"text field wrong type", `{"is_valid_lead":"yes","phone":5551234,"urgency_level":"High","lead_score":5,"confidence":"High"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrSchemaMismatch), "got %v", err)
		})
	}
}

func TestRecordMarshalShapes(t *testing.T) {
	rejected, err := json.Marshal(Rejected("newsletter"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_valid_lead":"no","reason":"newsletter"}`, string(rejected))

	accepted, err := json.Marshal(Accepted(Lead{
		ContactName:  "Jane Roe",
		Company:      "Globex",
		UrgencyLevel: LevelMedium,
		LeadScore:    6,
		Confidence:   LevelHigh,
	}))
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"is_valid_lead":"yes","contact_name":"Jane Roe","email":"","phone":"","company":"Globex",
		"website":"","linkedin":"","intent":"","urgency_level":"Medium","lead_score":6,"confidence":"High"
	}`, string(accepted))
}

func TestRecordUnmarshalValidates(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(acceptedJSON), &rec))
	assert.Equal(t, "Acme Corp", rec.Lead.Company)

	err := json.Unmarshal([]byte(`{"is_valid_lead":"perhaps"}`), &rec)
	require.Error(t, err)
}

func TestZeroRecordMarshalsAsRejected(t *testing.T) {
	b, err := json.Marshal(Record{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"is_valid_lead":"no","reason":""}`, string(b))
}
