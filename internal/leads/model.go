package leads

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// DefaultMaxContentChars is the largest email body accepted for extraction.
const DefaultMaxContentChars = 2000

// Verdict is the is_valid_lead discriminant.
type Verdict string

const (
	VerdictYes Verdict = "yes"
	VerdictNo  Verdict = "no"
)

// Level is the High/Medium/Low scale used for urgency and confidence.
type Level string

const (
	LevelHigh   Level = "High"
	LevelMedium Level = "Medium"
	LevelLow    Level = "Low"
)

// ParseLevel canonicalises a level case-insensitively.
func ParseLevel(s string) (Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return LevelHigh, true
	case "medium":
		return LevelMedium, true
	case "low":
		return LevelLow, true
	default:
		return "", false
	}
}

// ExtractionRequest is the request body for POST /api/extract
type ExtractionRequest struct {
	Content string `json:"content"`
}

// Normalize trims the content and enforces the size limit. A non-positive
// maxChars means DefaultMaxContentChars. Length is counted in characters, not bytes.
func (r ExtractionRequest) Normalize(maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxContentChars
	}
	content := strings.TrimSpace(r.Content)
	if content == "" {
		return "", newNoContentError()
	}
	if utf8.RuneCountInString(content) > maxChars {
		return "", newContentTooLongError(maxChars)
	}
	return content, nil
}

// Lead holds the fields extracted from an accepted business inquiry.
type Lead struct {
	ContactName  string `json:"contact_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Company      string `json:"company"`
	Website      string `json:"website"`
	LinkedIn     string `json:"linkedin"`
	Intent       string `json:"intent"`
	UrgencyLevel Level  `json:"urgency_level"`
	LeadScore    int    `json:"lead_score"`
	Confidence   Level  `json:"confidence"`
}

// Record is the extraction result: either an accepted Lead or a rejection reason.
type Record struct {
	Verdict Verdict
	Reason  string
	Lead    *Lead
}

// Accepted builds the "yes" variant.
func Accepted(lead Lead) Record {
	return Record{Verdict: VerdictYes, Lead: &lead}
}

// Rejected builds the "no" variant.
func Rejected(reason string) Record {
	return Record{Verdict: VerdictNo, Reason: reason}
}

// IsLead reports whether the record is the accepted variant.
func (r Record) IsLead() bool {
	return r.Verdict == VerdictYes && r.Lead != nil
}

type acceptedWire struct {
	IsValidLead Verdict `json:"is_valid_lead"`
	Lead
}

type rejectedWire struct {
	IsValidLead Verdict `json:"is_valid_lead"`
	Reason      string  `json:"reason"`
}

// MarshalJSON renders the flat wire shape with is_valid_lead always present.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.IsLead() {
		return json.Marshal(acceptedWire{IsValidLead: VerdictYes, Lead: *r.Lead})
	}
	return json.Marshal(rejectedWire{IsValidLead: VerdictNo, Reason: r.Reason})
}

// UnmarshalJSON applies the same schema checks as provider output.
func (r *Record) UnmarshalJSON(data []byte) error {
	rec, err := ParseRecord(string(data))
	if err != nil {
		return err
	}
	*r = rec
	return nil
}
