package leads

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ParseRecord decodes provider output into a Record and checks it against the
// lead schema. Markdown fences and chatter around the object are tolerated;
// unknown fields are dropped. Errors wrap ErrMalformedOutput or ErrSchemaMismatch.
func ParseRecord(text string) (Record, error) {
	obj, err := decodeObject(text)
	if err != nil {
		return Record{}, err
	}

	verdictRaw, ok := obj["is_valid_lead"]
	if !ok {
		return Record{}, fmt.Errorf("%w: missing is_valid_lead", ErrSchemaMismatch)
	}
	verdict, err := stringField("is_valid_lead", verdictRaw)
	if err != nil {
		return Record{}, err
	}

	switch Verdict(strings.ToLower(strings.TrimSpace(verdict))) {
	case VerdictNo:
		reason, err := stringField("reason", obj["reason"])
		if err != nil {
			return Record{}, err
		}
		if strings.TrimSpace(reason) == "" {
			return Record{}, fmt.Errorf("%w: rejected record has no reason", ErrSchemaMismatch)
		}
		return Rejected(strings.TrimSpace(reason)), nil
	case VerdictYes:
		lead, err := parseLead(obj)
		if err != nil {
			return Record{}, err
		}
		return Accepted(lead), nil
	default:
		return Record{}, fmt.Errorf("%w: is_valid_lead must be \"yes\" or \"no\", got %q", ErrSchemaMismatch, verdict)
	}
}

func parseLead(obj map[string]json.RawMessage) (Lead, error) {
	var lead Lead
	textFields := []struct {
		name string
		dst  *string
	}{
		{"contact_name", &lead.ContactName},
		{"email", &lead.Email},
		{"phone", &lead.Phone},
		{"company", &lead.Company},
		{"website", &lead.Website},
		{"linkedin", &lead.LinkedIn},
		{"intent", &lead.Intent},
	}
	for _, f := range textFields {
		v, err := stringField(f.name, obj[f.name])
		if err != nil {
			return Lead{}, err
		}
		*f.dst = strings.TrimSpace(v)
	}

	urgency, err := levelField("urgency_level", obj["urgency_level"])
	if err != nil {
		return Lead{}, err
	}
	lead.UrgencyLevel = urgency

	confidence, err := levelField("confidence", obj["confidence"])
	if err != nil {
		return Lead{}, err
	}
	lead.Confidence = confidence

	score, err := scoreField(obj["lead_score"])
	if err != nil {
		return Lead{}, err
	}
	lead.LeadScore = score

	return lead, nil
}

func decodeObject(text string) (map[string]json.RawMessage, error) {
	body := strings.TrimSpace(stripCodeFence(text))
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no object found", ErrMalformedOutput)
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOutput, err)
	}
	if obj == nil {
		return nil, fmt.Errorf("%w: null object", ErrMalformedOutput)
	}
	return obj, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block if present.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}

// stringField decodes an optional string; missing or null yields "".
func stringField(name string, raw json.RawMessage) (string, error) {
	if isAbsent(raw) {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s must be a string", ErrSchemaMismatch, name)
	}
	return s, nil
}

func levelField(name string, raw json.RawMessage) (Level, error) {
	s, err := stringField(name, raw)
	if err != nil {
		return "", err
	}
	level, ok := ParseLevel(s)
	if !ok {
		return "", fmt.Errorf("%w: %s must be High, Medium or Low, got %q", ErrSchemaMismatch, name, s)
	}
	return level, nil
}

func scoreField(raw json.RawMessage) (int, error) {
	if isAbsent(raw) {
		return 0, fmt.Errorf("%w: missing lead_score", ErrSchemaMismatch)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, fmt.Errorf("%w: lead_score must be a number", ErrSchemaMismatch)
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: lead_score must be an integer, got %s", ErrSchemaMismatch, n)
	}
	if f < 1 || f > 10 {
		return 0, fmt.Errorf("%w: lead_score must be between 1 and 10, got %s", ErrSchemaMismatch, n)
	}
	return int(f), nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
