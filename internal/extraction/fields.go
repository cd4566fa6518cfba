package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// LocationUnspecified is the sentinel the extraction prompt instructs the
// model to emit when the complaint names no location.
const LocationUnspecified = "Not specified"

// ErrMalformedExtraction indicates the oracle response could not be parsed
// as the expected JSON object.
var ErrMalformedExtraction = errors.New("extraction: malformed field extraction response")

const fieldsPrompt = `Analyze the complaint. Your entire response must be a single, valid JSON object with the keys "category", "location", "urgency", and "summary". If the complaint does not name a location, set "location" to "Not specified".
Complaint: "%s"
Example Response: {"category": "Garbage", "location": "near Patna Museum", "urgency": "High", "summary": "Garbage has not been collected."}`

// ComplaintFields holds the structured fields extracted from a complaint.
type ComplaintFields struct {
	Category string `json:"category"`
	Location string `json:"location"`
	Urgency  string `json:"urgency"`
	Summary  string `json:"summary"`
}

// LocationMissing reports whether the location must be slot-filled before a
// ticket can be persisted.
func (f ComplaintFields) LocationMissing() bool {
	location := strings.TrimSpace(f.Location)
	return location == "" || location == LocationUnspecified
}

// FieldExtractor turns free-form complaint text into structured ticket fields.
type FieldExtractor struct {
	oracle *Oracle
}

func NewFieldExtractor(oracle *Oracle) *FieldExtractor {
	if oracle == nil {
		panic("extraction: oracle cannot be nil")
	}
	return &FieldExtractor{oracle: oracle}
}

// Extract asks the oracle for the complaint fields. The response is sliced
// down to its outermost braces before parsing, since the model may wrap the
// JSON in prose or markdown fences. Anything unparseable after that is
// ErrMalformedExtraction.
func (e *FieldExtractor) Extract(ctx context.Context, complaint string) (ComplaintFields, error) {
	raw, err := e.oracle.Generate(ctx, fmt.Sprintf(fieldsPrompt, complaint))
	if err != nil {
		return ComplaintFields{}, fmt.Errorf("extraction: field extraction failed: %w", err)
	}

	content := raw
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx >= 0 && endIdx > startIdx {
		content = content[startIdx : endIdx+1]
	}

	var fields ComplaintFields
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return ComplaintFields{}, fmt.Errorf("%w: %s", ErrMalformedExtraction, err)
	}
	return fields, nil
}
