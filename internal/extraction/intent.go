package extraction

import (
	"context"
	"fmt"
	"strings"
)

// Intent is the classified purpose of an inbound message.
type Intent string

const (
	IntentNewComplaint Intent = "new_complaint"
	IntentStatusCheck  Intent = "status_check"
	IntentUnknown      Intent = "unknown"
)

const intentPrompt = `Analyze this message and respond with a single word: is the user's primary intent "new_complaint" or "status_check"?
Message: "%s"`

// IntentClassifier routes messages to the new-complaint or status-check flow.
type IntentClassifier struct {
	oracle *Oracle
}

func NewIntentClassifier(oracle *Oracle) *IntentClassifier {
	if oracle == nil {
		panic("extraction: oracle cannot be nil")
	}
	return &IntentClassifier{oracle: oracle}
}

// Classify asks the oracle for the message intent. Matching is substring
// containment on the lower-cased response rather than equality, to tolerate
// verbose output. status_check is checked first: a response mentioning both
// tokens resolves to a status check.
func (c *IntentClassifier) Classify(ctx context.Context, message string) (Intent, error) {
	raw, err := c.oracle.Generate(ctx, fmt.Sprintf(intentPrompt, message))
	if err != nil {
		return IntentUnknown, fmt.Errorf("extraction: intent classification failed: %w", err)
	}

	response := strings.ToLower(raw)
	switch {
	case strings.Contains(response, string(IntentStatusCheck)):
		return IntentStatusCheck, nil
	case strings.Contains(response, string(IntentNewComplaint)):
		return IntentNewComplaint, nil
	default:
		return IntentUnknown, nil
	}
}
