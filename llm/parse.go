package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// requiredSections are the top-level keys every completed analysis must carry.
var requiredSections = []string{
	"summary",
	"credit_risk_analysis",
	"financial_metrics",
	"loan_metrics",
	"property_analysis",
	"economic_factors",
	"chart_data",
}

// ErrNoJSONObject is returned when the model reply contains no JSON object.
var ErrNoJSONObject = errors.New("no JSON object found in response")

// Widest {...} span, dot matches newline. Greedy on purpose: the outermost
// braces win when the payload contains nested objects.
var jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSONObject parses text as a JSON object, tolerating prose around the
// payload. Stage one is a direct parse; stage two extracts the widest {...}
// span and parses that. The stages fail in a fixed order: a malformed
// extracted span reports its parse error, text with no object at all reports
// ErrNoJSONObject.
func ExtractJSONObject(text string) (map[string]any, error) {
	text = strings.TrimSpace(text)

	var out map[string]any
	if err := json.Unmarshal([]byte(text), &out); err == nil {
		return out, nil
	}

	span := jsonObjectPattern.FindString(text)
	if span == "" {
		return nil, ErrNoJSONObject
	}
	if err := json.Unmarshal([]byte(span), &out); err != nil {
		return nil, fmt.Errorf("failed to parse extracted JSON: %w", err)
	}
	return out, nil
}

// ValidateAnalysis checks that every required top-level section is present,
// naming all the missing ones. The values themselves are passed through
// verbatim: the model owns the arithmetic and this service does not
// second-guess it.
func ValidateAnalysis(result map[string]any) error {
	var missing []string
	for _, section := range requiredSections {
		if _, ok := result[section]; !ok {
			missing = append(missing, section)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required fields in analysis: %s", strings.Join(missing, ", "))
	}
	return nil
}
