package utils

import (
	"encoding/json"
	"strings"
)

// ValidationError reports missing or malformed request fields. The central
// error handler maps it to 400; Fields lists every offending field, not just
// the first.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}

// requiredInputFields must all be present in a structured customer_input for
// the full analysis path.
var requiredInputFields = []string{
	"customer_name",
	"loan_amount",
	"customer_details",
	"loan_details",
	"market_conditions",
}

// NormalizeAnalysisRequest canonicalizes an analysis creation body. Clients
// send snake_case or camelCase keys, and customer_input arrives either as a
// JSON object or as a JSON-encoded string.
func NormalizeAnalysisRequest(body []byte) (map[string]any, string, error) {
	if len(body) == 0 {
		return nil, "", &ValidationError{Message: "No data provided"}
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil || len(payload) == 0 {
		return nil, "", &ValidationError{Message: "No data provided"}
	}

	rawInput := firstRaw(payload, "customer_input", "customerInput")
	phone := firstString(payload, "customer_phone", "customerPhone")

	var missing []string
	if rawInput == nil {
		missing = append(missing, "customer_input/customerInput")
	}
	if phone == "" {
		missing = append(missing, "customer_phone/customerPhone")
	}
	if len(missing) > 0 {
		return nil, "", &ValidationError{Message: "Missing required fields", Fields: missing}
	}

	input, err := decodeCustomerInput(rawInput)
	if err != nil {
		return nil, "", err
	}

	missing = missing[:0]
	for _, f := range requiredInputFields {
		if _, ok := input[f]; !ok {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return nil, "", &ValidationError{Message: "Missing required fields in customer_input", Fields: missing}
	}
	return input, phone, nil
}

// decodeCustomerInput accepts either an object or a JSON-encoded string
// holding an object.
func decodeCustomerInput(raw json.RawMessage) (map[string]any, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, &ValidationError{Message: "Invalid JSON in customer_input"}
	}
	switch v := value.(type) {
	case string:
		var nested map[string]any
		if err := json.Unmarshal([]byte(v), &nested); err != nil {
			return nil, &ValidationError{Message: "Invalid JSON in customer_input"}
		}
		return nested, nil
	case map[string]any:
		return v, nil
	default:
		return nil, &ValidationError{Message: "Invalid JSON in customer_input"}
	}
}

// firstRaw returns the first present, non-empty value among keys. Empty
// strings and empty objects count as absent, matching the falsy check the
// API has always applied.
func firstRaw(m map[string]json.RawMessage, keys ...string) json.RawMessage {
	for _, k := range keys {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch strings.TrimSpace(string(v)) {
		case "", "null", `""`, "{}":
			continue
		}
		return v
	}
	return nil
}

func firstString(m map[string]json.RawMessage, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			var s string
			if err := json.Unmarshal(v, &s); err == nil {
				if t := strings.TrimSpace(s); t != "" {
					return t
				}
			}
		}
	}
	return ""
}
