package inventory

import (
	"math"
	"strconv"
	"strings"
)

// Inbound payload keys, bracketed exactly as the upstream export produces
// them. Extra keys are ignored.
const (
	keyNo          = "[No]"
	keyDescription = "[Description]"
	keyBaseUOM     = "[BaseUOM]"
	keyQuantity    = "[Quantity]"
)

// Record is one inbound row after coercion. No is kept verbatim; the storage
// identity derived from it lives alongside, not here.
type Record struct {
	No          string
	Description string
	BaseUOM     string
	Quantity    float64
}

// ParseRecord coerces one untyped inbound element into a Record. It succeeds
// only when all four fields coerce; a record that fails any field is dropped
// whole, never stored partially.
func ParseRecord(raw interface{}) (Record, bool) {
	fields, ok := raw.(map[string]interface{})
	if !ok {
		return Record{}, false
	}

	no, ok := stringField(fields, keyNo)
	if !ok {
		return Record{}, false
	}
	description, ok := stringField(fields, keyDescription)
	if !ok {
		return Record{}, false
	}
	baseUOM, ok := stringField(fields, keyBaseUOM)
	if !ok {
		return Record{}, false
	}
	quantity, ok := quantityField(fields, keyQuantity)
	if !ok {
		return Record{}, false
	}

	return Record{
		No:          no,
		Description: description,
		BaseUOM:     baseUOM,
		Quantity:    quantity,
	}, true
}

// Fields returns the document body persisted for this record. The store
// stamps its own write timestamp on top.
func (r Record) Fields() map[string]interface{} {
	return map[string]interface{}{
		"No":          r.No,
		"Description": r.Description,
		"BaseUOM":     r.BaseUOM,
		"Quantity":    r.Quantity,
	}
}

// stringField accepts only values whose runtime type is a non-empty string.
// Numbers, null, objects and anything else are rejected rather than coerced.
func stringField(fields map[string]interface{}, key string) (string, bool) {
	s, ok := fields[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// quantityField accepts a finite number, or a string whose trimmed content is
// non-empty and parses to a finite number.
func quantityField(fields map[string]interface{}, key string) (float64, bool) {
	switch v := fields[key].(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, false
		}
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
