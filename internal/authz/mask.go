package authz

import "strings"

// Redaction markers by field category. Category selection is an explicit
// strategy table keyed on field-name substring, evaluated in order.
const (
	MaskedEmail   = "***@***.***"
	MaskedPhone   = "***-***-****"
	MaskedNumeric = "****"
	MaskedGeneric = "[REDACTED]"
)

type redaction struct {
	substring string
	marker    string
}

var redactions = []redaction{
	{substring: "email", marker: MaskedEmail},
	{substring: "phone", marker: MaskedPhone},
	{substring: "value", marker: MaskedNumeric},
}

func markerFor(field string) string {
	lower := strings.ToLower(field)
	for _, r := range redactions {
		if strings.Contains(lower, r.substring) {
			return r.marker
		}
	}
	return MaskedGeneric
}

// Mask replaces configured sensitive fields in data with redaction markers.
// Data is a generic JSON value: lists are masked element-wise, objects are
// copied with their configured fields overwritten and their nested containers
// masked recursively, and primitives pass through untouched. Recursion means
// envelope shapes like {"leads": [...]} need no special handling. The owner
// check applies per object: a record whose owner field references the calling
// principal is returned unmodified. The input is never mutated, and masking
// is idempotent: re-masking a marker yields the same marker.
func Mask(data any, rule MaskRule, principalID string) any {
	switch v := data.(type) {
	case []any:
		masked := make([]any, len(v))
		for i, item := range v {
			masked[i] = Mask(item, rule, principalID)
		}
		return masked
	case map[string]any:
		return maskRecord(v, rule, principalID)
	default:
		return data
	}
}

func maskRecord(record map[string]any, rule MaskRule, principalID string) map[string]any {
	if ownedBy(record, rule.ownerField(), principalID) {
		return record
	}
	copied := make(map[string]any, len(record))
	for k, v := range record {
		switch v.(type) {
		case []any, map[string]any:
			copied[k] = Mask(v, rule, principalID)
		default:
			copied[k] = v
		}
	}
	for _, field := range rule.Fields {
		value, ok := copied[field]
		if !ok || isEmptyValue(value) {
			continue
		}
		copied[field] = markerFor(field)
	}
	return copied
}

func (r MaskRule) ownerField() string {
	if r.OwnerField != "" {
		return r.OwnerField
	}
	return DefaultOwnerField
}

// ownedBy matches the record's owner reference against the principal id.
// The reference may be a direct id or a nested object carrying an "id" key.
func ownedBy(record map[string]any, ownerField, principalID string) bool {
	if principalID == "" {
		return false
	}
	switch owner := record[ownerField].(type) {
	case string:
		return owner == principalID
	case map[string]any:
		id, _ := owner["id"].(string)
		return id != "" && id == principalID
	default:
		return false
	}
}

func isEmptyValue(v any) bool {
	switch value := v.(type) {
	case nil:
		return true
	case string:
		return value == ""
	case bool:
		return !value
	case float64:
		return value == 0
	default:
		return false
	}
}
