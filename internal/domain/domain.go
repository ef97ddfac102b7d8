// Package domain holds the persisted records and shared value types of the
// interview brief lifecycle: sessions, versions, corrections, consent, audit
// events and cross-session company insights.
package domain

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// JSONStrings encodes a string list for a datatypes.JSON column.
func JSONStrings(in []string) datatypes.JSON {
	if in == nil {
		in = []string{}
	}
	b, err := json.Marshal(in)
	if err != nil {
		return datatypes.JSON([]byte("[]"))
	}
	return datatypes.JSON(b)
}

// StringsFromJSON decodes a datatypes.JSON string list, tolerating empty/null columns.
func StringsFromJSON(raw datatypes.JSON) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	_ = json.Unmarshal(raw, &out)
	if out == nil {
		out = []string{}
	}
	return out
}

// JSONValue encodes an arbitrary value for a datatypes.JSON column.
func JSONValue(v any) datatypes.JSON {
	if v == nil {
		return datatypes.JSON([]byte("null"))
	}
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON([]byte("null"))
	}
	return datatypes.JSON(b)
}
