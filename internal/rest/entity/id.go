package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// IDString normalizes an identifier value for comparison.
//
// Identifiers are compared as strings regardless of the underlying JSON type,
// so the number 1 and the string "1" address the same item. Numbers are
// formatted without a decimal point when they are integral.
func IDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	default:
		return fmt.Sprint(id)
	}
}
