// services/irq/internal/util/util.go
package util

import "encoding/json"

// DecodeJSON coerces bus payloads (raw bytes, strings, maps, or typed
// structs) into dst via a JSON round trip.
func DecodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
