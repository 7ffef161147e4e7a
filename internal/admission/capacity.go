package admission

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ParseCapacity reads a work room capacity sent either as a JSON number or a
// numeric string. Only whole numbers from 1 up to MaxInt32 are accepted.
func ParseCapacity(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, reject(ReasonInvalidCapacity, "missing capacity")
	}

	var value int64
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, reject(ReasonInvalidCapacity, "malformed capacity")
		}
		v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return 0, reject(ReasonInvalidCapacity, "capacity %q is not an integer", s)
		}
		value = v
	} else {
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
			return 0, reject(ReasonInvalidCapacity, "capacity %s is not an integer", raw)
		}
		value = int64(f)
	}

	if value < 1 || value > math.MaxInt32 {
		return 0, reject(ReasonInvalidCapacity, "capacity %d out of range", value)
	}
	return int(value), nil
}
