package tools

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// flexNumber accepts a JSON number or a numeric string. Anything else is
// kept as text and reported as not numeric.
type flexNumber struct {
	value   float64
	numeric bool
	text    string
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		n.text = strings.TrimSpace(s)
		if v, err := strconv.ParseFloat(strings.ReplaceAll(n.text, ",", "."), 64); err == nil {
			n.value, n.numeric = v, true
		}
		return nil
	}
	if v, err := strconv.ParseFloat(string(b), 64); err == nil {
		n.value, n.numeric = v, true
	}
	return nil
}

func (n *flexNumber) int64() (int64, bool) {
	if n == nil || !n.numeric || n.value != math.Trunc(n.value) || n.value <= 0 || n.value >= math.MaxInt64 {
		return 0, false
	}
	return int64(n.value), true
}

func (n *flexNumber) within(limit float64) (float64, bool) {
	if n == nil || !n.numeric || n.value < -limit || n.value > limit {
		return 0, false
	}
	return n.value, true
}

// flexBool accepts true/false or their common string spellings.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch strings.ToLower(strings.Trim(string(b), `"`)) {
	case "true", "1", "yes", "si", "sí":
		*f = true
	default:
		*f = false
	}
	return nil
}

type draftArgs struct {
	DraftID string `json:"draft_id"`
}

type updateArgs struct {
	DraftID     string      `json:"draft_id"`
	CategoryID  *flexNumber `json:"category_id"`
	Description *string     `json:"description"`
	Reference   *string     `json:"reference"`
	Latitude    *flexNumber `json:"latitude"`
	Longitude   *flexNumber `json:"longitude"`
	AddressText *string     `json:"address_text"`
}

type finalizeArgs struct {
	DraftID      string   `json:"draft_id"`
	Confirmation flexBool `json:"confirmation"`
}

// decodeArgs fills v from raw, leaving it zero when raw is empty or malformed.
func decodeArgs(raw json.RawMessage, v any) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	if err := json.Unmarshal(raw, v); err != nil {
		// Partially decoded values are discarded.
		switch t := v.(type) {
		case *draftArgs:
			*t = draftArgs{}
		case *updateArgs:
			*t = updateArgs{}
		case *finalizeArgs:
			*t = finalizeArgs{}
		}
	}
}
