package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
)

type envelope struct {
	Type *string `json:"type"`
}

type rawState struct {
	Loads     []map[string]json.RawMessage `json:"loads"`
	UnitPrice json.RawMessage              `json:"unitPrice"`
}

type rawNotification struct {
	Text *string `json:"text"`
}

// DecodeInbound classifies a device message by its type field and decodes it.
// Load ids must be integers in 1..channels. A bad record rejects the whole
// message so callers never apply half of it.
func DecodeInbound(raw []byte, channels int) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == nil {
		return nil, fmt.Errorf("%w: missing type", ErrUnknownType)
	}

	switch *env.Type {
	case TypeState:
		st, err := decodeState(raw, channels)
		if err != nil {
			return nil, err
		}
		return st, nil
	case TypeNotification:
		var n rawNotification
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if n.Text == nil {
			return nil, fmt.Errorf("%w: notification without text", ErrMalformed)
		}
		return &NotificationMessage{Text: *n.Text}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, *env.Type)
	}
}

func decodeState(raw []byte, channels int) (*StateMessage, error) {
	var st rawState
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if st.Loads == nil {
		return nil, ErrMissingLoads
	}

	msg := &StateMessage{Loads: make([]types.ChannelReading, 0, len(st.Loads))}
	for i, rec := range st.Loads {
		if rec == nil {
			return nil, fmt.Errorf("%w: record %d is not an object", ErrInvalidRecord, i)
		}
		id, ok := coerceId(rec["id"])
		if !ok || id < 1 || id > channels {
			return nil, fmt.Errorf("%w: record %d has id %s", ErrInvalidRecord, i, string(rec["id"]))
		}
		msg.Loads = append(msg.Loads, types.ChannelReading{
			Id:      id,
			Voltage: CoerceNumber(rec["voltage"]),
			Current: CoerceNumber(rec["current"]),
			Power:   CoerceNumber(rec["power"]),
			Energy:  CoerceNumber(rec["energy"]),
			Relay:   CoerceBool(rec["relay"]),
		})
	}

	if price, ok := coercePrice(st.UnitPrice); ok {
		msg.UnitPrice = price
		msg.HasUnitPrice = true
	}
	return msg, nil
}

// CoerceNumber reads a reading field. Numbers and numeric strings are kept,
// everything else (missing, null, NaN, negative) is 0.
func CoerceNumber(raw json.RawMessage) float64 {
	v, ok := parseNumber(raw)
	if !ok || v < 0 {
		return 0
	}
	return v
}

// coercePrice reads unitPrice. Any finite non-zero number counts as present,
// negative included.
func coercePrice(raw json.RawMessage) (float64, bool) {
	v, ok := parseNumber(raw)
	if !ok || v == 0 {
		return 0, false
	}
	return v, true
}

// parseNumber accepts a JSON number or numeric string holding a finite value.
func parseNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	var v float64
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		v = f
	default:
		if err := json.Unmarshal(raw, &v); err != nil {
			return 0, false
		}
	}

	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CoerceBool reads the relay flag. Missing is false.
func CoerceBool(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0 && !math.IsNaN(b)
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "on", "1":
			return true
		}
	}
	return false
}

func coerceId(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}

type stateOut struct {
	Type      string                 `json:"type"`
	Loads     []types.ChannelReading `json:"loads"`
	UnitPrice float64                `json:"unitPrice,omitempty"`
}

type notificationOut struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// EncodeState is the device side of a state snapshot.
func EncodeState(loads []types.ChannelReading, unitPrice float64) ([]byte, error) {
	if loads == nil {
		loads = []types.ChannelReading{}
	}
	return json.Marshal(stateOut{Type: TypeState, Loads: loads, UnitPrice: unitPrice})
}

func EncodeNotification(text string) ([]byte, error) {
	return json.Marshal(notificationOut{Type: TypeNotification, Text: text})
}
