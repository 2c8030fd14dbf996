package wire

import (
	"encoding/json"
	"fmt"
)

// EncodeCommand renders c as one {"cmd": ...} document.
func EncodeCommand(c Command) ([]byte, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	name, err := json.Marshal(c.Name())
	if err != nil {
		return nil, err
	}
	fields["cmd"] = name
	return json.Marshal(fields)
}

type cmdEnvelope struct {
	Cmd string `json:"cmd"`
}

// DecodeCommand is the device side of EncodeCommand. Values are range checked
// the way firmware would re-validate them.
func DecodeCommand(raw []byte) (Command, error) {
	var env cmdEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Cmd {
	case CmdRelay:
		var c RelayCommand
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return c, nil
	case CmdSetTimer:
		var c SetTimerCommand
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if c.Minutes < 0 {
			return nil, fmt.Errorf("%w: negative minutes %d", ErrMalformed, c.Minutes)
		}
		return c, nil
	case CmdSetLimit:
		var c SetLimitCommand
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if c.Seconds < 1 {
			return nil, fmt.Errorf("%w: limit of %d seconds", ErrMalformed, c.Seconds)
		}
		return c, nil
	case CmdSetPrice:
		var c SetPriceCommand
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return c, nil
	case CmdClearNotifications, CmdClearNotificationsLegacy:
		return ClearNotificationsCommand{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCmd, env.Cmd)
	}
}
