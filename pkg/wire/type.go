package wire

import (
	"errors"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
)

// Inbound discriminators.
const (
	TypeState        = "state"
	TypeNotification = "notification"
)

// Outbound discriminators.
const (
	CmdRelay              = "relay"
	CmdSetTimer           = "setTimer"
	CmdSetLimit           = "setLimit"
	CmdSetPrice           = "setPrice"
	CmdClearNotifications = "clearNotifications"

	// Name used by older firmware builds. Accepted on decode only.
	CmdClearNotificationsLegacy = "clearNotifs"
)

var (
	ErrMalformed     = errors.New("malformed message")
	ErrUnknownType   = errors.New("unknown message type")
	ErrMissingLoads  = errors.New("state message without loads")
	ErrUnknownCmd    = errors.New("unknown command")
	ErrInvalidRecord = errors.New("invalid load record")
)

// Inbound is one decoded device message: *StateMessage or *NotificationMessage.
type Inbound interface {
	MessageType() string
}

type StateMessage struct {
	Loads        []types.ChannelReading
	UnitPrice    float64
	HasUnitPrice bool
}

func (*StateMessage) MessageType() string { return TypeState }

type NotificationMessage struct {
	Text string
}

func (*NotificationMessage) MessageType() string { return TypeNotification }

// Command is one outbound control message. Fire and forget.
type Command interface {
	Name() string
}

type RelayCommand struct {
	Id    int  `json:"id"`
	State bool `json:"state"`
}

type SetTimerCommand struct {
	Id      int `json:"id"`
	Minutes int `json:"minutes"`
}

type SetLimitCommand struct {
	Id      int `json:"id"`
	Seconds int `json:"seconds"`
}

type SetPriceCommand struct {
	Price float64 `json:"price"`
}

type ClearNotificationsCommand struct{}

func (RelayCommand) Name() string              { return CmdRelay }
func (SetTimerCommand) Name() string           { return CmdSetTimer }
func (SetLimitCommand) Name() string           { return CmdSetLimit }
func (SetPriceCommand) Name() string           { return CmdSetPrice }
func (ClearNotificationsCommand) Name() string { return CmdClearNotifications }
