package transport

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrNotOpen = errors.New("connection not open")

type EventKind uint8

const (
	EventOpen EventKind = iota
	EventClose
	EventError
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventOpen:
		return "open"
	case EventClose:
		return "close"
	case EventError:
		return "error"
	case EventMessage:
		return "message"
	}
	return "unknown"
}

// Event is one lifecycle change or one inbound text message.
type Event struct {
	Kind EventKind
	Data []byte
	Err  error
}

type Options struct {
	// Without Reconnect a failed dial or a dropped connection ends the client.
	Reconnect      bool
	MaxRetries     int
	BaseRetryDelay time.Duration
	MaxRetryDelay  time.Duration

	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	// 0 disables the read deadline.
	ReadTimeout time.Duration

	Log *logrus.Entry
}

func DefaultOptions() Options {
	return Options{
		Reconnect:        false,
		MaxRetries:       10,
		BaseRetryDelay:   2 * time.Second,
		MaxRetryDelay:    60 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
		PingInterval:     30 * time.Second,
	}
}
