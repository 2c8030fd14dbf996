package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCommand(t *testing.T) {
	var tests = []struct {
		name     string
		cmd      Command
		expected string
	}{
		{name: "relay", cmd: RelayCommand{Id: 2, State: true}, expected: `{"cmd":"relay","id":2,"state":true}`},
		{name: "timer", cmd: SetTimerCommand{Id: 1, Minutes: 15}, expected: `{"cmd":"setTimer","id":1,"minutes":15}`},
		{name: "limit", cmd: SetLimitCommand{Id: 4, Seconds: 7200}, expected: `{"cmd":"setLimit","id":4,"seconds":7200}`},
		{name: "price", cmd: SetPriceCommand{Price: 8.25}, expected: `{"cmd":"setPrice","price":8.25}`},
		{name: "clear", cmd: ClearNotificationsCommand{}, expected: `{"cmd":"clearNotifications"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := EncodeCommand(tt.cmd)
			require.NoError(t, err)
			assert.JSONEq(t, tt.expected, string(raw))

			back, err := DecodeCommand(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.cmd, back)
		})
	}
}

func TestDecodeCommandLegacyClear(t *testing.T) {
	c, err := DecodeCommand([]byte(`{"cmd":"clearNotifs"}`))
	require.NoError(t, err)
	assert.Equal(t, ClearNotificationsCommand{}, c)
}

func TestDecodeCommandRejects(t *testing.T) {
	_, err := DecodeCommand([]byte(`{"cmd":"reboot"}`))
	assert.ErrorIs(t, err, ErrUnknownCmd)

	_, err = DecodeCommand([]byte(`{"cmd":"setTimer","id":1,"minutes":-1}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeCommand([]byte(`{"cmd":"setLimit","id":1,"seconds":0}`))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = DecodeCommand([]byte(`nope`))
	assert.ErrorIs(t, err, ErrMalformed)
}
