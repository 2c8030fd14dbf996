package snapshot

import (
	"testing"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlaceholders(t *testing.T) {
	m := New(4, 8)
	require.Equal(t, 4, m.Size())
	for i, c := range m.Channels() {
		assert.Equal(t, types.ChannelReading{Id: i + 1}, c)
	}
	assert.Equal(t, 8.0, m.UnitPrice())
	assert.Equal(t, PriceDefault, m.PriceSource())
}

func TestApplyTotalsOnlyFromPresentChannels(t *testing.T) {
	m := New(4, 8)
	require.NoError(t, m.Apply([]types.ChannelReading{
		{Id: 1, Voltage: 230, Current: 1, Power: 230, Energy: 10, Relay: true},
		{Id: 2, Voltage: 229, Current: 2, Power: 458, Energy: 20},
	}))
	assert.Equal(t, types.AggregateTotals{Voltage: 459, Current: 3, Power: 688, Energy: 30}, m.Totals())

	// Channel 1 is absent from the next snapshot: it keeps its reading but
	// adds nothing to the totals.
	require.NoError(t, m.Apply([]types.ChannelReading{
		{Id: 2, Voltage: 228, Current: 1, Power: 228, Energy: 21},
	}))
	assert.Equal(t, types.AggregateTotals{Voltage: 228, Current: 1, Power: 228, Energy: 21}, m.Totals())
	c1, ok := m.Channel(1)
	require.True(t, ok)
	assert.Equal(t, 230.0, c1.Voltage)
	assert.True(t, c1.Relay)
}

func TestApplyIsIdempotent(t *testing.T) {
	loads := []types.ChannelReading{
		{Id: 3, Voltage: 1.5, Current: 0.25, Power: 7, Energy: 99, Relay: true},
		{Id: 4, Power: 1},
	}
	once := New(4, 8)
	require.NoError(t, once.Apply(loads))
	twice := New(4, 8)
	require.NoError(t, twice.Apply(loads))
	require.NoError(t, twice.Apply(loads))

	assert.Equal(t, once.State(), twice.State())
}

func TestApplyUnknownChannelLeavesModelUntouched(t *testing.T) {
	m := New(2, 8)
	require.NoError(t, m.Apply([]types.ChannelReading{{Id: 1, Power: 5}}))
	before := m.State()

	err := m.Apply([]types.ChannelReading{{Id: 2, Power: 1}, {Id: 3, Power: 1}})
	assert.ErrorIs(t, err, ErrUnknownChannel)
	assert.Equal(t, before, m.State())
}

func TestTotalsCountsDuplicates(t *testing.T) {
	total := Totals([]types.ChannelReading{{Id: 1, Power: 2}, {Id: 1, Power: 3}})
	assert.Equal(t, 5.0, total.Power)
}

func TestPricePrecedence(t *testing.T) {
	m := New(4, 8)

	assert.True(t, m.SetFetchedPrice(9))
	assert.Equal(t, 9.0, m.UnitPrice())
	assert.Equal(t, PriceFetched, m.PriceSource())

	m.SetLocalPrice(10)
	assert.Equal(t, PriceLocal, m.PriceSource())

	m.SetLivePrice(11)
	assert.Equal(t, 11.0, m.UnitPrice())

	// A late settings fetch never overrides the device.
	assert.False(t, m.SetFetchedPrice(12))
	assert.Equal(t, 11.0, m.UnitPrice())

	m.SetLocalPrice(13)
	assert.False(t, m.SetFetchedPrice(14))
	assert.Equal(t, 13.0, m.UnitPrice())
}

func TestStateIsDetached(t *testing.T) {
	m := New(1, 8)
	st := m.State()
	st.Channels[0].Power = 100
	c, _ := m.Channel(1)
	assert.Equal(t, 0.0, c.Power)
}
