package snapshot

import (
	"errors"
	"fmt"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
)

var ErrUnknownChannel = errors.New("unknown channel")

// New creates zeroed placeholders for channels 1..channels.
func New(channels int, defaultPrice float64) *Model {
	m := &Model{
		channels:  make([]types.ChannelReading, channels),
		unitPrice: defaultPrice,
	}
	for i := range m.channels {
		m.channels[i].Id = i + 1
	}
	return m
}

func (m *Model) Size() int {
	return len(m.channels)
}

func (m *Model) Channel(id int) (types.ChannelReading, bool) {
	if id < 1 || id > len(m.channels) {
		return types.ChannelReading{}, false
	}
	return m.channels[id-1], true
}

func (m *Model) Channels() []types.ChannelReading {
	out := make([]types.ChannelReading, len(m.channels))
	copy(out, m.channels)
	return out
}

func (m *Model) Totals() types.AggregateTotals {
	return m.totals
}

func (m *Model) UnitPrice() float64 {
	return m.unitPrice
}

func (m *Model) PriceSource() PriceSource {
	return m.priceSource
}

// Apply overwrites every channel mentioned in loads and recomputes the totals
// from exactly those loads. Channels not mentioned keep their readings but
// contribute nothing to the totals. Nothing changes if any id is unknown.
func (m *Model) Apply(loads []types.ChannelReading) error {
	for _, l := range loads {
		if l.Id < 1 || l.Id > len(m.channels) {
			return fmt.Errorf("%w: %d", ErrUnknownChannel, l.Id)
		}
	}
	for _, l := range loads {
		m.channels[l.Id-1] = l
	}
	m.totals = Totals(loads)
	return nil
}

// SetLivePrice records a price echoed by the device. The device always wins.
func (m *Model) SetLivePrice(price float64) {
	m.unitPrice = price
	m.priceSource = PriceLive
	m.liveSeen = true
}

// SetFetchedPrice applies the settings document price unless the device
// already sent one. Reports whether it was applied.
func (m *Model) SetFetchedPrice(price float64) bool {
	if m.liveSeen {
		return false
	}
	m.unitPrice = price
	m.priceSource = PriceFetched
	return true
}

// SetLocalPrice reflects a local edit until the next device echo.
func (m *Model) SetLocalPrice(price float64) {
	m.unitPrice = price
	m.priceSource = PriceLocal
}

func (m *Model) State() State {
	return State{
		Channels:    m.Channels(),
		Totals:      m.totals,
		UnitPrice:   m.unitPrice,
		PriceSource: m.priceSource,
	}
}

// Totals sums every load. Duplicated ids count once per occurrence.
func Totals(loads []types.ChannelReading) types.AggregateTotals {
	var t types.AggregateTotals
	for _, l := range loads {
		t.Add(l)
	}
	return t
}
