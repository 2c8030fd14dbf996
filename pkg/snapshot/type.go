package snapshot

import "github.com/NotCoffee418/esp32_power_tracker/pkg/types"

// Where the displayed unit price last came from.
type PriceSource uint8

const (
	PriceDefault PriceSource = iota
	PriceFetched
	PriceLocal
	PriceLive
)

func (p PriceSource) String() string {
	switch p {
	case PriceFetched:
		return "settings"
	case PriceLocal:
		return "local"
	case PriceLive:
		return "device"
	default:
		return "default"
	}
}

// Model holds the latest readings for channels 1..N.
// It has a single owner and is not safe for concurrent use.
type Model struct {
	channels    []types.ChannelReading
	totals      types.AggregateTotals
	unitPrice   float64
	priceSource PriceSource
	liveSeen    bool
}

// State is a detached copy of a Model.
type State struct {
	Channels    []types.ChannelReading
	Totals      types.AggregateTotals
	UnitPrice   float64
	PriceSource PriceSource
}
