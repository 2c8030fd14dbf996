package aggregator

import (
	"sort"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/meterdb"
)

// One channel over one clock hour (UTC).
type HourlyUsage struct {
	HourStart   int64   `json:"hourStart"`
	Id          int     `json:"id"`
	AvgPowerW   float64 `json:"avgPower"`
	EnergyWh    float64 `json:"energyWh"`
	Cost        float64 `json:"cost"`
	SampleCount int     `json:"samples"`
}

// roundToHourStart returns the Unix timestamp of the start of the hour for the given time
func roundToHourStart(t time.Time) int64 {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC).Unix()
}

// HourStart returns the start of the hour containing ts.
func HourStart(ts int64) int64 {
	return roundToHourStart(time.Unix(ts, 0))
}

type hourKey struct {
	hour int64
	id   int
}

// Hourly groups samples per channel and hour. Energy is the growth of the
// channel's counter over the hour, measured from the last sample of an
// earlier hour when there is one. Cost uses unitPrice per kWh.
// A counter that went backwards (device reset) counts from zero.
func Hourly(samples []meterdb.Sample, unitPrice float64) []HourlyUsage {
	sorted := make([]meterdb.Sample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ChannelId != sorted[j].ChannelId {
			return sorted[i].ChannelId < sorted[j].ChannelId
		}
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	acc := map[hourKey]*HourlyUsage{}
	var order []hourKey
	lastEnergy := map[int]float64{}
	seen := map[int]bool{}

	for _, s := range sorted {
		key := hourKey{hour: HourStart(s.Timestamp), id: s.ChannelId}
		u, ok := acc[key]
		if !ok {
			u = &HourlyUsage{HourStart: key.hour, Id: s.ChannelId}
			acc[key] = u
			order = append(order, key)
		}

		if seen[s.ChannelId] {
			delta := s.EnergyWh - lastEnergy[s.ChannelId]
			if delta < 0 {
				delta = s.EnergyWh
			}
			u.EnergyWh += delta
		}
		seen[s.ChannelId] = true
		lastEnergy[s.ChannelId] = s.EnergyWh

		u.AvgPowerW += s.Watt
		u.SampleCount++
	}

	out := make([]HourlyUsage, 0, len(order))
	for _, key := range order {
		u := acc[key]
		u.AvgPowerW /= float64(u.SampleCount)
		u.Cost = u.EnergyWh / 1000 * unitPrice
		out = append(out, *u)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].HourStart != out[j].HourStart {
			return out[i].HourStart < out[j].HourStart
		}
		return out[i].Id < out[j].Id
	})
	return out
}
