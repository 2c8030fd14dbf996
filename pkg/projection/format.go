package projection

import (
	"strconv"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
)

// Layout used for notification times, e.g. 18/10/2026, 21:04:05.
const NotificationTimeLayout = "02/01/2006, 15:04:05"

// FormatValue renders v with a fixed number of decimals and a unit suffix.
func FormatValue(v float64, decimals int, unit string) string {
	if decimals < 0 {
		decimals = 0
	}
	return strconv.FormatFloat(v, 'f', decimals, 64) + " " + unit
}

func Voltage(v float64) string { return FormatValue(v, 2, "V") }
func Current(v float64) string { return FormatValue(v, 3, "A") }
func Power(v float64) string   { return FormatValue(v, 2, "W") }
func Energy(v float64) string  { return FormatValue(v, 2, "Wh") }

func RelayText(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func Price(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// NotificationLine renders one log entry in the given location.
func NotificationLine(n types.Notification, loc *time.Location) string {
	return time.Unix(n.Timestamp, 0).In(loc).Format(NotificationTimeLayout) + " - " + n.Text
}
