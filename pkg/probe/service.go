package probe

import (
	"errors"
	"time"

	probing "github.com/prometheus-community/pro-bing"
)

var ErrNoResponse = errors.New("no response")

// Ping sends one unprivileged (UDP) echo to host.
func Ping(host string, timeout time.Duration) (bool, time.Duration, error) {
	pinger, err := probing.NewPinger(host)
	if err != nil {
		return false, 0, err
	}

	pinger.Count = 1
	pinger.Timeout = timeout
	pinger.SetPrivileged(false) // UDP-based, no root needed

	err = pinger.Run()
	if err != nil {
		return false, 0, err
	}

	stats := pinger.Statistics()
	if stats.PacketsRecv > 0 {
		return true, stats.AvgRtt, nil
	}

	return false, 0, ErrNoResponse
}
