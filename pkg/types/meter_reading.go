package types

// One monitored load. Id is 1..N and stable for the session.
type ChannelReading struct {
	Id      int     `json:"id"`
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
	Power   float64 `json:"power"`
	Energy  float64 `json:"energy"`
	Relay   bool    `json:"relay"`
}

// Sums over the channels present in a single snapshot.
type AggregateTotals struct {
	Voltage float64 `json:"voltage"`
	Current float64 `json:"current"`
	Power   float64 `json:"power"`
	Energy  float64 `json:"energy"`
}

func (t *AggregateTotals) Add(r ChannelReading) {
	t.Voltage += r.Voltage
	t.Current += r.Current
	t.Power += r.Power
	t.Energy += r.Energy
}

// Timestamp is seconds since epoch.
type Notification struct {
	Timestamp int64  `json:"ts"`
	Text      string `json:"text"`
}

type Settings struct {
	UnitPrice float64 `json:"unitPrice"`
}
