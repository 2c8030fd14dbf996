package console

import (
	"testing"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		line     string
		expected dashboard.Intent
	}{
		{"relay 1 on", dashboard.ToggleRelay{Id: 1, On: true}},
		{"RELAY 3 off", dashboard.ToggleRelay{Id: 3, On: false}},
		{"timer 2 15", dashboard.SetTimer{Id: 2, Minutes: "15"}},
		{"timer 2", dashboard.SetTimer{Id: 2}},
		{"timer 2 -5", dashboard.SetTimer{Id: 2, Minutes: "-5"}},
		{"preset 60", dashboard.PresetTimer{Minutes: "60"}},
		{"limits 1 2.5", dashboard.SetLimits{Hours: []string{"1", "2.5"}}},
		{"limits", dashboard.SetLimits{Hours: []string{}}},
		{"price 9.25", dashboard.SetPrice{Price: "9.25"}},
		{"price", dashboard.SetPrice{}},
		{"clear", dashboard.ClearNotifications{}},
		{"  refresh  ", dashboard.RefreshNotifications{}},
		{"export out.xlsx", dashboard.ExportLogs{Path: "out.xlsx"}},
		{"export out", dashboard.ExportLogs{Path: "out.xlsx"}},
		{"show", Show{}},
		{"quit", Quit{}},
		{"exit", Quit{}},
		{"help", Help{}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = Parse("dance")
	assert.ErrorIs(t, err, ErrUnknownCommand)

	_, err = Parse("relay 1")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = Parse("export")
	assert.ErrorIs(t, err, ErrUsage)

	_, err = Parse("relay x on")
	assert.Error(t, err)

	_, err = Parse("relay 1 maybe")
	assert.Error(t, err)
}
