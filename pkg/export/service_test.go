package export

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/snapshot"
	"github.com/NotCoffee418/esp32_power_tracker/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testReport(logs string) Report {
	model := snapshot.New(2, 8)
	model.Apply([]types.ChannelReading{{Id: 1, Voltage: 230, Power: 100, Relay: true}})
	return Report{
		Logs:  json.RawMessage(logs),
		State: model.State(),
		Notifications: []types.Notification{
			{Timestamp: 60, Text: "newest"},
			{Timestamp: 0, Text: "oldest"},
		},
		GeneratedAt: time.Unix(0, 0),
		Location:    time.UTC,
	}
}

func open(t *testing.T, data []byte) *excelize.File {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestWorkbookTabulatesLogs(t *testing.T) {
	data, err := Workbook(testReport(`{"unitPrice":8,"hourly":[{"id":1,"avgPower":10},{"id":2,"note":"x"}]}`))
	require.NoError(t, err)
	f := open(t, data)

	assert.Equal(t, []string{LogsSheet, ReadingsSheet, NotificationsSheet}, f.GetSheetList())

	rows, err := f.GetRows(LogsSheet)
	require.NoError(t, err)
	assert.Equal(t, Title, rows[0][0])
	assert.Equal(t, []string{"Generated", "01/01/1970, 00:00:00"}, rows[1])
	assert.Equal(t, []string{"avgPower", "id", "note"}, rows[3])
	assert.Equal(t, []string{"10", "1"}, rows[4])
	assert.Equal(t, []string{"", "2", "x"}, rows[5])
}

func TestWorkbookKeepsOpaqueLogsAsText(t *testing.T) {
	data, err := Workbook(testReport(`{"status":"ok"}`))
	require.NoError(t, err)
	f := open(t, data)

	value, err := f.GetCellValue(LogsSheet, "A4")
	require.NoError(t, err)
	assert.Equal(t, `{"status":"ok"}`, value)
}

func TestWorkbookReadingsAndNotifications(t *testing.T) {
	data, err := Workbook(testReport(`[]`))
	require.NoError(t, err)
	f := open(t, data)

	rows, err := f.GetRows(ReadingsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"Load 1", "230", "0", "100", "0", "ON"}, rows[1])
	assert.Equal(t, []string{"Load 2", "0", "0", "0", "0", "OFF"}, rows[2])
	assert.Equal(t, "Total", rows[3][0])

	rows, err = f.GetRows(NotificationsSheet)
	require.NoError(t, err)
	assert.Equal(t, []string{"01/01/1970, 00:01:00", "newest"}, rows[1])
	assert.Equal(t, []string{"01/01/1970, 00:00:00", "oldest"}, rows[2])
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.xlsx")
	require.NoError(t, WriteFile(path, testReport(`{}`)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 3)
}
