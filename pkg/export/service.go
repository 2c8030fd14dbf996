package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/projection"
	"github.com/xuri/excelize/v2"
)

// WriteFile renders r and stores it at path.
func WriteFile(path string, r Report) error {
	data, err := Workbook(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Workbook renders r as an xlsx document.
func Workbook(r Report) ([]byte, error) {
	if r.Location == nil {
		r.Location = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", LogsSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{ReadingsSheet, NotificationsSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := writeLogs(f, r, headerStyle); err != nil {
		return nil, err
	}
	if err := writeReadings(f, r, headerStyle); err != nil {
		return nil, err
	}
	if err := writeNotifications(f, r, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeLogs(f *excelize.File, r Report, headerStyle int) error {
	if err := setRow(f, LogsSheet, 1, []any{Title}); err != nil {
		return err
	}
	if err := setRow(f, LogsSheet, 2, []any{"Generated", r.GeneratedAt.In(r.Location).Format(projection.NotificationTimeLayout)}); err != nil {
		return err
	}

	headers, rows, ok := tabulate(r.Logs)
	if !ok {
		// Not tabular, keep the document as text.
		return setRow(f, LogsSheet, 4, []any{string(r.Logs)})
	}

	if err := setHeader(f, LogsSheet, 4, headers, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, LogsSheet, 5+i, row); err != nil {
			return err
		}
	}
	return nil
}

func writeReadings(f *excelize.File, r Report, headerStyle int) error {
	headers := []string{"Load", "Voltage (V)", "Current (A)", "Power (W)", "Energy (Wh)", "State"}
	if err := setHeader(f, ReadingsSheet, 1, headers, headerStyle); err != nil {
		return err
	}
	row := 2
	for _, c := range r.State.Channels {
		values := []any{fmt.Sprintf("Load %d", c.Id), c.Voltage, c.Current, c.Power, c.Energy, projection.RelayText(c.Relay)}
		if err := setRow(f, ReadingsSheet, row, values); err != nil {
			return err
		}
		row++
	}
	t := r.State.Totals
	if err := setRow(f, ReadingsSheet, row, []any{"Total", t.Voltage, t.Current, t.Power, t.Energy}); err != nil {
		return err
	}
	return setRow(f, ReadingsSheet, row+2, []any{"Unit price", r.State.UnitPrice})
}

func writeNotifications(f *excelize.File, r Report, headerStyle int) error {
	if err := setHeader(f, NotificationsSheet, 1, []string{"Time", "Text"}, headerStyle); err != nil {
		return err
	}
	for i, n := range r.Notifications {
		when := time.Unix(n.Timestamp, 0).In(r.Location).Format(projection.NotificationTimeLayout)
		if err := setRow(f, NotificationsSheet, 2+i, []any{when, n.Text}); err != nil {
			return err
		}
	}
	return nil
}

// tabulate finds a list of objects in doc: doc itself, or the first
// (by key order) array of objects inside a top-level object.
func tabulate(doc json.RawMessage) ([]string, [][]any, bool) {
	var v any
	if err := json.Unmarshal(doc, &v); err != nil {
		return nil, nil, false
	}

	var list []any
	switch d := v.(type) {
	case []any:
		list = d
	case map[string]any:
		keys := sortedKeys(d)
		for _, k := range keys {
			if l, ok := d[k].([]any); ok && allObjects(l) && len(l) > 0 {
				list = l
				break
			}
		}
	}
	if len(list) == 0 || !allObjects(list) {
		return nil, nil, false
	}

	seen := map[string]bool{}
	var headers []string
	for _, item := range list {
		for k := range item.(map[string]any) {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	sort.Strings(headers)

	rows := make([][]any, 0, len(list))
	for _, item := range list {
		obj := item.(map[string]any)
		row := make([]any, len(headers))
		for i, h := range headers {
			row[i] = cellValue(obj[h])
		}
		rows = append(rows, row)
	}
	return headers, rows, true
}

func allObjects(list []any) bool {
	for _, item := range list {
		if _, ok := item.(map[string]any); !ok {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cellValue(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string, float64, bool:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func setHeader(f *excelize.File, sheet string, row int, headers []string, style int) error {
	values := make([]any, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := setRow(f, sheet, row, values); err != nil {
		return err
	}
	first, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), row)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for col, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
