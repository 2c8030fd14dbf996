package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/NotCoffee418/esp32_power_tracker/pkg/dashboard"
)

var (
	ErrEmpty          = errors.New("empty line")
	ErrUnknownCommand = errors.New("unknown command")
	ErrUsage          = errors.New("usage")
)

// Show prints the latest view.
type Show struct{}

// Quit ends the session.
type Quit struct{}

// Help lists the commands.
type Help struct{}

func (Show) Name() string { return "show" }
func (Quit) Name() string { return "quit" }
func (Help) Name() string { return "help" }

const Usage = `Commands:
  relay <id> on|off       switch a load
  timer <id> [minutes]    arm the shutoff timer, 0 disarms, empty uses the preset
  preset <minutes>        fill the timer field
  limits <h1> .. <hN>     per-load limits in hours, missing values use the default
  price <value>           set the unit price
  clear                   clear notifications
  refresh                 reload notifications
  export <file.xlsx>      export logs to a workbook
  show                    print the dashboard
  quit                    exit
`

// Parse turns one console line into an intent. Numeric fields are passed on
// raw; the dashboard applies the defaulting rules.
func Parse(line string) (dashboard.Intent, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, ErrEmpty
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "relay":
		if len(args) != 2 {
			return nil, usage("relay <id> on|off")
		}
		id, err := parseId(args[0])
		if err != nil {
			return nil, err
		}
		on, err := parseOnOff(args[1])
		if err != nil {
			return nil, err
		}
		return dashboard.ToggleRelay{Id: id, On: on}, nil
	case "timer":
		if len(args) < 1 || len(args) > 2 {
			return nil, usage("timer <id> [minutes]")
		}
		id, err := parseId(args[0])
		if err != nil {
			return nil, err
		}
		in := dashboard.SetTimer{Id: id}
		if len(args) == 2 {
			in.Minutes = args[1]
		}
		return in, nil
	case "preset":
		if len(args) != 1 {
			return nil, usage("preset <minutes>")
		}
		return dashboard.PresetTimer{Minutes: args[0]}, nil
	case "limits", "limit":
		return dashboard.SetLimits{Hours: args}, nil
	case "price":
		in := dashboard.SetPrice{}
		if len(args) > 0 {
			in.Price = args[0]
		}
		return in, nil
	case "clear":
		return dashboard.ClearNotifications{}, nil
	case "refresh":
		return dashboard.RefreshNotifications{}, nil
	case "export":
		if len(args) != 1 {
			return nil, usage("export <file.xlsx>")
		}
		path := args[0]
		if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
			path += ".xlsx"
		}
		return dashboard.ExportLogs{Path: path}, nil
	case "show":
		return Show{}, nil
	case "quit", "exit":
		return Quit{}, nil
	case "help", "?":
		return Help{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}

func usage(s string) error {
	return fmt.Errorf("%w: %s", ErrUsage, s)
}

func parseId(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid load id %q", raw)
	}
	return id, nil
}

func parseOnOff(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("invalid relay state %q, want on or off", raw)
}
