// Package cli parses the eloq command line.
package cli

import (
	"errors"
	"fmt"
	"strings"
)

type Command string

const (
	CommandAssess  Command = "assess"
	CommandHistory Command = "history"
	CommandExport  Command = "export"
	CommandDevices Command = "devices"
	CommandStatus  Command = "status"
	CommandStop    Command = "stop"
	CommandCancel  Command = "cancel"
	CommandDoctor  Command = "doctor"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

var validCommands = map[Command]struct{}{
	CommandAssess:  {},
	CommandHistory: {},
	CommandExport:  {},
	CommandDevices: {},
	CommandStatus:  {},
	CommandStop:    {},
	CommandCancel:  {},
	CommandDoctor:  {},
	CommandVersion: {},
	CommandHelp:    {},
}

// commandsWithArg take exactly one positional argument.
var commandsWithArg = map[Command]string{
	CommandExport: "report id or 'last'",
}

type Parsed struct {
	Command    Command
	Arg        string
	ConfigPath string
	ShowHelp   bool
}

func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true}

	for i := 0; i < len(args); i++ {
		arg := args[i]

		switch arg {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			i++
			if i >= len(args) {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = args[i]
		default:
			if strings.HasPrefix(arg, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", arg)
			}

			cmd := Command(arg)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", arg)
			}

			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp

			if hint, needsArg := commandsWithArg[cmd]; needsArg {
				i++
				if i >= len(args) {
					return Parsed{}, fmt.Errorf("%s requires an argument: %s", cmd, hint)
				}
				parsed.Arg = args[i]
			}

			if i != len(args)-1 {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", arg)
			}
		}
	}

	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] <command>

Commands:
  assess         Run an interactive assessment session
  history        Show past sessions and final reports
  export ID      Download a report document (ID or 'last')
  devices        List available capture devices
  status         Print the state of a running session
  stop           Stop and submit the active recording
  cancel         Cancel the active recording and discard it
  doctor         Run configuration and environment checks
  version        Print version information
  help           Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/eloq/config.conf)
  -h, --help      Show help
  --version       Show version
`, binaryName)
}
