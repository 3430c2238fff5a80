// Package console provides the interactive command-line shell for the bus.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/nerrad567/gray-logic-systembus/internal/bus"
)

// Bus is the set of bus operations the shell drives.
// Both *bus.Bus and *bus.Synced satisfy it.
type Bus interface {
	AddDevice(id, address int) error
	WriteData(id, address, data int) error
	ReadData(id, address int) (int, error)
	RemoveData(id, address int) (int, error)
	Reset()
	Len() int
	Capacity() int
	Devices() []bus.Device
}

// Shell executes bus commands typed by an operator.
type Shell struct {
	bus      Bus
	setLevel func(string) error
}

// Option configures a Shell.
type Option func(*Shell)

// WithLogLevel enables the "log <level>" command, which passes the level
// name to set.
func WithLogLevel(set func(string) error) Option {
	return func(s *Shell) {
		s.setLevel = set
	}
}

// New creates a shell over b.
func New(b Bus, opts ...Option) *Shell {
	s := &Shell{bus: b}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the interactive command loop on the terminal.
// It returns when the operator exits, input ends or ctx is cancelled.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "bus> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(rl.Stdout(), helpText)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		out, exit := s.Execute(line)
		if out != "" {
			fmt.Fprintln(rl.Stdout(), out)
		}
		if exit {
			return nil
		}
	}
}

// Execute runs one command line and returns its output.
// The boolean is true when the operator asked to leave the shell.
func (s *Shell) Execute(line string) (string, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return "", false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		return helpText, false
	case "add", "a":
		return s.cmdAdd(args), false
	case "write", "w":
		return s.cmdWrite(args), false
	case "read", "r":
		return s.cmdRead(args), false
	case "remove", "rm":
		return s.cmdRemove(args), false
	case "list", "ls":
		return s.cmdList(), false
	case "reset":
		s.bus.Reset()
		return "Bus reset", false
	case "log":
		return s.cmdLog(args), false
	case "quit", "exit", "q":
		return "Exiting...", true
	default:
		return fmt.Sprintf("Unknown command: %s (type 'help' for commands)", cmd), false
	}
}

const helpText = `
System Bus Commands:
  add <id> <addr>            - Register a device
  write <id> <addr> <value>  - Store a data word
  read <id> <addr>           - Read a data word
  remove <id> <addr>         - Clear a device's data word
  list                       - List registered devices
  reset                      - Remove all devices
  log <level>                - Set log level (debug, info, warn, error)
  help                       - Show this help
  exit                       - Leave the shell

  Numbers are Go integer literals: decimal, 0x hex, 0o octal or 0b
  binary, with optional _ separators, e.g. add 1 0x10`

func (s *Shell) cmdAdd(args []string) string {
	nums, err := parseArgs(args, "add <id> <addr>")
	if err != nil {
		return err.Error()
	}
	if err := s.bus.AddDevice(nums[0], nums[1]); err != nil {
		return "Error: " + err.Error()
	}
	return fmt.Sprintf("Added device %d at 0x%02X (%d/%d)", nums[0], nums[1], s.bus.Len(), s.bus.Capacity())
}

func (s *Shell) cmdWrite(args []string) string {
	nums, err := parseArgs(args, "write <id> <addr> <value>")
	if err != nil {
		return err.Error()
	}
	if err := s.bus.WriteData(nums[0], nums[1], nums[2]); err != nil {
		return "Error: " + err.Error()
	}
	return "OK"
}

func (s *Shell) cmdRead(args []string) string {
	nums, err := parseArgs(args, "read <id> <addr>")
	if err != nil {
		return err.Error()
	}
	value, err := s.bus.ReadData(nums[0], nums[1])
	if err != nil {
		return "Error: " + err.Error()
	}
	return strconv.Itoa(value)
}

func (s *Shell) cmdRemove(args []string) string {
	nums, err := parseArgs(args, "remove <id> <addr>")
	if err != nil {
		return err.Error()
	}
	value, err := s.bus.RemoveData(nums[0], nums[1])
	if err != nil {
		return "Error: " + err.Error()
	}
	return strconv.Itoa(value)
}

func (s *Shell) cmdList() string {
	devices := s.bus.Devices()
	if len(devices) == 0 {
		return fmt.Sprintf("No devices (capacity %d)", s.bus.Capacity())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Devices (%d/%d):\n", len(devices), s.bus.Capacity())
	fmt.Fprintf(&sb, "  %-6s %-8s %s\n", "ID", "ADDRESS", "DATA")
	for _, d := range devices {
		fmt.Fprintf(&sb, "  %-6d 0x%-6X %d\n", d.ID, d.Address, d.Data)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (s *Shell) cmdLog(args []string) string {
	if s.setLevel == nil {
		return "Log level control is not available"
	}
	if len(args) != 1 {
		return "usage: log <level>"
	}
	if err := s.setLevel(args[0]); err != nil {
		return "Error: " + err.Error()
	}
	return "Log level set to " + strings.ToLower(args[0])
}

// parseArgs converts the arguments of a command to integers.
// The argument count must match the placeholders in usage.
func parseArgs(args []string, usage string) ([]int, error) {
	want := strings.Count(usage, "<")
	if len(args) != want {
		return nil, fmt.Errorf("usage: %s", usage)
	}

	nums := make([]int, len(args))
	for i, arg := range args {
		n, err := parseNumber(arg)
		if err != nil {
			return nil, err
		}
		nums[i] = n
	}
	return nums, nil
}

// parseNumber accepts Go integer literals: decimal, 0x hex, 0o octal and
// 0b binary, with optional _ digit separators.
func parseNumber(s string) (int, error) {
	n, err := strconv.ParseInt(s, 0, strconv.IntSize)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %q", s)
	}
	return int(n), nil
}
