package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"galaxytrade/internal/sim/economy"
)

const helpText = `
Commands:
 status                 Show current state
 produce                Run the forge once
 ship <amount>          Ship %[1]s to %[2]s
 tick <n>               Advance time
 help                   Show help
 quit                   Exit
`

// Shell is the interactive command surface over one engine.
type Shell struct {
	engine *economy.Engine
	out    io.Writer
	render Renderer

	// AfterCommand runs after every accepted produce or ship (may be nil).
	AfterCommand func()
}

func NewShell(e *economy.Engine, out io.Writer) *Shell {
	return &Shell{engine: e, out: out, render: NewRenderer(e.Params())}
}

func (s *Shell) Help() {
	fmt.Fprintf(s.out, helpText, s.render.Resource, s.render.To)
	fmt.Fprintln(s.out)
}

// Run reads commands line by line until quit, EOF, or ctx is done. A blocked
// read does not hold up cancellation.
func (s *Shell) Run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(s.out, "=== Galactic Trade Simulator ===")
	s.Help()

	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(s.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(s.out)
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(s.out)
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if quit := s.Exec(line); quit {
				return nil
			}
		}
	}
}

// Exec runs a single command line. It reports whether the shell should exit.
func (s *Shell) Exec(line string) bool {
	cmd := strings.Fields(line)
	if len(cmd) == 0 {
		return false
	}
	switch {
	case cmd[0] == "help":
		s.Help()
	case cmd[0] == "status":
		s.render.Status(s.out, s.engine.Snapshot())
	case cmd[0] == "produce" && len(cmd) == 1:
		s.render.Events(s.out, s.engine.Produce())
		s.afterCommand()
	case cmd[0] == "ship" && len(cmd) == 2:
		n, ok := s.parseInt(cmd[1])
		if !ok {
			return false
		}
		_, evs, err := s.engine.Ship(n)
		if err != nil {
			fmt.Fprintln(s.out, s.render.Error(err))
			return false
		}
		s.render.Events(s.out, evs)
		s.afterCommand()
	case cmd[0] == "tick" && len(cmd) == 2:
		n, ok := s.parseInt(cmd[1])
		if !ok {
			return false
		}
		if n < 0 || n > s.engine.Params().MaxAdvanceSteps {
			fmt.Fprintf(s.out, "Tick count must be between 0 and %d.\n", s.engine.Params().MaxAdvanceSteps)
			return false
		}
		fmt.Fprintf(s.out, "Advancing time by %d tick(s).\n", n)
		logs, err := s.engine.Advance(n)
		if err != nil {
			fmt.Fprintln(s.out, s.render.Error(err))
			return false
		}
		s.render.Ticks(s.out, logs)
	case cmd[0] == "quit" || cmd[0] == "exit":
		fmt.Fprintln(s.out, "Until next time, Space Cowboy.")
		return true
	default:
		fmt.Fprintln(s.out, "Unknown command. Type 'help'.")
	}
	return false
}

func (s *Shell) parseInt(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(s.out, "Not a number: %q\n", arg)
		return 0, false
	}
	return n, true
}

func (s *Shell) afterCommand() {
	if s.AfterCommand != nil {
		s.AfterCommand()
	}
}
