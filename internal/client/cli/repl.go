package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/cryptoex/internal/session"
)

// router answers whether a screen may be shown in the current session.
type router interface {
	Route(screen session.Screen) session.Decision
}

// command is one REPL verb. An empty screen means the command is always
// available.
type command struct {
	screen session.Screen
	usage  string
	run    func(ctx context.Context, args []string) error
}

// runREPL reads commands line by line and dispatches them. Every command is
// checked against r first; a command whose screen is not reachable prints
// where the user has to go instead. The loop exits on EOF, "exit"/"quit" or
// cancellation of ctx.
func runREPL(ctx context.Context, r router, cmds map[string]command, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for ctx.Err() == nil {
		fmt.Fprintf(w, "cx %s> ", statusFn())
		line, err := reader.ReadString('\n')
		eof := err != nil

		parts := strings.Fields(line)
		if len(parts) == 0 {
			if eof {
				return
			}
			continue
		}
		name, args := parts[0], parts[1:]

		switch name {
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		case "help":
			printHelp(w, r, cmds)
		default:
			dispatch(ctx, w, r, cmds, name, args)
		}

		if eof {
			return
		}
	}
}

func dispatch(ctx context.Context, w io.Writer, r router, cmds map[string]command, name string, args []string) {
	cmd, ok := cmds[name]
	if !ok {
		fmt.Fprintf(w, "Unknown command: %s (type 'help')\n", name)
		return
	}
	if cmd.screen != "" {
		if d := r.Route(cmd.screen); d != session.Render {
			fmt.Fprintln(w, denied(d))
			return
		}
	}
	if err := cmd.run(ctx, args); err != nil {
		fmt.Fprintf(w, "error: %v\n", err)
	}
}

func denied(d session.Decision) string {
	switch d {
	case session.Placeholder:
		return "Session is still loading, try again in a moment."
	case session.RedirectPin:
		return "Verify your PIN first: pin"
	case session.RedirectDashboard:
		return "Already verified, try: portfolio"
	default:
		return "Sign in first: signin or signup"
	}
}

// printHelp lists the commands reachable right now.
func printHelp(w io.Writer, r router, cmds map[string]command) {
	names := make([]string, 0, len(cmds))
	for name, cmd := range cmds {
		if cmd.screen == "" || r.Route(cmd.screen) == session.Render {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Available commands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-10s %s\n", name, cmds[name].usage)
	}
	fmt.Fprintf(w, "  %-10s %s\n", "help", "show this list")
	fmt.Fprintf(w, "  %-10s %s\n", "exit", "leave the program")
}
