package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harunnryd/eventcorner/internal/auth"
	"github.com/harunnryd/eventcorner/internal/backend"

	"github.com/google/shlex"
	"github.com/spf13/cobra"
)

func requireConfig() error {
	if cfg == nil {
		return fmt.Errorf("config not loaded")
	}
	return nil
}

func loadAuth() (auth.Context, error) {
	if err := requireConfig(); err != nil {
		return auth.Anonymous, err
	}
	return auth.NewStore(cfg.Auth.SessionPath).Load()
}

// newBackendClient binds a backend client to the saved session.
func newBackendClient() (*backend.Client, auth.Context, error) {
	ac, err := loadAuth()
	if err != nil {
		return nil, auth.Anonymous, fmt.Errorf("failed to load session: %w", err)
	}
	client, err := backend.NewFromConfig(cfg.Backend, ac)
	if err != nil {
		return nil, auth.Anonymous, fmt.Errorf("failed to configure backend: %w", err)
	}
	return client, ac, nil
}

// command is one parsed slash command.
type command struct {
	name string
	args []string
}

// parseCommand splits a "/name arg..." line with shell quoting rules. Lines
// without a leading slash are plain messages.
func parseCommand(line string) (command, bool, error) {
	if !strings.HasPrefix(line, "/") {
		return command{}, false, nil
	}
	parts, err := shlex.Split(line)
	if err != nil {
		return command{}, true, fmt.Errorf("invalid command: %w", err)
	}
	if len(parts) == 0 {
		return command{}, true, fmt.Errorf("invalid command")
	}
	return command{name: strings.ToLower(parts[0]), args: parts[1:]}, true, nil
}

// lineHandler handles one input line and reports whether the loop is done.
type lineHandler func(ctx context.Context, line string) (done bool, err error)

// runREPL reads lines until the handler is done, input ends or ctx is
// cancelled. Handler errors are printed and the loop goes on.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, handle lineHandler) error {
	reader := bufio.NewReader(in)
	for {
		if ctx.Err() != nil {
			return nil
		}

		fmt.Fprint(out, "> ")
		text, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return err
		}
		eof := err == io.EOF

		if line := strings.TrimSpace(text); line != "" {
			done, herr := handle(ctx, line)
			if herr != nil {
				fmt.Fprintf(out, "error: %v\n", herr)
			}
			if done {
				return nil
			}
		}
		if eof {
			fmt.Fprintln(out)
			return nil
		}
	}
}

func usageError(usage string) error {
	return fmt.Errorf("usage: %s", usage)
}

func formatFlag(cmd *cobra.Command) string {
	format, _ := cmd.Flags().GetString("format")
	return format
}
