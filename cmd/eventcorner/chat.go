package main

import (
	"context"
	"fmt"
	"io"

	"github.com/harunnryd/eventcorner/internal/render"
	"github.com/harunnryd/eventcorner/internal/widget"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Open the dashboard chat widget",
	Long:  `Chat with the Event Corner assistant. The widget is only available to logged-in users on dashboard routes; elsewhere this command prints nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		route, _ := cmd.Flags().GetString("route")
		timestamps, _ := cmd.Flags().GetBool("timestamps")

		client, ac, err := newBackendClient()
		if err != nil {
			return err
		}

		w, ok := widget.Mount(cmd.Context(), route, widget.Options{
			Chatter:     client,
			Notifier:    render.NewNotifier(cmd.ErrOrStderr()),
			Auth:        ac,
			Visibility:  widget.NewVisibility(cfg.Widget.RoutePrefixes),
			ChatContext: cfg.Backend.ChatContext,
		})
		if !ok {
			return nil
		}
		defer w.Close()

		out := cmd.OutOrStdout()
		r := &chatREPL{widget: w, out: out, opts: render.TurnOptions{Timestamps: timestamps}}
		fmt.Fprintln(out, render.Launcher())
		w.Open()
		fmt.Fprintln(out, render.Transcript(w.Snapshot().Turns, r.opts))
		return runREPL(cmd.Context(), cmd.InOrStdin(), out, r.handle)
	},
}

type chatREPL struct {
	widget *widget.Session
	out    io.Writer
	opts   render.TurnOptions
}

func (r *chatREPL) handle(ctx context.Context, line string) (bool, error) {
	c, isCmd, err := parseCommand(line)
	if err != nil {
		return false, err
	}
	if isCmd {
		switch c.name {
		case "/exit", "/quit", "/close":
			r.widget.Close()
			return true, nil
		default:
			return false, fmt.Errorf("unknown command %s", c.name)
		}
	}

	if err := r.widget.Send(ctx, line); err != nil {
		return false, err
	}
	turns := r.widget.Snapshot().Turns
	fmt.Fprintln(r.out, render.Turn(turns[len(turns)-1], r.opts))
	return false, nil
}

func init() {
	chatCmd.Flags().String("route", "/dashboard", "route the widget is mounted on")
	chatCmd.Flags().Bool("timestamps", true, "show message times")
	rootCmd.AddCommand(chatCmd)
}
