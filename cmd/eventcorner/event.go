package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/harunnryd/eventcorner/internal/eventform"
	"github.com/harunnryd/eventcorner/internal/render"

	"github.com/spf13/cobra"
)

const eventEditHelp = `Commands:
  /show                          show the draft
  /set <field> <value>           set a field (blank value clears it)
  /tag add|rm <tag>
  /slot add <title> <start> <end>
  /slot rm <n>
  /info add <key> <value>
  /info rm <n>
  /submit                        save the event
  /exit                          leave without saving`

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Manage events",
}

var eventEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit one of your events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseOutputFormat(formatFlag(cmd))
		if err != nil {
			return err
		}
		formatter, err := render.NewFormatter(format)
		if err != nil {
			return err
		}

		client, ac, err := newBackendClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		form, err := eventform.NewSession(eventform.Options{
			Store:    client,
			Notifier: render.NewNotifier(cmd.ErrOrStderr()),
			Navigator: eventform.NavigatorFunc(func(_ context.Context, route string) {
				fmt.Fprintf(out, "→ %s\n", route)
			}),
			Auth:            ac,
			EventID:         args[0],
			DefaultTimezone: cfg.Form.DefaultTimezone,
			AbortRoute:      cfg.Form.AbortRoute,
			DetailRoute:     cfg.Form.DetailRoute,
		})
		if err != nil {
			return err
		}
		if err := form.Load(cmd.Context()); err != nil {
			return err
		}

		r := &formREPL{form: form, formatter: formatter, out: out}
		if err := r.show(); err != nil {
			return err
		}
		fmt.Fprintln(out, eventEditHelp)
		return runREPL(cmd.Context(), cmd.InOrStdin(), out, r.handle)
	},
}

type formREPL struct {
	form      *eventform.Session
	formatter render.EventFormatter
	out       io.Writer
}

func (r *formREPL) show() error {
	rendered, err := r.formatter.FormatDraft(r.form.Snapshot())
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, rendered)
	return nil
}

func (r *formREPL) handle(ctx context.Context, line string) (bool, error) {
	c, isCmd, err := parseCommand(line)
	if err != nil {
		return false, err
	}
	if !isCmd {
		return false, fmt.Errorf("type a command; /exit to leave")
	}

	switch c.name {
	case "/show":
		return false, r.show()
	case "/set":
		if len(c.args) < 1 {
			return false, usageError("/set <field> <value>")
		}
		return false, r.form.Set(c.args[0], strings.Join(c.args[1:], " "))
	case "/tag":
		return false, r.tag(c.args)
	case "/slot":
		return false, r.slot(c.args)
	case "/info":
		return false, r.info(c.args)
	case "/submit":
		if err := r.form.Submit(ctx); err != nil {
			return false, err
		}
		return true, nil
	case "/exit", "/quit":
		if r.form.Dirty() {
			fmt.Fprintln(r.out, "Unsaved changes discarded.")
		}
		return true, nil
	case "/help":
		fmt.Fprintln(r.out, eventEditHelp)
		return false, nil
	default:
		return false, fmt.Errorf("unknown command %s", c.name)
	}
}

func (r *formREPL) tag(args []string) error {
	if len(args) < 2 {
		return usageError("/tag add|rm <tag>")
	}
	tag := strings.Join(args[1:], " ")
	switch args[0] {
	case "add":
		return r.form.AddTag(tag)
	case "rm":
		return r.form.RemoveTag(tag)
	default:
		return usageError("/tag add|rm <tag>")
	}
}

func (r *formREPL) slot(args []string) error {
	if len(args) == 0 {
		return usageError("/slot add <title> <start> <end> | /slot rm <n>")
	}
	switch args[0] {
	case "add":
		if len(args) != 4 {
			return usageError("/slot add <title> <start> <end>")
		}
		_, err := r.form.AddTimeslot(eventform.Timeslot{Title: args[1], Start: args[2], End: args[3]})
		return err
	case "rm":
		slots := r.form.Snapshot().Draft.Timeslots
		i, err := listIndex(args, len(slots))
		if err != nil {
			return err
		}
		return r.form.RemoveTimeslot(slots[i].ID)
	default:
		return usageError("/slot add <title> <start> <end> | /slot rm <n>")
	}
}

func (r *formREPL) info(args []string) error {
	if len(args) == 0 {
		return usageError("/info add <key> <value> | /info rm <n>")
	}
	switch args[0] {
	case "add":
		if len(args) < 3 {
			return usageError("/info add <key> <value>")
		}
		_, err := r.form.AddInfo(args[1], strings.Join(args[2:], " "))
		return err
	case "rm":
		entries := r.form.Snapshot().Draft.AdditionalInfo
		i, err := listIndex(args, len(entries))
		if err != nil {
			return err
		}
		return r.form.RemoveInfo(entries[i].ID)
	default:
		return usageError("/info add <key> <value> | /info rm <n>")
	}
}

// listIndex parses the 1-based position in args[1].
func listIndex(args []string, n int) (int, error) {
	if len(args) != 2 {
		return 0, usageError(args[0] + " <n>")
	}
	i, err := strconv.Atoi(args[1])
	if err != nil || i < 1 || i > n {
		return 0, fmt.Errorf("no entry %s (have %d)", args[1], n)
	}
	return i - 1, nil
}

func init() {
	eventEditCmd.Flags().StringP("format", "f", string(render.OutputFormatTable), "draft format (table, json, yaml)")
	eventCmd.AddCommand(eventEditCmd)
	rootCmd.AddCommand(eventCmd)
}
