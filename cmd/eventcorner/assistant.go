package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/harunnryd/eventcorner/internal/eventdata"
	"github.com/harunnryd/eventcorner/internal/extraction"
	"github.com/harunnryd/eventcorner/internal/pathutil"
	"github.com/harunnryd/eventcorner/internal/render"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var assistantCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Create an event by talking to the assistant",
	Long:  `Describe your event in plain words; the assistant asks for what is missing until the details are complete.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := render.ParseOutputFormat(formatFlag(cmd))
		if err != nil {
			return err
		}
		formatter, err := render.NewFormatter(format)
		if err != nil {
			return err
		}
		outFlag, _ := cmd.Flags().GetString("out")
		outPath, err := pathutil.Expand(outFlag)
		if err != nil {
			return fmt.Errorf("invalid --out path: %w", err)
		}

		client, ac, err := newBackendClient()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		r := &assistantREPL{out: out, formatter: formatter, outPath: outPath}
		sess, err := extraction.NewSession(extraction.Options{
			Extractor: client,
			Notifier:  render.NewNotifier(cmd.ErrOrStderr()),
			OnAccept:  r.accept,
			Auth:      ac,
		})
		if err != nil {
			return err
		}
		r.session = sess
		defer sess.Close()

		fmt.Fprintln(out, render.Transcript(sess.Snapshot().Turns, render.TurnOptions{}))
		fmt.Fprintln(out, "Commands: /preview, /set <field> <value>, /accept, /exit")
		if err := runREPL(cmd.Context(), cmd.InOrStdin(), out, r.handle); err != nil {
			return err
		}
		return r.acceptErr
	},
}

type assistantREPL struct {
	session   *extraction.Session
	formatter render.EventFormatter
	out       io.Writer
	outPath   string
	acceptErr error
}

func (r *assistantREPL) handle(ctx context.Context, line string) (bool, error) {
	c, isCmd, err := parseCommand(line)
	if err != nil {
		return false, err
	}
	if !isCmd {
		return false, r.send(ctx, line)
	}

	switch c.name {
	case "/preview":
		preview, err := r.formatter.FormatEvent(r.session.Snapshot().LatestExtracted)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, preview)
		return false, nil
	case "/set":
		if len(c.args) < 2 {
			return false, usageError("/set <field> <value>")
		}
		return false, r.session.UpdatePreview(c.args[0], eventdata.ParseText(strings.Join(c.args[1:], " ")))
	case "/accept":
		if !r.session.AcceptExtractedData() {
			return false, fmt.Errorf("nothing to accept yet; keep describing your event")
		}
		return true, nil
	case "/exit", "/quit":
		r.session.Close()
		return true, nil
	default:
		return false, fmt.Errorf("unknown command %s", c.name)
	}
}

func (r *assistantREPL) send(ctx context.Context, text string) error {
	if _, err := r.session.SendUserMessage(ctx, text); err != nil {
		return err
	}
	turns := r.session.Snapshot().Turns
	fmt.Fprintln(r.out, render.Turn(turns[len(turns)-1], render.TurnOptions{}))
	return nil
}

// accept writes the accepted object to the output file, or prints it.
func (r *assistantREPL) accept(data *eventdata.Object) {
	rendered, err := r.formatter.FormatEvent(data)
	if err != nil {
		r.acceptErr = fmt.Errorf("failed to render accepted event: %w", err)
		return
	}
	if r.outPath == "" {
		fmt.Fprintln(r.out, rendered)
		return
	}
	if err := atomic.WriteFile(r.outPath, strings.NewReader(rendered+"\n")); err != nil {
		r.acceptErr = fmt.Errorf("failed to write %s: %w", r.outPath, err)
		return
	}
	fmt.Fprintf(r.out, "✓ Event details written to %s\n", r.outPath)
}

func init() {
	assistantCmd.Flags().StringP("out", "o", "", "write the accepted event to this file")
	assistantCmd.Flags().StringP("format", "f", string(render.OutputFormatJSON), "output format (table, json, yaml)")
	rootCmd.AddCommand(assistantCmd)
}
