package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/sesrelay/internal/config"
	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/service"
)

// errPartialFailure makes the send command exit non-zero when some
// recipients were rejected.
var errPartialFailure = errors.New("some recipients were not accepted")

// NewSendCmd returns the "send" subcommand that dispatches one message file.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var (
		file     string
		retryOut string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send one message described by a JSON file",
		Long: `Send a message through SES. The file holds the message as JSON (use "-"
for stdin). When some recipients fail, --retry-out receives the message
narrowed to the failed recipients, ready to be sent again.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			msg, err := readMessage(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}

			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			report, err := a.sends.Send(cmd.Context(), msg)
			if err != nil {
				return err
			}
			printSendReport(cmd.OutOrStdout(), report)

			if !report.PartialFailure() {
				return nil
			}
			if retryOut != "" {
				if err := writeMessage(retryOut, report.Retry); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), warnStyle.Render("retry message written to "+retryOut))
			}
			return errPartialFailure
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", `message JSON file, or "-" for stdin`)
	cmd.Flags().StringVar(&retryOut, "retry-out", "", "write the narrowed message here on partial failure")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readMessage(stdin io.Reader, path string) (*mail.Message, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path) //nolint:gosec // operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("opening message file: %w", err)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}
	var msg mail.Message
	if err := json.NewDecoder(r).Decode(&msg); err != nil {
		return nil, fmt.Errorf("decoding message: %w", err)
	}
	return &msg, nil
}

func writeMessage(path string, msg *mail.Message) error {
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding retry message: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing retry message: %w", err)
	}
	return nil
}

func printSendReport(w io.Writer, r *service.SendReport) {
	status := okStyle.Render("ok")
	if r.PartialFailure() {
		status = warnStyle.Render("partial failure")
	}
	lines := []string{
		titleStyle.Render("send " + r.ID),
		row("Status", status),
		row("Rate", fmt.Sprintf("%d/s", r.Rate)),
		row("Delivered", len(r.Delivered)),
		row("Suppressed", len(r.Suppressed)),
		row("Failed", len(r.Failed)),
	}
	for _, f := range r.Failed {
		lines = append(lines, "  "+errStyle.Render(f.Address)+" "+f.Reason)
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
