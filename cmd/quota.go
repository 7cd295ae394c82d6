package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/sesrelay/internal/config"
	"github.com/shaharia-lab/sesrelay/internal/service"
)

// NewQuotaCmd returns the "quota" subcommand that shows the SES send quota
// and the rate sends will use.
func NewQuotaCmd(cfg *config.AppConfig) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "quota",
		Short: "Show the SES send quota and effective send rate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			if refresh {
				if _, err := a.quota.Refresh(cmd.Context()); err != nil {
					return err
				}
			}
			report, err := a.quota.Report(cmd.Context())
			if err != nil {
				return err
			}
			printQuotaReport(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "rediscover the send rate from SES and update the cache first")
	return cmd
}

func printQuotaReport(w io.Writer, r *service.QuotaReport) {
	fmt.Fprintln(w, titleStyle.Render("SES quota ("+r.Region+")"))
	if r.Quota != nil {
		fmt.Fprintln(w, row("Sending", r.Quota.SendingEnabled))
		fmt.Fprintln(w, row("Max send rate", fmt.Sprintf("%.2f/s", r.Quota.MaxSendRate)))
		fmt.Fprintln(w, row("24h quota", fmt.Sprintf("%.0f", r.Quota.Max24HourSend)))
		fmt.Fprintln(w, row("Sent last 24h", fmt.Sprintf("%.0f", r.Quota.SentLast24Hours)))
	} else {
		fmt.Fprintln(w, row("Quota", errStyle.Render(r.QuotaError)))
	}
	fmt.Fprintln(w, row("Effective rate", fmt.Sprintf("%d/s (%s)", r.EffectiveRate, r.RateSource)))
}
