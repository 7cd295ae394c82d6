package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/sesrelay/internal/config"
)

// Execute loads the configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := newRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:   "sesrelay",
		Short: "Bulk e-mail dispatch through Amazon SES",
		Long: `sesrelay sends bulk e-mail through the Amazon SES v2 API, paced to the
account send rate, and processes SES/SNS bounce and complaint webhooks into
do-not-contact records.`,
		SilenceUsage: true,
	}
	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewSendCmd(cfg))
	root.AddCommand(NewQuotaCmd(cfg))
	root.AddCommand(NewVersionCmd())
	return root
}
