package cli

import (
	"github.com/sangkips/clinic-ledger-api/internal/config"
	"github.com/spf13/cobra"
)

// configLoader is swapped in tests
type configLoader func() *config.Config

func newRootCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Clinic payment voucher ledger",
		Long:          "Records clinic payment vouchers, keeps treatment service balances in sync and serves the cashier API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd(load))
	cmd.AddCommand(newMigrateCmd(load))
	cmd.AddCommand(newSeedCmd(load))
	cmd.AddCommand(newUserCmd(load))
	return cmd
}

// NewRootCmdForTest returns the root command for testing.
func NewRootCmdForTest(cfg *config.Config) *cobra.Command {
	return newRootCmd(func() *config.Config { return cfg })
}

func Execute() error {
	return newRootCmd(config.Load).Execute()
}
