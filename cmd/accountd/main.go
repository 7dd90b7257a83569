// accountd serves the BuzzBlog account service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/app"
	"github.com/buzzblog/buzzblog/internal/rpc"
	"github.com/buzzblog/buzzblog/internal/service/account"
)

func main() {
	a := &app.App{
		Service:  "account",
		NeedsHub: true,
		NeedsDB:  true,
		NewProcessor: func(a *app.App) *rpc.ServiceProcessor {
			return api.NewAccountProcessor(account.New(a.DB, a.Hub))
		},
	}
	cmd := &cobra.Command{
		Use:          "accountd",
		Short:        "BuzzBlog account service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Run(cmd.Context())
		},
	}
	a.Flags.BindCommon(cmd)
	a.Flags.BindMicroservicePool(cmd)
	a.Flags.BindPostgresPool(cmd)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
