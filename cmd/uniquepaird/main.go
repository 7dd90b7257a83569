// uniquepaird serves the BuzzBlog uniquepair service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/app"
	"github.com/buzzblog/buzzblog/internal/rpc"
	"github.com/buzzblog/buzzblog/internal/service/uniquepair"
)

func main() {
	a := &app.App{
		Service: "uniquepair",
		NeedsDB: true,
		NewProcessor: func(a *app.App) *rpc.ServiceProcessor {
			return api.NewUniquepairProcessor(uniquepair.New(a.DB))
		},
	}
	cmd := &cobra.Command{
		Use:          "uniquepaird",
		Short:        "BuzzBlog uniquepair service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Run(cmd.Context())
		},
	}
	a.Flags.BindCommon(cmd)
	a.Flags.BindPostgresPool(cmd)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
