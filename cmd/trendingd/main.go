// trendingd serves the BuzzBlog trending service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/app"
	"github.com/buzzblog/buzzblog/internal/rpc"
	"github.com/buzzblog/buzzblog/internal/service/trending"
)

func main() {
	a := &app.App{
		Service:    "trending",
		NeedsHub:   true,
		NeedsRedis: true,
		NewProcessor: func(a *app.App) *rpc.ServiceProcessor {
			return api.NewTrendingProcessor(trending.New(a.Hub, a.Redis))
		},
	}
	cmd := &cobra.Command{
		Use:          "trendingd",
		Short:        "BuzzBlog trending service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Run(cmd.Context())
		},
	}
	a.Flags.BindCommon(cmd)
	a.Flags.BindMicroservicePool(cmd)
	a.Flags.BindRedis(cmd)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
