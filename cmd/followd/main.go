// followd serves the BuzzBlog follow service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/app"
	"github.com/buzzblog/buzzblog/internal/rpc"
	"github.com/buzzblog/buzzblog/internal/service/follow"
)

func main() {
	a := &app.App{
		Service:  "follow",
		NeedsHub: true,
		NewProcessor: func(a *app.App) *rpc.ServiceProcessor {
			return api.NewFollowProcessor(follow.New(a.Hub))
		},
	}
	cmd := &cobra.Command{
		Use:          "followd",
		Short:        "BuzzBlog follow service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Run(cmd.Context())
		},
	}
	a.Flags.BindCommon(cmd)
	a.Flags.BindMicroservicePool(cmd)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
