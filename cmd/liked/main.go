// liked serves the BuzzBlog like service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/app"
	"github.com/buzzblog/buzzblog/internal/rpc"
	"github.com/buzzblog/buzzblog/internal/service/like"
)

func main() {
	a := &app.App{
		Service:  "like",
		NeedsHub: true,
		NewProcessor: func(a *app.App) *rpc.ServiceProcessor {
			return api.NewLikeProcessor(like.New(a.Hub))
		},
	}
	cmd := &cobra.Command{
		Use:          "liked",
		Short:        "BuzzBlog like service",
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
