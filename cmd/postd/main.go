// postd serves the BuzzBlog post service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/app"
	"github.com/buzzblog/buzzblog/internal/rpc"
	"github.com/buzzblog/buzzblog/internal/service/post"
)

func main() {
	a := &app.App{
		Service:  "post",
		NeedsHub: true,
		NeedsDB:  true,
		NewProcessor: func(a *app.App) *rpc.ServiceProcessor {
			return api.NewPostProcessor(post.New(a.DB, a.Hub))
		},
	}
	cmd := &cobra.Command{
		Use:          "postd",
		Short:        "BuzzBlog post service",
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
