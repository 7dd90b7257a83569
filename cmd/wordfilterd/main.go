// wordfilterd serves the BuzzBlog wordfilter service.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/buzzblog/buzzblog/internal/api"
	"github.com/buzzblog/buzzblog/internal/app"
	"github.com/buzzblog/buzzblog/internal/rpc"
	"github.com/buzzblog/buzzblog/internal/service/wordfilter"
)

func main() {
	a := &app.App{
		Service: "wordfilter",
		NewProcessor: func(a *app.App) *rpc.ServiceProcessor {
			return api.NewWordfilterProcessor(wordfilter.New(a.Flags.NInvalidWords))
		},
	}
	cmd := &cobra.Command{
		Use:          "wordfilterd",
		Short:        "BuzzBlog wordfilter service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.Run(cmd.Context())
		},
	}
	a.Flags.BindCommon(cmd)
	a.Flags.BindWordfilter(cmd)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
