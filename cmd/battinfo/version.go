package main

import (
	"github.com/spf13/cobra"

	"github.com/charlie0129/battinfo/pkg/client"
	"github.com/charlie0129/battinfo/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)

			if daemonSocket == "" {
				return nil
			}
			v, err := client.NewClient(daemonSocket).GetVersion()
			if err != nil {
				return err
			}
			cmd.Printf("daemon: %s %s\n", v.Version, v.Commit)
			return nil
		},
	}
}
