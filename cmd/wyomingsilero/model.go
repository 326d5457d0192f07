package main

import "github.com/spf13/cobra"

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Model catalog and package commands",
	}

	cmd.AddCommand(newModelDownloadCmd())
	cmd.AddCommand(newModelListCmd())
	return cmd
}
