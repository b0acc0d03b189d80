package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codedock/docksearch/internal/dockclient"
)

var codebasesCmd = &cobra.Command{
	Use:   "codebases",
	Short: "List codebases registered with the dock server",
	RunE: func(cmd *cobra.Command, args []string) error {
		dock, err := dockclient.New(serverURL, nil)
		if err != nil {
			return err
		}
		codebases, err := dock.ListCodebases(cmd.Context())
		if err != nil {
			return err
		}
		if len(codebases) == 0 {
			fmt.Println("no codebases registered")
			return nil
		}
		for _, cb := range codebases {
			status := "not indexed"
			if cb.Indexed {
				status = "indexed"
			}
			if cb.IndexingStatus != "" {
				status = cb.IndexingStatus
			}
			fmt.Printf("%-30s %s\n", cb.Name, status)
		}
		return nil
	},
}

var codebasesIndexCmd = &cobra.Command{
	Use:   "index <name>",
	Short: "Trigger (re)indexing of a codebase",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dock, err := dockclient.New(serverURL, nil)
		if err != nil {
			return err
		}
		if err := dock.TriggerIndex(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("indexing of %q requested\n", args[0])
		return nil
	},
}

func init() {
	codebasesCmd.AddCommand(codebasesIndexCmd)
}
