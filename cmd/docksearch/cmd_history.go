package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codedock/docksearch/internal/history"
	"github.com/codedock/docksearch/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List saved search results",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewStore(historyDir)
		if err != nil {
			return err
		}
		records, err := store.List()
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("no saved searches")
			return nil
		}
		for _, r := range records {
			fmt.Printf("%s  %s  %-20s %s\n",
				shortID(r.ID), r.CompletedAt.Format("2006-01-02 15:04"), r.CodebaseName, r.Query)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one saved search result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewStore(historyDir)
		if err != nil {
			return err
		}
		record, err := loadByPrefix(store, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("codebase: %s\nquery:    %s\n\n", record.CodebaseName, record.Query)
		fmt.Println(render.ResultSummary(record.Result()))
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one saved search result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := history.NewStore(historyDir)
		if err != nil {
			return err
		}
		record, err := loadByPrefix(store, args[0])
		if err != nil {
			return err
		}
		return store.Delete(record.ID)
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// loadByPrefix resolves full ids as well as unambiguous id prefixes, the way
// they are printed by `docksearch history`.
func loadByPrefix(store *history.Store, id string) (history.Record, error) {
	record, err := store.Load(id)
	if err == nil {
		return record, nil
	}

	records, listErr := store.List()
	if listErr != nil {
		return history.Record{}, err
	}
	var match *history.Record
	for i := range records {
		if len(id) > 0 && len(records[i].ID) >= len(id) && records[i].ID[:len(id)] == id {
			if match != nil {
				return history.Record{}, fmt.Errorf("ambiguous record id prefix %q", id)
			}
			match = &records[i]
		}
	}
	if match == nil {
		return history.Record{}, err
	}
	return *match, nil
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}
