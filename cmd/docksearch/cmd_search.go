package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/codedock/docksearch/internal/dockclient"
	"github.com/codedock/docksearch/internal/domain"
	"github.com/codedock/docksearch/internal/engine"
	"github.com/codedock/docksearch/internal/history"
	"github.com/codedock/docksearch/internal/render"
)

var (
	searchCodebase string
	searchNoSave   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Run a strong search against a codebase",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchCodebase, "codebase", "c", "",
		"codebase name to search (required)")
	searchCmd.Flags().BoolVar(&searchNoSave, "no-save", false,
		"do not record the result in search history")
	_ = searchCmd.MarkFlagRequired("codebase")
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")

	dock, err := dockclient.New(serverURL, nil)
	if err != nil {
		return err
	}

	session := engine.NewSearchSession(dock)
	defer session.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	logger.Debug("starting search session",
		zap.String("server", serverURL),
		zap.String("codebase", searchCodebase),
		zap.String("query", query))

	if err := session.Run(ctx, searchCodebase, query); err != nil {
		return err
	}
	cancel()

	// Ctrl-C stops the search; the session moves to Stopped and the event
	// stream drains below.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			fmt.Fprintln(os.Stderr, "\nstopping search...")
			session.Stop()
		}
	}()

	result := consumeEvents(session)

	switch session.State() {
	case domain.SessionStateCompleted:
		if result != nil {
			fmt.Println()
			fmt.Println(render.ResultSummary(*result))
			if !searchNoSave {
				saveHistory(session, *result)
			}
		}
		return nil
	case domain.SessionStateStopped:
		return nil
	default:
		return fmt.Errorf("search did not complete (state: %s)", session.State())
	}
}

// consumeEvents drains the session event stream until the session reaches a
// terminal state and the connection closes, rendering as it goes.
func consumeEvents(session *engine.SearchSession) *domain.SearchResult {
	var result *domain.SearchResult

	for event := range session.Events() {
		switch event.Type {
		case domain.EventTypeLog:
			if data, ok := event.Log(); ok {
				fmt.Println(render.LogLine(data.Entry))
			}
		case domain.EventTypeProgress:
			if data, ok := event.Progress(); ok {
				fmt.Println(render.ProgressLine(engine.DisplayPercent(data.Fraction), data.Status))
			}
		case domain.EventTypeResult:
			if data, ok := event.Result(); ok {
				r := data.Result
				result = &r
			}
		case domain.EventTypeError:
			if data, ok := event.Error(); ok {
				logger.Debug("session error", zap.String("code", data.Code), zap.String("message", data.Message))
			}
		case domain.EventTypeStateChange:
			if data, ok := event.StateChange(); ok {
				logger.Debug("state change",
					zap.Stringer("from", data.From),
					zap.Stringer("to", data.To),
					zap.String("reason", data.Reason))
				if data.To.Terminal() {
					// The read loop ends when the server closes the socket;
					// close the session so the event channel drains and ends.
					go session.Close()
				}
			}
		}
	}
	return result
}

func saveHistory(session *engine.SearchSession, result domain.SearchResult) {
	store, err := history.NewStore(historyDir)
	if err != nil {
		logger.Warn("failed to open history store", zap.Error(err))
		return
	}
	record := history.NewRecord(session.Session(), result)
	if err := store.Save(record); err != nil {
		logger.Warn("failed to save search record", zap.Error(err))
		return
	}
	logger.Debug("saved search record", zap.String("id", record.ID))
}
