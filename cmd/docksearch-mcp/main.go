// docksearch-mcp exposes dock strong search as MCP tools over stdio, so MCP
// hosts (editors, agent runtimes) can run searches and list codebases
// through the same session engine the CLI uses.
//
// Usage:
//
//	docksearch-mcp            # serves MCP on stdin/stdout
//
// The dock server base URL is taken from DOCKSEARCH_SERVER, defaulting to
// http://localhost:30089.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/codedock/docksearch/internal/dockclient"
	"github.com/codedock/docksearch/internal/domain"
	"github.com/codedock/docksearch/internal/engine"
)

const connectTimeout = 30 * time.Second

type StrongSearchArgs struct {
	CodebaseName string `json:"codebase_name" jsonschema:"name of the codebase to search"`
	Query        string `json:"query" jsonschema:"natural language question about the codebase"`
}

type StrongSearchResult struct {
	Answer               string            `json:"answer"`
	RelevantFiles        []string          `json:"relevant_files"`
	FileContents         map[string]string `json:"file_contents,omitempty"`
	ExecutionTimeSeconds float64           `json:"execution_time_seconds"`
}

type ListCodebasesArgs struct{}

type ListCodebasesResult struct {
	Codebases []dockclient.CodebaseInfo `json:"codebases"`
}

func main() {
	dock, err := dockclient.New(serverBase(), nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, "docksearch-mcp:", err)
		os.Exit(1)
	}

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "docksearch",
		Version: "0.1.0",
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "strong_search",
		Description: "Run an agent-powered search over an indexed codebase. " +
			"Streams are collapsed: the call blocks until the final answer.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args StrongSearchArgs) (*mcp.CallToolResult, StrongSearchResult, error) {
		result, err := runSearch(ctx, dock, args.CodebaseName, args.Query)
		if err != nil {
			return nil, StrongSearchResult{}, err
		}
		out := StrongSearchResult{
			Answer:               result.Answer,
			RelevantFiles:        result.RelevantFiles,
			FileContents:         result.FileContents,
			ExecutionTimeSeconds: result.ExecutionTimeSeconds,
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result.Answer}},
		}, out, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_codebases",
		Description: "List the codebases registered with the dock server.",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListCodebasesArgs) (*mcp.CallToolResult, ListCodebasesResult, error) {
		codebases, err := dock.ListCodebases(ctx)
		if err != nil {
			return nil, ListCodebasesResult{}, err
		}
		return nil, ListCodebasesResult{Codebases: codebases}, nil
	})

	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		fmt.Fprintln(os.Stderr, "docksearch-mcp:", err)
		os.Exit(1)
	}
}

// runSearch drives one engine session to completion and returns its result.
// Cancelling ctx stops the session.
func runSearch(ctx context.Context, dock *dockclient.Client, codebaseName, query string) (*domain.SearchResult, error) {
	session := engine.NewSearchSession(dock)
	defer session.Close()

	startCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := session.Run(startCtx, codebaseName, query); err != nil {
		return nil, err
	}

	stop := context.AfterFunc(ctx, session.Stop)
	defer stop()

	var lastError string
	for event := range session.Events() {
		switch event.Type {
		case domain.EventTypeError:
			if data, ok := event.Error(); ok {
				lastError = data.Message
			}
		case domain.EventTypeStateChange:
			if data, ok := event.StateChange(); ok && data.To.Terminal() {
				go session.Close()
			}
		}
	}

	switch session.State() {
	case domain.SessionStateCompleted:
		if result := session.Result(); result != nil {
			return result, nil
		}
		return nil, fmt.Errorf("session completed without a result")
	case domain.SessionStateStopped:
		return nil, ctx.Err()
	default:
		if lastError != "" {
			return nil, fmt.Errorf("search failed: %s", lastError)
		}
		return nil, fmt.Errorf("search failed (state: %s)", session.State())
	}
}

func serverBase() string {
	if v := os.Getenv("DOCKSEARCH_SERVER"); v != "" {
		return v
	}
	return "http://localhost:30089"
}
