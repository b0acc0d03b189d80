package engine

import (
	"context"

	"github.com/codedock/docksearch/internal/domain"
)

// FileBatchFetcher retrieves the contents of several files from a codebase
// in one request. *dockclient.Client satisfies this.
type FileBatchFetcher interface {
	FetchFileBatch(ctx context.Context, codebaseName string, filePaths []string) (map[string]string, error)
}

// ResultAggregator assembles the final SearchResult from a terminal result
// frame, fetching the contents of every referenced file in a single batch
// request. A fetch failure never fails the overall result: affected paths
// get a placeholder error string instead.
type ResultAggregator struct {
	fetcher FileBatchFetcher
}

func NewResultAggregator(fetcher FileBatchFetcher) *ResultAggregator {
	return &ResultAggregator{fetcher: fetcher}
}

// Aggregate builds the immutable SearchResult for payload.
func (a *ResultAggregator) Aggregate(ctx context.Context, codebaseName string, payload ResultPayload) domain.SearchResult {
	result := domain.SearchResult{
		Answer:               payload.Answer,
		RelevantFiles:        payload.RelevantFiles,
		FileContents:         make(map[string]string, len(payload.RelevantFiles)),
		ProjectStructure:     payload.ProjectStructure,
		ExecutionTimeSeconds: payload.ExecutionTime,
	}

	if len(payload.RelevantFiles) == 0 || a.fetcher == nil {
		return result
	}

	contents, err := a.fetcher.FetchFileBatch(ctx, codebaseName, payload.RelevantFiles)
	for _, path := range payload.RelevantFiles {
		switch {
		case err != nil:
			result.FileContents[path] = "Error: failed to fetch file content: " + err.Error()
		default:
			content, ok := contents[path]
			if !ok {
				result.FileContents[path] = "Error: file content missing from batch response"
				continue
			}
			result.FileContents[path] = content
		}
	}

	return result
}
