package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/mvp-joe/autodocs/internal/journal"
	mcputils "github.com/mvp-joe/autodocs/internal/mcp-utils"
	"github.com/mvp-joe/autodocs/internal/processor"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// AnalyzeResponse is the JSON payload of autodocs_analyze.
type AnalyzeResponse struct {
	Path   string           `json:"path"`
	Result *analysis.Result `json:"result"`
}

// HistoryResponse is the JSON payload of autodocs_history.
type HistoryResponse struct {
	Flushes []HistoryFlush `json:"flushes"`
	Total   int            `json:"total"`
}

// HistoryFlush is one flush in a HistoryResponse.
type HistoryFlush struct {
	ID         string        `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	DurationMS int64         `json:"duration_ms"`
	Files      int           `json:"files"`
	Failures   int           `json:"failures"`
	Details    []HistoryFile `json:"details,omitempty"`
}

// HistoryFile is one file of a HistoryFlush.
type HistoryFile struct {
	Path       string `json:"path"`
	Language   string `json:"language,omitempty"`
	Lines      int    `json:"lines"`
	Completion string `json:"completion,omitempty"`
	Error      string `json:"error,omitempty"`
}

type historyArgs struct {
	Limit   int    `json:"limit"`
	Details bool   `json:"details"`
	FlushID string `json:"flush_id"`
}

// AddDocumentTool registers autodocs_document, which returns the
// documentation prompt for one file.
func AddDocumentTool(s *server.MCPServer, documenter Documenter, projectRoot string) {
	tool := mcp.NewTool(
		"autodocs_document",
		mcp.WithDescription("Build a documentation prompt for a source file. The prompt includes the file type, size, estimated completion, detected functions, classes and imports, and the full source. Use it to write comprehensive documentation for the file."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path, relative to the project root (e.g., 'src/components/Button.tsx')")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createDocumentHandler(documenter, projectRoot))
}

func createDocumentHandler(documenter Documenter, projectRoot string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := mcputils.RequireString(request, "file")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, err := resolvePath(projectRoot, raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		prompt, _, err := documenter.Document(path)
		if err != nil {
			if errors.Is(err, processor.ErrUnsupportedFile) {
				return mcp.NewToolResultError(fmt.Sprintf("unsupported file type: %s", raw)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("failed to document %s: %v", raw, err)), nil
		}

		return mcp.NewToolResultText(prompt), nil
	}
}

// AddAnalyzeTool registers autodocs_analyze, which returns the extraction
// result for one file as JSON.
func AddAnalyzeTool(s *server.MCPServer, documenter Documenter, projectRoot string) {
	tool := mcp.NewTool(
		"autodocs_analyze",
		mcp.WithDescription("Analyze a source file without writing anything. Returns JSON with language, line count, completion estimate, and the detected functions, classes, imports and style classes."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("File path, relative to the project root")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createAnalyzeHandler(documenter, projectRoot))
}

func createAnalyzeHandler(documenter Documenter, projectRoot string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := mcputils.RequireString(request, "file")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		path, err := resolvePath(projectRoot, raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		result, err := documenter.Analyze(path)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to analyze %s: %v", raw, err)), nil
		}

		jsonData, err := json.Marshal(&AnalyzeResponse{Path: raw, Result: result})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}

// AddHistoryTool registers autodocs_history, which lists recent flushes.
func AddHistoryTool(s *server.MCPServer, history History, projectRoot string) {
	tool := mcp.NewTool(
		"autodocs_history",
		mcp.WithDescription("List recent documentation flushes, newest first, with file counts and failures. Set details to include per-file outcomes, or flush_id to fetch one flush with its files."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of flushes to return (1-100, default: 10)")),
		mcp.WithBoolean("details",
			mcp.Description("Include per-file results for each flush")),
		mcp.WithString("flush_id",
			mcp.Description("Return only this flush, with per-file results")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createHistoryHandler(history, projectRoot))
}

func createHistoryHandler(history History, projectRoot string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args historyArgs
		if err := mcputils.BindArguments(request, &args); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var flushes []journal.Flush
		if args.FlushID != "" {
			f, err := history.GetFlush(ctx, args.FlushID)
			if errors.Is(err, journal.ErrFlushNotFound) {
				return mcp.NewToolResultError(fmt.Sprintf("flush %s not found", args.FlushID)), nil
			}
			if err != nil {
				return nil, fmt.Errorf("failed to read flush %s: %w", args.FlushID, err)
			}
			flushes = []journal.Flush{*f}
			args.Details = true
		} else {
			if args.Limit <= 0 {
				args.Limit = defaultHistoryLimit
			}
			if args.Limit > maxHistoryLimit {
				args.Limit = maxHistoryLimit
			}

			var err error
			flushes, err = history.RecentFlushes(ctx, args.Limit)
			if err != nil {
				return nil, fmt.Errorf("failed to read history: %w", err)
			}
		}

		response := &HistoryResponse{Flushes: make([]HistoryFlush, 0, len(flushes))}
		for _, f := range flushes {
			hf := HistoryFlush{
				ID:         f.ID,
				StartedAt:  f.StartedAt,
				DurationMS: f.FinishedAt.Sub(f.StartedAt).Milliseconds(),
				Files:      f.FileCount,
				Failures:   f.FailureCount,
			}
			if args.Details {
				files, err := history.FlushFiles(ctx, f.ID)
				if err != nil {
					return nil, fmt.Errorf("failed to read files of flush %s: %w", f.ID, err)
				}
				for _, file := range files {
					hf.Details = append(hf.Details, HistoryFile{
						Path:       relativeTo(projectRoot, file.Path),
						Language:   file.Language,
						Lines:      file.LineCount,
						Completion: file.Completion,
						Error:      file.Error,
					})
				}
			}
			response.Flushes = append(response.Flushes, hf)
		}
		response.Total = len(response.Flushes)

		jsonData, err := json.Marshal(response)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response: %w", err)
		}
		return mcp.NewToolResultText(string(jsonData)), nil
	}
}
