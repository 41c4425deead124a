// Package mcp exposes autodocs over the Model Context Protocol so that an
// editor's assistant can request documentation prompts and analysis results.
package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/mvp-joe/autodocs/internal/analysis"
	"github.com/mvp-joe/autodocs/internal/journal"
)

// ServerName is the MCP implementation name.
const ServerName = "autodocs-mcp"

// Documenter builds prompts and analysis results for single files.
// *processor.Processor satisfies it.
type Documenter interface {
	Document(path string) (string, *analysis.Result, error)
	Analyze(path string) (*analysis.Result, error)
}

// History lists past flushes. *journal.Store satisfies it.
type History interface {
	RecentFlushes(ctx context.Context, limit int) ([]journal.Flush, error)
	GetFlush(ctx context.Context, flushID string) (*journal.Flush, error)
	FlushFiles(ctx context.Context, flushID string) ([]journal.File, error)
}

// Server manages the MCP server lifecycle.
type Server struct {
	mcp *server.MCPServer
}

// NewServer registers the autodocs tools. history may be nil when the
// journal is disabled; the history tool is then omitted.
func NewServer(projectRoot, version string, documenter Documenter, history History) *Server {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)

	AddDocumentTool(s, documenter, projectRoot)
	AddAnalyzeTool(s, documenter, projectRoot)
	if history != nil {
		AddHistoryTool(s, history, projectRoot)
	}

	return &Server{mcp: s}
}

// MCP returns the underlying mcp-go server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// Serve serves on stdio and blocks until shutdown.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting MCP server on stdio...")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
		}
	}()

	select {
	case <-sigCh:
		log.Printf("Received shutdown signal, stopping gracefully...")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolvePath resolves a tool path argument against the project root and
// rejects paths that escape it.
func resolvePath(projectRoot, path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(projectRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the project", path)
	}
	return path, nil
}

// relativeTo returns path relative to projectRoot, or path itself when it is
// outside the root.
func relativeTo(projectRoot, path string) string {
	rel, err := filepath.Rel(projectRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
