package analyzer

import "context"

// WorkspaceAnalyzer is the interface all workspace-level analyzers
// implement. An analyzer reads the tree rooted at root and produces a
// result; it never mutates the workspace.
type WorkspaceAnalyzer[T any] interface {
	// Analyze inspects the workspace rooted at root and returns the
	// analysis result. The context can be used for cancellation.
	Analyze(ctx context.Context, root string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
