// Package service wires configuration, analysis, and the trash area
// into one facade shared by the CLI commands, watch mode, and the MCP
// server.
package service

import (
	"context"

	"github.com/deadwood-io/deadwood/internal/progress"
	"github.com/deadwood-io/deadwood/internal/trash"
	"github.com/deadwood-io/deadwood/pkg/analyzer"
	"github.com/deadwood-io/deadwood/pkg/analyzer/unused"
	"github.com/deadwood-io/deadwood/pkg/config"
	"github.com/deadwood-io/deadwood/pkg/models"
)

// Service orchestrates scans and trash operations for one configuration.
type Service struct {
	config *config.Config
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		if cfg != nil {
			s.config = cfg
		}
	}
}

// New creates a service. Without options it runs on defaults; callers
// that loaded a config file pass it with WithConfig.
func New(opts ...Option) *Service {
	s := &Service{config: config.DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the effective configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// ScanOptions configures one workspace scan. Zero values fall back to
// the loaded configuration.
type ScanOptions struct {
	Entries              []string
	AssetRoots           []string
	IncludeNonProdDeps   bool
	IncludeLowConfidence bool
	MaxFileSize          int64
	ShowProgress         bool
}

// Scan runs the unused-code analysis over the workspace rooted at root.
// The workspace is never modified.
func (s *Service) Scan(ctx context.Context, root string, opts ScanOptions) (*models.Report, error) {
	analyzerOpts := []unused.Option{unused.WithConfig(s.config)}
	if len(opts.Entries) > 0 {
		analyzerOpts = append(analyzerOpts, unused.WithEntries(opts.Entries...))
	}
	if len(opts.AssetRoots) > 0 {
		analyzerOpts = append(analyzerOpts, unused.WithAssetRoots(opts.AssetRoots...))
	}
	if opts.IncludeNonProdDeps {
		analyzerOpts = append(analyzerOpts, unused.WithIncludeNonProdDeps())
	}
	if opts.IncludeLowConfidence {
		analyzerOpts = append(analyzerOpts, unused.WithIncludeLowConfidence())
	}
	if opts.MaxFileSize > 0 {
		analyzerOpts = append(analyzerOpts, unused.WithMaxFileSize(opts.MaxFileSize))
	}
	if opts.ShowProgress {
		ctx = analyzer.WithTracker(ctx, analyzer.NewTracker(progress.Callback("Parsing sources")))
	}

	a := unused.New(analyzerOpts...)
	defer a.Close()

	return a.Analyze(ctx, root)
}

// Trash returns the trash handle for the workspace rooted at root,
// using the configured trash directory name.
func (s *Service) Trash(root string) *trash.Trash {
	return trash.New(root, s.config.Trash.Dir)
}

// TrashSessions lists the trash sessions under root, oldest first.
func (s *Service) TrashSessions(root string) ([]models.TrashSession, error) {
	return s.Trash(root).Sessions()
}
