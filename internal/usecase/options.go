package usecase

import (
	"github.com/flightplan-tool/flightplan-sub000/internal/domain"
	"github.com/flightplan-tool/flightplan-sub000/internal/infrastructure/logger"
)

// RunOptions contains optional collaborators of a Runner.
type RunOptions struct {
	// Cache skips searches whose results were captured recently
	Cache ResultsCache

	// Store persists each successful search and its awards
	Store ResultStore

	// Registry and Assets are needed to restore cached results
	Registry *domain.Registry
	Assets   domain.AssetStore

	// AssetsDir, when set, gives every query without asset paths a
	// default set of paths under it
	AssetsDir string

	// Compress gzips HTML and JSON assets written under AssetsDir
	Compress bool

	// Parse forces parsing so integrity errors surface during the run
	Parse bool

	Logger *logger.Logger
}

// DefaultRunOptions returns RunOptions with sensible defaults.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Parse:  true,
		Logger: logger.Nop(),
	}
}
