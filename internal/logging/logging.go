// Package logging initialises the process-wide zap logger exactly once,
// mirroring spec §9's "initialise once at program start, never mutate
// thereafter" rule for global state.
package logging

import "go.uber.org/zap"

// New builds a logger appropriate for the CLI: human-readable console
// output, debug level when verbose is set.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.DisableStacktrace = true
	return cfg.Build()
}
