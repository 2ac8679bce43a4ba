// Package source provides the update-server views the report pipeline reads
// from: a live admin API client and an offline YAML snapshot.
package source

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/patchreport/api/schemas"
	"github.com/xkilldash9x/patchreport/internal/config"
)

// New builds the Source selected by cfg.Type.
func New(cfg config.SourceConfig, logger *zap.Logger) (schemas.Source, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch cfg.Type {
	case config.SourceTypeAPI:
		return NewAPIClient(cfg, logger), nil
	case config.SourceTypeSnapshot:
		snap, err := LoadSnapshot(cfg.SnapshotFile, logger)
		if err != nil {
			return nil, err
		}
		return snap, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %q", cfg.Type)
	}
}

// findGroup resolves a scope name the same way the update console does:
// case-insensitive, surrounding whitespace ignored.
func findGroup(groups []schemas.Group, scope string) (schemas.Group, bool) {
	scope = strings.TrimSpace(scope)
	for _, g := range groups {
		if strings.EqualFold(g.Name, scope) {
			return g, true
		}
	}
	return schemas.Group{}, false
}
