// File: internal/source/snapshot.go
package source

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/xkilldash9x/patchreport/api/schemas"
)

// snapshotComputer is one machine entry in a snapshot file.
type snapshotComputer struct {
	schemas.MachineIdentity `yaml:",inline"`
	Updates                 []schemas.UpdateRecord `yaml:"updates"`
}

type snapshotFile struct {
	Groups    []schemas.Group    `yaml:"groups"`
	Computers []snapshotComputer `yaml:"computers"`
}

// Snapshot serves machine and update data from a YAML export, for offline
// runs and reproducible reports.
//
//	groups:
//	  - {id: g1, name: Servers}
//	computers:
//	  - id: c1
//	    name: web01
//	    groups: [Servers]
//	    last_sync: 2024-05-01T10:00:00Z
//	    updates:
//	      - {update_id: KB1, state: Needed}
type Snapshot struct {
	groups    []schemas.Group
	computers []snapshotComputer
	byID      map[string]int
	logger    *zap.Logger
}

// LoadSnapshot reads and indexes the snapshot at path.
func LoadSnapshot(path string, logger *zap.Logger) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading snapshot: %v", schemas.ErrSourceUnavailable, err)
	}
	return ParseSnapshot(data, logger)
}

// ParseSnapshot indexes an in-memory snapshot document.
func ParseSnapshot(data []byte, logger *zap.Logger) (*Snapshot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var doc snapshotFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: parsing snapshot: %v", schemas.ErrSourceUnavailable, err)
	}

	s := &Snapshot{
		groups:    doc.Groups,
		computers: doc.Computers,
		byID:      make(map[string]int, len(doc.Computers)),
		logger:    logger.Named("source_snapshot"),
	}
	for i, c := range doc.Computers {
		if c.ID == "" {
			return nil, fmt.Errorf("%w: computer %q has no id", schemas.ErrSourceUnavailable, c.Name)
		}
		if _, dup := s.byID[c.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate computer id %q", schemas.ErrSourceUnavailable, c.ID)
		}
		s.byID[c.ID] = i
	}
	s.logger.Debug("Snapshot loaded", zap.Int("groups", len(s.groups)), zap.Int("computers", len(s.computers)))
	return s, nil
}

// ListGroups returns the declared groups with their member counts.
func (s *Snapshot) ListGroups(ctx context.Context) ([]schemas.Group, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]schemas.Group, len(s.groups))
	for i, g := range s.groups {
		g.Count = 0
		for _, c := range s.computers {
			if memberOf(c.Groups, g.Name) {
				g.Count++
			}
		}
		out[i] = g
	}
	return out, nil
}

// ListMachines returns the computers in scope, in file order.
func (s *Snapshot) ListMachines(ctx context.Context, scope string) ([]schemas.MachineIdentity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var group schemas.Group
	if scope != "" {
		var ok bool
		if group, ok = findGroup(s.groups, scope); !ok {
			return nil, fmt.Errorf("%w: no computer group named %q", schemas.ErrScopeNotFound, scope)
		}
	}

	machines := make([]schemas.MachineIdentity, 0, len(s.computers))
	for _, c := range s.computers {
		if scope != "" && !memberOf(c.Groups, group.Name) {
			continue
		}
		machines = append(machines, c.MachineIdentity)
	}
	return machines, nil
}

// GetUpdateStates returns the recorded states for one computer.
func (s *Snapshot) GetUpdateStates(ctx context.Context, machineID string) ([]schemas.UpdateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	i, ok := s.byID[machineID]
	if !ok {
		return nil, fmt.Errorf("%w: unknown computer id %q", schemas.ErrSourceUnavailable, machineID)
	}
	return append([]schemas.UpdateRecord(nil), s.computers[i].Updates...), nil
}

func memberOf(groups []string, name string) bool {
	for _, g := range groups {
		if strings.EqualFold(strings.TrimSpace(g), name) {
			return true
		}
	}
	return false
}
