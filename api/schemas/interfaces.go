package schemas

import "context"

// -- Source Interfaces --

// MachineSource enumerates the machines registered on the update server.
type MachineSource interface {
	// ListMachines returns the machines in scope. An empty scope means all
	// machines; a group name that does not exist yields ErrScopeNotFound.
	ListMachines(ctx context.Context, scope string) ([]MachineIdentity, error)
	// ListGroups returns every computer group known to the server.
	ListGroups(ctx context.Context) ([]Group, error)
}

// StateSource returns the raw per-update states of one machine.
type StateSource interface {
	// GetUpdateStates fails with ErrSourceUnavailable on transport or auth errors.
	GetUpdateStates(ctx context.Context, machineID string) ([]UpdateRecord, error)
}

// Source is the full view of the update server the pipeline consumes.
type Source interface {
	MachineSource
	StateSource
}

// -- Delivery Interfaces --

// Sink publishes a rendered report somewhere outside the process.
type Sink interface {
	// Name identifies the sink in logs.
	Name() string
	// Enabled reports whether the sink has the configuration it needs. A
	// disabled sink is skipped without error.
	Enabled() bool
	// Deliver publishes the report.
	Deliver(ctx context.Context, report *Report) error
}
