package ir

// Version constants for snapshots and the engine.
const (
	// SnapshotVersion is the canonical snapshot schema version.
	SnapshotVersion = "1"

	// EngineVersion is the basket engine version.
	EngineVersion = "0.1.0"
)
