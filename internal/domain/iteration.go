package domain

// Stage is a step of the reconciliation state machine.
type Stage string

const (
	StageDiscovering   Stage = "discovering"
	StageFilteringLive Stage = "filtering_live"
	StageReconciling   Stage = "reconciling"
	StageNotifying     Stage = "notifying"
	StagePersisting    Stage = "persisting"
	StageCleaningUp    Stage = "cleaning_up"
	StageSleeping      Stage = "sleeping"
)

// IterationResult is the outcome of one pass of the loop. It is never
// persisted.
type IterationResult struct {
	Seq    uint64
	Target string

	Discovered HostSet
	Current    HostSet
	New        HostSet

	// Total is the size of the persisted superset after the iteration.
	Total int

	UsedFallback bool
	Persisted    bool
}

// Notification is a message for the external channel, optionally with a file
// attached.
type Notification struct {
	Text       string
	Attachment string // Optional: path to a file
}
