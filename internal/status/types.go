// Package status defines the per-scope synchronization state machine.
package status

import "time"

// SyncPhase represents the current phase of a scope's synchronization cycle
type SyncPhase string

const (
	// SyncPhaseIdle means no cycle is running; the previous one, if any, succeeded
	SyncPhaseIdle SyncPhase = "IDLE"

	// SyncPhaseFetching means a page is being requested from the remote source
	SyncPhaseFetching SyncPhase = "FETCHING"

	// SyncPhaseMerging means a fetched page is being written to the store
	SyncPhaseMerging SyncPhase = "MERGING"

	// SyncPhaseFailed means the last cycle stopped on an unrecoverable error
	SyncPhaseFailed SyncPhase = "FAILED"
)

var transitions = map[SyncPhase][]SyncPhase{
	SyncPhaseIdle:     {SyncPhaseFetching},
	SyncPhaseFetching: {SyncPhaseMerging, SyncPhaseIdle, SyncPhaseFailed},
	SyncPhaseMerging:  {SyncPhaseFetching, SyncPhaseIdle, SyncPhaseFailed},
	SyncPhaseFailed:   {SyncPhaseFetching},
}

// CanTransition reports whether a cycle may move from one phase to another.
// An empty phase is a scope that never synced and behaves as idle.
func CanTransition(from, to SyncPhase) bool {
	if from == "" {
		from = SyncPhaseIdle
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsRunning reports whether p is one of the in-cycle phases
func (p SyncPhase) IsRunning() bool {
	return p == SyncPhaseFetching || p == SyncPhaseMerging
}

// SyncStatus represents the current state of one scope's synchronization
type SyncStatus struct {
	// Phase represents the current synchronization phase
	Phase SyncPhase `yaml:"phase" json:"phase"`

	// Message provides additional information about the sync status
	Message string `yaml:"message,omitempty" json:"message,omitempty"`

	// LastAttempt is the timestamp of the last sync attempt
	LastAttempt *time.Time `yaml:"lastAttempt,omitempty" json:"lastAttempt,omitempty"`

	// AttemptCount is the number of sync attempts since last success
	AttemptCount int `yaml:"attemptCount,omitempty" json:"attemptCount,omitempty"`

	// LastSyncTime is the timestamp of the last successful sync
	LastSyncTime *time.Time `yaml:"lastSyncTime,omitempty" json:"lastSyncTime,omitempty"`

	// RowsInserted is the number of rows the last successful cycle added
	RowsInserted int64 `yaml:"rowsInserted,omitempty" json:"rowsInserted,omitempty"`
}
