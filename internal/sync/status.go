package sync

import (
	"context"
	"log/slog"

	"github.com/checho651/bfx-report/internal/status"
)

const (
	messageInProgress  = "Sync in progress"
	messageCompleted   = "Sync completed successfully"
	messageInterrupted = "Sync interrupted, the pending window resumes on the next cycle"
)

// beginCycle moves the scope to FETCHING and counts the attempt. A scope
// found in a running phase was left there by a crashed process and is
// taken over.
func (m *defaultSyncManager) beginCycle(ctx context.Context, scope status.Scope) {
	_, err := m.state.UpdateStatusAtomically(context.WithoutCancel(ctx), scope, func(s *status.SyncStatus) bool {
		if !status.CanTransition(s.Phase, status.SyncPhaseFetching) {
			slog.Warn("Recovering scope left in a running phase", "scope", scope.Key(), "phase", s.Phase)
		}
		now := m.now()
		s.Phase = status.SyncPhaseFetching
		s.Message = messageInProgress
		s.LastAttempt = &now
		s.AttemptCount++
		return true
	})
	if err != nil {
		slog.Warn("Failed to persist syncing status", "scope", scope.Key(), "error", err)
	}
}

// setPhase records an in-cycle phase change
func (m *defaultSyncManager) setPhase(ctx context.Context, scope status.Scope, phase status.SyncPhase) {
	_, err := m.state.UpdateStatusAtomically(ctx, scope, func(s *status.SyncStatus) bool {
		if s.Phase == phase {
			return false
		}
		s.Phase = phase
		return true
	})
	if err != nil {
		slog.Warn("Failed to persist sync phase", "scope", scope.Key(), "phase", phase, "error", err)
	}
}

// endCycle stores the outcome of a cycle. Fetch failures return the scope to
// IDLE so the next tick retries it; any other failure leaves it FAILED.
func (m *defaultSyncManager) endCycle(ctx context.Context, scope status.Scope, result *Result, syncErr *Error) {
	_, err := m.state.UpdateStatusAtomically(context.WithoutCancel(ctx), scope, func(s *status.SyncStatus) bool {
		switch {
		case syncErr != nil && syncErr.Kind == KindUpstreamFetch:
			s.Phase = status.SyncPhaseIdle
			s.Message = syncErr.Message
		case syncErr != nil:
			s.Phase = status.SyncPhaseFailed
			s.Message = syncErr.Message
		case !result.Exhausted:
			s.Phase = status.SyncPhaseIdle
			s.Message = messageInterrupted
			s.RowsInserted = result.RowsInserted
		default:
			now := m.now()
			s.Phase = status.SyncPhaseIdle
			s.Message = messageCompleted
			s.LastSyncTime = &now
			s.AttemptCount = 0
			s.RowsInserted = result.RowsInserted
		}
		return true
	})
	if err != nil {
		slog.Error("Error updating sync status", "scope", scope.Key(), "error", err)
	}
}
