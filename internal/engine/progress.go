package engine

import "fmt"

// Phase identifies the stage a synchronization pass is in.
type Phase int

const (
	PhaseGate Phase = iota
	PhaseListing
	PhaseDiff
	PhaseEnrich
	PhasePersist
)

func (p Phase) String() string {
	switch p {
	case PhaseGate:
		return "gate"
	case PhaseListing:
		return "listing"
	case PhaseDiff:
		return "diff"
	case PhaseEnrich:
		return "enrich"
	case PhasePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// ProgressUpdate is a point-in-time status report for a running pass.
type ProgressUpdate struct {
	Phase   Phase
	Current int
	Total   int
	Message string
}

func enrichUpdate(current, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PhaseEnrich,
		Current: current,
		Total:   total,
		Message: fmt.Sprintf("Enriched %d/%d albums (%s)", current, total, id),
	}
}

func phaseUpdate(p Phase, msg string) ProgressUpdate {
	return ProgressUpdate{Phase: p, Message: msg}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks the pass.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}
