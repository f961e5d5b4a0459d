package deployment

import "fmt"

// Status is the lifecycle state of a stack as last observed by this engine.
type Status string

const (
	StatusNone      Status = "NONE"
	StatusPreviewed Status = "PREVIEWED"
	StatusApplied   Status = "APPLIED"
	StatusDestroyed Status = "DESTROYED"
)

// validTransitions lists where each status may move. Destroy is idempotent, and a destroyed stack
// may be deployed again from scratch.
var validTransitions = map[Status][]Status{
	StatusNone:      {StatusPreviewed, StatusApplied, StatusDestroyed},
	StatusPreviewed: {StatusPreviewed, StatusApplied, StatusDestroyed},
	StatusApplied:   {StatusPreviewed, StatusApplied, StatusDestroyed},
	StatusDestroyed: {StatusPreviewed, StatusApplied, StatusDestroyed},
}

// persisted reports whether a status is remembered. Previews are always computed fresh.
func (s Status) persisted() bool {
	return s != StatusPreviewed
}

func isValidTransition(current, next Status) bool {
	for _, valid := range validTransitions[current] {
		if valid == next {
			return true
		}
	}
	return false
}

func transition(current, next Status) (Status, error) {
	if !isValidTransition(current, next) {
		return current, fmt.Errorf("invalid state transition from %s to %s", current, next)
	}
	if !next.persisted() {
		return current, nil
	}
	return next, nil
}
