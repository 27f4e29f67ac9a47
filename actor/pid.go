package actor

import "github.com/google/uuid"

// PID identifies an actor instance. It has no routing meaning of its own;
// it exists so hosts can correlate log lines and supervision state with a
// particular actor.
type PID struct {
	ID string
}

// DefaultPID mints a fresh, random PID.
func DefaultPID() PID {
	return PID{ID: uuid.New().String()}
}
