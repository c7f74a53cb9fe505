package rollback

// Handler is the capability a stateful domain object registers so its
// in-memory state can be reverted or dropped when the enclosing transaction
// ends.
type Handler interface {
	// Object returns the owning object's identity under which the handler
	// is registered. The returned value must be comparable (typically a
	// pointer) and must not be nil.
	Object() interface{}

	// ObjectInfo returns a short description of the owning object for
	// diagnostic traces.
	ObjectInfo() string

	// Combine merges another handler registered for the same owning
	// object into this one. Whether the first or the latest original
	// value wins is owned by the handler implementation.
	Combine(other Handler)

	// Rollback restores the owning object's in-memory state to what it
	// was before the uncommitted changes.
	Rollback() error

	// Discard drops any cached pending-change state without restoring
	// previous values.
	Discard() error
}

// ReleaseAction selects what Release does to every handler registered for a
// connection.
type ReleaseAction int

const (
	// ActionDiscard drops each handler's pending state without restoring
	// previous values. Used when the transaction committed and only the
	// bookkeeping has to go.
	ActionDiscard ReleaseAction = iota

	// ActionRollback restores each owning object's prior in-memory state.
	ActionRollback
)

func (a ReleaseAction) String() string {
	if a == ActionRollback {
		return "Rollback"
	}
	return "Discard"
}
