package rollback

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/database"
)

// Manager tracks, per connection, the set of domain objects that registered
// undo state during the life of a transaction, and replays discard or
// rollback on every one of them when the connection is released.
//
// Distinct connections never contend with each other: the registry is
// sharded per connection, and operations for the same connection are
// mutually exclusive.
type Manager struct {
	mtx         sync.RWMutex
	connections map[database.Connection]*connectionHandlers
}

// connectionHandlers is one connection's shard: an insertion-ordered set of
// handlers keyed by owning-object identity. released marks a shard that has
// been detached from the registry, so a stale reference to it is never
// mutated.
type connectionHandlers struct {
	mtx      sync.Mutex
	released bool
	order    []interface{}
	handlers map[interface{}]Handler
}

// NewManager creates an empty rollback manager.
func NewManager() *Manager {
	return &Manager{
		connections: make(map[database.Connection]*connectionHandlers),
	}
}

// Append registers handler under conn. If a handler for the same owning
// object is already registered under conn, the new handler is merged into
// the existing one via Combine and no second entry is created. A handler
// without an owning object is an ErrInvalidState.
func (m *Manager) Append(conn database.Connection, handler Handler) error {
	object := handler.Object()
	if object == nil {
		return errors.Wrap(database.ErrInvalidState,
			"rollback handler is not attributable to an object")
	}
	for {
		ch := m.shardForWrite(conn)
		ch.mtx.Lock()
		if ch.released {
			// Lost a race against Release; the shard is gone from
			// the registry. Start over with a fresh one.
			ch.mtx.Unlock()
			continue
		}
		if existing, ok := ch.handlers[object]; ok {
			existing.Combine(handler)
		} else {
			ch.handlers[object] = handler
			ch.order = append(ch.order, object)
		}
		ch.mtx.Unlock()
		log.Debugf("Rollback handler for %s was added", handler.ObjectInfo())
		return nil
	}
}

// Remove removes the single entry registered for object under conn and
// discards it (its state is dropped, not rolled back). It is a no-op if no
// such entry exists.
//
// Deprecated: passing a nil object historically meant "discard everything
// registered for conn". The overload is kept as a shim and delegates to
// Release with ActionDiscard; call that directly instead.
func (m *Manager) Remove(conn database.Connection, object interface{}) error {
	if object == nil {
		return m.Release(conn, ActionDiscard)
	}
	ch := m.shard(conn)
	if ch == nil {
		return nil
	}
	ch.mtx.Lock()
	defer ch.mtx.Unlock()
	if ch.released {
		return nil
	}
	handler, ok := ch.handlers[object]
	if !ok {
		return nil
	}
	delete(ch.handlers, object)
	for i, o := range ch.order {
		if o == object {
			ch.order = append(ch.order[:i], ch.order[i+1:]...)
			break
		}
	}
	log.Debugf("Rollback handler for %s was removed", handler.ObjectInfo())
	if err := handler.Discard(); err != nil {
		return errors.Wrapf(err, "discarding handler for %s", handler.ObjectInfo())
	}
	return nil
}

// Release invokes Rollback (for ActionRollback) or Discard (for
// ActionDiscard) on every handler registered under conn, then drops the
// connection's entire entry set. Handler failures are isolated: one failing
// handler never prevents the remaining ones from being processed. After the
// sweep the failures, if any, are reported as a single aggregated error.
// Releasing a connection with no registered handlers is a no-op.
func (m *Manager) Release(conn database.Connection, action ReleaseAction) error {
	ch := m.shard(conn)
	if ch == nil {
		return nil
	}
	ch.mtx.Lock()
	defer ch.mtx.Unlock()
	if ch.released {
		return nil
	}
	ch.released = true
	m.mtx.Lock()
	delete(m.connections, conn)
	m.mtx.Unlock()

	total := len(ch.order)
	log.Infof("Rollback manager performs %s for %d objects", action, total)
	var firstErr error
	failed := 0
	for _, object := range ch.order {
		handler := ch.handlers[object]
		var err error
		if action == ActionRollback {
			err = handler.Rollback()
		} else {
			err = handler.Discard()
		}
		if err != nil {
			log.Errorf("%s failed for %s: %s", action, handler.ObjectInfo(), err)
			if firstErr == nil {
				firstErr = err
			}
			failed++
		}
	}
	ch.handlers = nil
	ch.order = nil
	if firstErr != nil {
		return errors.Wrapf(firstErr, "%s failed for %d of %d handlers",
			action, failed, total)
	}
	return nil
}

// HandlerCount returns the number of handlers currently registered for conn.
func (m *Manager) HandlerCount(conn database.Connection) int {
	ch := m.shard(conn)
	if ch == nil {
		return 0
	}
	ch.mtx.Lock()
	defer ch.mtx.Unlock()
	return len(ch.handlers)
}

// shard returns conn's shard, or nil if conn has no registered handlers.
func (m *Manager) shard(conn database.Connection) *connectionHandlers {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.connections[conn]
}

// shardForWrite returns conn's shard, creating it if needed.
func (m *Manager) shardForWrite(conn database.Connection) *connectionHandlers {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	ch, ok := m.connections[conn]
	if !ok {
		ch = &connectionHandlers{handlers: make(map[interface{}]Handler)}
		m.connections[conn] = ch
	}
	return ch
}
