package database

// Connection is the execution primitive this package is built on: given an
// already-prepared SQL string and its ordered parameter values, it returns a
// live cursor over the results, or an error if execution failed.
//
// A Connection represents a single transaction-scoped session and is assumed
// to be used from one goroutine at a time. Implementations must be comparable
// (typically pointers): connection values are used directly as registry keys,
// so two distinct sessions must never compare equal.
type Connection interface {
	// Query executes sql with the given parameter values and returns a
	// cursor positioned before the first row. When scrollable is true the
	// returned cursor must also implement ScrollableCursor.
	Query(sql string, params []interface{}, scrollable bool) (Cursor, error)
}
