package database

// Cursor is a live, server-side positioned handle over query results. A
// fresh cursor is positioned before the first row; Next advances it one row
// at a time. Cursors returned by a forward-only query support no other
// movement.
type Cursor interface {
	// Next moves the cursor to the next row. It returns false when the
	// cursor is exhausted.
	Next() (bool, error)

	// Value returns the raw driver value of the current row's cell at the
	// given zero-based index.
	Value(index int) (interface{}, error)

	// IsNull reports whether the current row's cell at the given
	// zero-based index is SQL NULL.
	IsNull(index int) (bool, error)

	// Close releases the cursor and its server-side resources. Closing an
	// already-closed cursor is a no-op.
	Close() error
}

// ScrollableCursor is a Cursor that supports free positioning. Cursors
// obtained from a scrollable query implement this interface.
type ScrollableCursor interface {
	Cursor

	// Previous moves the cursor to the previous row. It returns false
	// when the cursor moves before the first row.
	Previous() (bool, error)

	// Relative moves the cursor rows positions forward (or backward for a
	// negative count) from its current position. It returns false when
	// the move lands outside the result set.
	Relative(rows int) (bool, error)

	// HasNext reports whether a row exists beyond the current position,
	// without moving the cursor.
	HasNext() (bool, error)
}
