package reader

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/database"
)

// Row is positioned, typed access to the current row of an open reader.
// Iterators yield their reader through this interface.
type Row interface {
	// Value returns the current row's cell at index, interpreted
	// according to the column's declared data type.
	Value(index int) (interface{}, error)

	// IsNull reports whether the current row's cell at index is SQL NULL.
	IsNull(index int) bool

	// FieldIndex resolves a column expression to its position in the row,
	// or -1 if the expression is not part of the row.
	FieldIndex(column database.ColumnExpr) int

	// FieldIndexByName resolves a column name (case-insensitive) to its
	// position in the row, or -1 if no column carries that name.
	FieldIndexByName(name string) int

	// FieldCount returns the number of columns in the row.
	FieldCount() int
}

// Reader owns the lifecycle of a single server-side cursor and exposes
// positioned access to the current row. A reader is either fully open (a
// cursor and its column list are attached) or fully closed; it may be opened
// and closed many times sequentially, but supports at most one live
// iterator at a time.
//
// A reader must always be closed after use. Exhausting it with MoveNext
// closes it automatically; otherwise call Close explicitly, typically under
// defer.
type Reader struct {
	conn    database.Connection
	columns []database.ColumnExpr
	cursor  database.Cursor

	// fieldIndexMap caches identity-based column lookups for the life of
	// the open cursor. nil when the cache is disabled.
	fieldIndexMap map[database.ColumnExpr]int

	// iter is the one live iterator, if any.
	iter disposable

	tracker *Tracker
}

type disposable interface {
	dispose()
}

// New creates a closed reader with the field index cache enabled, attached
// to the default leak tracker.
func New() *Reader {
	return NewWithTracker(defaultTracker)
}

// NewWithTracker creates a closed reader whose open/close pairs are
// recorded by the given leak tracker.
func NewWithTracker(tracker *Tracker) *Reader {
	return &Reader{
		fieldIndexMap: make(map[database.ColumnExpr]int),
		tracker:       tracker,
	}
}

// NewWithoutIndexCache creates a closed reader that resolves every field
// index lookup by scanning the column list.
func NewWithoutIndexCache() *Reader {
	return &Reader{tracker: defaultTracker}
}

// Open executes cmd against conn and attaches the resulting cursor to the
// reader, leaving it positioned before the first row. A reader that is
// already open is closed first.
//
// If cmd exposes a join graph, the parameters of every nested subquery
// reachable through it are collected: when cmd supplies no parameters of
// its own they become the executed parameter list, and when cmd does supply
// parameters their count must match what the join graph requires, otherwise
// Open fails with an ErrInvalidQuery naming both counts.
//
// Execution failures surface as ErrQueryExecution. Execution yielding no
// cursor at all is an ErrNoResult; an empty cursor is not an error.
func (r *Reader) Open(cmd database.Command, scrollable bool, conn database.Connection) error {
	if r.IsOpen() {
		r.Close()
	}
	sql := cmd.Select()
	params := cmd.ParamValues()
	if joined, ok := cmd.(database.JoinedCommand); ok {
		subqueryParams := collectSubqueryParams(joined)
		if len(subqueryParams) > 0 {
			if params == nil {
				params = subqueryParams
			} else if len(params) != len(subqueryParams) {
				return errors.Wrapf(database.ErrInvalidQuery,
					"invalid number of query parameters: provided=%d, required=%d; query=%s",
					len(params), len(subqueryParams), sql)
			}
		}
	}
	cursor, err := conn.Query(sql, params, scrollable)
	if err != nil {
		return database.WrapExecutionError(err, "executing query %s", sql)
	}
	if cursor == nil {
		return errors.Wrapf(database.ErrNoResult, "query %s", sql)
	}
	r.conn = conn
	r.columns = cmd.SelectColumns()
	r.cursor = cursor
	if r.fieldIndexMap != nil {
		r.fieldIndexMap = make(map[database.ColumnExpr]int)
	}
	r.tracker.track(r)
	return nil
}

// ReadRecord executes cmd against conn and positions the reader on the
// first row. It fails with ErrNoResult if the query yields no rows. It is
// provided for single-row queries and behaves exactly like Open followed by
// MoveNext.
func (r *Reader) ReadRecord(cmd database.Command, conn database.Connection) error {
	err := r.Open(cmd, false, conn)
	if err != nil {
		return err
	}
	moved, err := r.MoveNext()
	if err != nil {
		return err
	}
	if !moved {
		return errors.Wrapf(database.ErrNoResult, "query %s", cmd.Select())
	}
	return nil
}

// IsOpen reports whether a cursor is attached to the reader.
func (r *Reader) IsOpen() bool {
	return r.cursor != nil
}

// Scrollable reports whether the attached cursor supports free positioning.
// A closed reader is not scrollable.
func (r *Reader) Scrollable() bool {
	_, ok := r.cursor.(database.ScrollableCursor)
	return ok
}

// FieldCount returns the number of columns of the open cursor, or 0 when
// the reader is closed.
func (r *Reader) FieldCount() int {
	return len(r.columns)
}

// ColumnExpr returns the column expression at the given position, or nil if
// the index is out of range or the reader is closed.
func (r *Reader) ColumnExpr(index int) database.ColumnExpr {
	if index < 0 || index >= len(r.columns) {
		return nil
	}
	return r.columns[index]
}

// Close detaches and closes the cursor, invalidates any outstanding
// iterator and clears the field index cache. Closing a closed reader is a
// no-op.
func (r *Reader) Close() {
	if r.iter != nil {
		r.iter.dispose()
		r.iter = nil
	}
	if r.cursor != nil {
		err := r.cursor.Close()
		if err != nil {
			log.Warnf("Closing cursor failed: %s", err)
		}
		r.tracker.untrack(r)
	}
	r.columns = nil
	r.cursor = nil
	r.conn = nil
	if r.fieldIndexMap != nil {
		r.fieldIndexMap = make(map[database.ColumnExpr]int)
	}
}

// MoveNext advances the cursor one row and reports whether a valid row is
// now positioned. Reaching end-of-data closes the reader automatically, so
// server resources are freed without an explicit Close. Calling MoveNext on
// a closed reader is an ErrInvalidState.
func (r *Reader) MoveNext() (bool, error) {
	if r.cursor == nil {
		return false, errors.Wrap(database.ErrInvalidState, "reader is not open")
	}
	moved, err := r.cursor.Next()
	if err != nil {
		return false, database.WrapExecutionError(err, "moving to next row")
	}
	if !moved {
		// Close the cursor automatically after the last row.
		r.Close()
		return false, nil
	}
	return true, nil
}

// SkipRows moves the cursor count rows from its current position and
// reports whether it landed on a valid row. On a forward-only cursor only a
// non-negative count is legal and the move is simulated by repeated
// MoveNext calls; on a scrollable cursor a negative count moves backward,
// and skipping past either end reports false without failing. Skipping 0
// rows is a no-op reporting true.
func (r *Reader) SkipRows(count int) (bool, error) {
	if r.cursor == nil {
		return false, errors.Wrap(database.ErrInvalidState, "reader is not open")
	}
	scrollable, ok := r.cursor.(database.ScrollableCursor)
	if !ok {
		if count < 0 {
			return false, errors.Wrapf(database.ErrInvalidArgument,
				"cannot skip %d rows on a forward-only cursor", count)
		}
		for ; count > 0; count-- {
			moved, err := r.MoveNext()
			if err != nil {
				return false, err
			}
			if !moved {
				return false, nil
			}
		}
		return true, nil
	}
	switch {
	case count > 0:
		moved, err := scrollable.Next()
		if err != nil {
			return false, database.WrapExecutionError(err, "skipping %d rows", count)
		}
		if !moved {
			return false, nil
		}
		if count > 1 {
			moved, err = scrollable.Relative(count - 1)
			if err != nil {
				return false, database.WrapExecutionError(err, "skipping %d rows", count)
			}
			return moved, nil
		}
	case count < 0:
		moved, err := scrollable.Previous()
		if err != nil {
			return false, database.WrapExecutionError(err, "skipping %d rows", count)
		}
		if !moved {
			return false, nil
		}
		if count < -1 {
			moved, err = scrollable.Relative(count + 1)
			if err != nil {
				return false, database.WrapExecutionError(err, "skipping %d rows", count)
			}
			return moved, nil
		}
	}
	return true, nil
}

// Value returns the current row's cell at index, interpreted according to
// the column's declared data type. An out-of-range index is an
// ErrInvalidArgument; driver and conversion failures surface as
// ErrQueryExecution.
func (r *Reader) Value(index int) (interface{}, error) {
	if r.cursor == nil {
		return nil, errors.Wrap(database.ErrInvalidState, "reader is not open")
	}
	if index < 0 || index >= len(r.columns) {
		return nil, errors.Wrapf(database.ErrInvalidArgument, "index %d out of range [0, %d)",
			index, len(r.columns))
	}
	raw, err := r.cursor.Value(index)
	if err != nil {
		return nil, database.WrapExecutionError(err, "reading value at index %d", index)
	}
	value, err := database.ConvertValue(raw, r.columns[index].DataType())
	if err != nil {
		return nil, database.WrapExecutionError(err, "converting value at index %d", index)
	}
	return value, nil
}

// IsNull reports whether the current row's cell at index is SQL NULL. The
// live cursor is consulted directly, so the answer reflects the true
// current-row null-ness even if a previous read of the same cell failed to
// convert. Unlike Value, IsNull is lenient: an out-of-range index or a
// cursor failure is logged and reported as null rather than failing.
func (r *Reader) IsNull(index int) bool {
	if r.cursor == nil {
		log.Errorf("IsNull called on a closed reader")
		return true
	}
	if index < 0 || index >= len(r.columns) {
		log.Errorf("IsNull index out of range: %d", index)
		return true
	}
	isNull, err := r.cursor.IsNull(index)
	if err != nil {
		log.Errorf("IsNull failed for index %d: %s", index, err)
		return true
	}
	return isNull
}

// FieldIndex resolves a column expression to its position in the row.
// Resolution first attempts an exact identity match against the open column
// list; for actual columns it then falls back to matching each result
// column's source column, with one further level of indirection when the
// source column belongs to a nested query's projection. This supports
// looking up a column through an alias or computed projection of it.
// Results, including misses, are cached for the life of the open cursor.
// Returns -1 if the column cannot be resolved.
func (r *Reader) FieldIndex(column database.ColumnExpr) int {
	if r.fieldIndexMap == nil {
		return r.findFieldIndex(column)
	}
	index, ok := r.fieldIndexMap[column]
	if !ok {
		index = r.findFieldIndex(column)
		r.fieldIndexMap[column] = index
	}
	return index
}

// FieldIndexByName resolves a column name to its position in the row using
// case-insensitive comparison, or -1 if no column carries that name. Name
// lookups are not cached and have no source-column fallback.
func (r *Reader) FieldIndexByName(name string) int {
	for i, column := range r.columns {
		if strings.EqualFold(column.Name(), name) {
			return i
		}
	}
	return -1
}

func (r *Reader) findFieldIndex(column database.ColumnExpr) int {
	// First chance: exact identity match.
	for i, c := range r.columns {
		if c == column {
			return i
		}
	}
	// Second chance: match against each result column's source column.
	if col, ok := column.(database.Column); ok {
		for i, c := range r.columns {
			source := c.SourceColumn()
			if source == nil {
				continue
			}
			if source == col {
				return i
			}
			// A query column projects an expression of the nested
			// query, follow it one more level.
			if queryColumn, ok := source.(database.QueryColumn); ok {
				expr := queryColumn.Expr()
				if expr == nil {
					continue
				}
				if innerSource := expr.SourceColumn(); innerSource != nil &&
					innerSource == column {
					return i
				}
			}
		}
	}
	return -1
}
