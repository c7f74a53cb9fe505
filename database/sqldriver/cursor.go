package sqldriver

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/infrastructure/logger"
)

// forwardCursor streams rows directly off an open *sql.Rows.
type forwardCursor struct {
	rows    *sql.Rows
	current []interface{}
	closed  bool
}

func newForwardCursor(rows *sql.Rows) (*forwardCursor, error) {
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, errors.Wrap(err, "reading result columns")
	}
	return &forwardCursor{rows: rows, current: make([]interface{}, len(columns))}, nil
}

// Next implements the database.Cursor interface.
func (c *forwardCursor) Next() (bool, error) {
	if c.closed {
		return false, nil
	}
	if !c.rows.Next() {
		if err := c.rows.Err(); err != nil {
			return false, errors.Wrap(err, "advancing result row")
		}
		return false, nil
	}
	err := scanRow(c.rows, c.current)
	if err != nil {
		return false, err
	}
	return true, nil
}

// Value implements the database.Cursor interface.
func (c *forwardCursor) Value(index int) (interface{}, error) {
	if index < 0 || index >= len(c.current) {
		return nil, errors.Errorf("column index %d out of range [0, %d)", index, len(c.current))
	}
	return c.current[index], nil
}

// IsNull implements the database.Cursor interface.
func (c *forwardCursor) IsNull(index int) (bool, error) {
	value, err := c.Value(index)
	if err != nil {
		return false, err
	}
	return value == nil, nil
}

// Close implements the database.Cursor interface.
func (c *forwardCursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.rows.Close()
}

// bufferedCursor materializes the whole result set up front so the cursor
// can move freely in both directions. The backing *sql.Rows is drained and
// closed before the cursor is handed out.
type bufferedCursor struct {
	buffer [][]interface{}
	// pos is the current row, -1 before the first row and len(buffer)
	// after the last.
	pos    int
	closed bool
}

func newBufferedCursor(rows *sql.Rows) (*bufferedCursor, error) {
	defer logger.LogAndMeasureExecutionTime(log, "newBufferedCursor")()
	columns, err := rows.Columns()
	if err != nil {
		_ = rows.Close()
		return nil, errors.Wrap(err, "reading result columns")
	}
	var buffer [][]interface{}
	for rows.Next() {
		row := make([]interface{}, len(columns))
		err = scanRow(rows, row)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		buffer = append(buffer, row)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, errors.Wrap(err, "buffering result rows")
	}
	err = rows.Close()
	if err != nil {
		return nil, errors.Wrap(err, "closing buffered result")
	}
	log.Debugf("Buffered %d rows for a scrollable cursor", len(buffer))
	return &bufferedCursor{buffer: buffer, pos: -1}, nil
}

// Next implements the database.Cursor interface.
func (c *bufferedCursor) Next() (bool, error) {
	if c.closed {
		return false, nil
	}
	if c.pos >= len(c.buffer) {
		return false, nil
	}
	c.pos++
	return c.pos < len(c.buffer), nil
}

// Previous implements the database.ScrollableCursor interface.
func (c *bufferedCursor) Previous() (bool, error) {
	if c.closed {
		return false, nil
	}
	if c.pos < 0 {
		return false, nil
	}
	c.pos--
	return c.pos >= 0, nil
}

// Relative implements the database.ScrollableCursor interface.
func (c *bufferedCursor) Relative(rows int) (bool, error) {
	if c.closed {
		return false, nil
	}
	pos := c.pos + rows
	if pos < 0 {
		c.pos = -1
		return false, nil
	}
	if pos >= len(c.buffer) {
		c.pos = len(c.buffer)
		return false, nil
	}
	c.pos = pos
	return true, nil
}

// HasNext implements the database.ScrollableCursor interface.
func (c *bufferedCursor) HasNext() (bool, error) {
	if c.closed {
		return false, nil
	}
	return c.pos < len(c.buffer)-1, nil
}

// Value implements the database.Cursor interface.
func (c *bufferedCursor) Value(index int) (interface{}, error) {
	row, err := c.currentRow()
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(row) {
		return nil, errors.Errorf("column index %d out of range [0, %d)", index, len(row))
	}
	return row[index], nil
}

// IsNull implements the database.Cursor interface.
func (c *bufferedCursor) IsNull(index int) (bool, error) {
	value, err := c.Value(index)
	if err != nil {
		return false, err
	}
	return value == nil, nil
}

// Close implements the database.Cursor interface.
func (c *bufferedCursor) Close() error {
	c.closed = true
	c.buffer = nil
	return nil
}

func (c *bufferedCursor) currentRow() ([]interface{}, error) {
	if c.closed || c.pos < 0 || c.pos >= len(c.buffer) {
		return nil, errors.New("cursor is not positioned on a row")
	}
	return c.buffer[c.pos], nil
}

// scanRow scans the current row of rows into dest as raw driver values.
func scanRow(rows *sql.Rows, dest []interface{}) error {
	pointers := make([]interface{}, len(dest))
	for i := range dest {
		dest[i] = nil
		pointers[i] = &dest[i]
	}
	err := rows.Scan(pointers...)
	if err != nil {
		return errors.Wrap(err, "scanning result row")
	}
	return nil
}
