package reader

import (
	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/database"
)

// stubColumn is a plain column descriptor for tests.
type stubColumn struct {
	name     string
	dataType database.DataType
	source   database.Column
}

func (c *stubColumn) Name() string                  { return c.name }
func (c *stubColumn) DataType() database.DataType   { return c.dataType }
func (c *stubColumn) SourceColumn() database.Column { return c.source }

func col(name string, dataType database.DataType) *stubColumn {
	return &stubColumn{name: name, dataType: dataType}
}

// stubQueryColumn is a nested query's projection column.
type stubQueryColumn struct {
	stubColumn
	expr database.ColumnExpr
}

func (c *stubQueryColumn) Expr() database.ColumnExpr { return c.expr }

// stubCursor is a forward-only cursor over fixed rows.
type stubCursor struct {
	rows    [][]interface{}
	pos     int
	closed  bool
	nextErr error
}

func newStubCursor(rows [][]interface{}) *stubCursor {
	return &stubCursor{rows: rows, pos: -1}
}

func (c *stubCursor) Next() (bool, error) {
	if c.nextErr != nil {
		return false, c.nextErr
	}
	if c.pos >= len(c.rows) {
		return false, nil
	}
	c.pos++
	return c.pos < len(c.rows), nil
}

func (c *stubCursor) Value(index int) (interface{}, error) {
	row, err := c.currentRow()
	if err != nil {
		return nil, err
	}
	return row[index], nil
}

func (c *stubCursor) IsNull(index int) (bool, error) {
	row, err := c.currentRow()
	if err != nil {
		return false, err
	}
	return row[index] == nil, nil
}

func (c *stubCursor) Close() error {
	c.closed = true
	return nil
}

func (c *stubCursor) currentRow() ([]interface{}, error) {
	if c.closed || c.pos < 0 || c.pos >= len(c.rows) {
		return nil, errors.New("not positioned on a row")
	}
	return c.rows[c.pos], nil
}

// stubScrollableCursor adds free positioning on top of stubCursor.
type stubScrollableCursor struct {
	stubCursor
}

func newStubScrollableCursor(rows [][]interface{}) *stubScrollableCursor {
	return &stubScrollableCursor{stubCursor{rows: rows, pos: -1}}
}

func (c *stubScrollableCursor) Previous() (bool, error) {
	if c.pos < 0 {
		return false, nil
	}
	c.pos--
	return c.pos >= 0, nil
}

func (c *stubScrollableCursor) Relative(rows int) (bool, error) {
	pos := c.pos + rows
	if pos < 0 {
		c.pos = -1
		return false, nil
	}
	if pos >= len(c.rows) {
		c.pos = len(c.rows)
		return false, nil
	}
	c.pos = pos
	return true, nil
}

func (c *stubScrollableCursor) HasNext() (bool, error) {
	return c.pos < len(c.rows)-1, nil
}

// stubConnection hands out stub cursors and records the last executed
// statement.
type stubConnection struct {
	rows       [][]interface{}
	queryErr   error
	nilCursor  bool
	lastSQL    string
	lastParams []interface{}
	cursors    []database.Cursor
}

func (c *stubConnection) Query(sql string, params []interface{}, scrollable bool) (database.Cursor, error) {
	c.lastSQL = sql
	c.lastParams = params
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	if c.nilCursor {
		return nil, nil
	}
	var cursor database.Cursor
	if scrollable {
		cursor = newStubScrollableCursor(c.rows)
	} else {
		cursor = newStubCursor(c.rows)
	}
	c.cursors = append(c.cursors, cursor)
	return cursor, nil
}

// stubCommand is an opaque command with an optional join graph.
type stubCommand struct {
	sql     string
	columns []database.ColumnExpr
	params  []interface{}
	joins   []database.JoinExpr
}

func (c *stubCommand) Select() string                       { return c.sql }
func (c *stubCommand) SelectColumns() []database.ColumnExpr { return c.columns }
func (c *stubCommand) ParamValues() []interface{}           { return c.params }
func (c *stubCommand) Joins() []database.JoinExpr           { return c.joins }

type stubJoin struct {
	left, right database.RowSet
}

func (j *stubJoin) LeftTable() database.RowSet  { return j.left }
func (j *stubJoin) RightTable() database.RowSet { return j.right }

type stubTable struct {
	name string
}

func (t *stubTable) Name() string { return t.name }

type stubQuery struct {
	name string
	cmd  database.Command
}

func (q *stubQuery) Name() string              { return q.name }
func (q *stubQuery) Command() database.Command { return q.cmd }
