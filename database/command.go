package database

// Command is an opaque executable query unit: a fully-generated SQL select
// statement, the column expressions it selects, and the ordered parameter
// values bound to its placeholders. How the SQL text is produced is outside
// the scope of this package.
type Command interface {
	// Select returns the SQL select statement.
	Select() string

	// SelectColumns returns the ordered column expressions selected by
	// the statement, one per result column.
	SelectColumns() []ColumnExpr

	// ParamValues returns the ordered parameter values the caller bound
	// to the statement, or nil if none were bound.
	ParamValues() []interface{}
}

// JoinedCommand is a Command that exposes its join graph. Nested subqueries
// reachable through the joins may carry their own bound parameters, which
// have to be spliced onto the outer parameter list before execution.
type JoinedCommand interface {
	Command

	// Joins returns the command's join expressions, or nil if the command
	// joins nothing.
	Joins() []JoinExpr
}

// JoinExpr is a single join between two row sets.
type JoinExpr interface {
	// LeftTable returns the left side of the join.
	LeftTable() RowSet

	// RightTable returns the right side of the join.
	RightTable() RowSet
}

// RowSet is anything a command can select from or join against: a table, a
// view, or a nested query.
type RowSet interface {
	// Name returns the row set's name or alias.
	Name() string
}

// Query is a RowSet backed by a nested command. Joining a Query pulls that
// command's own parameters into the outer statement.
type Query interface {
	RowSet

	// Command returns the nested command this query wraps.
	Command() Command
}

// TextCommand is a Command over caller-supplied SQL text. It performs no
// generation or validation of the statement.
type TextCommand struct {
	sql     string
	columns []ColumnExpr
	params  []interface{}
}

// NewTextCommand returns a Command for the given SQL select statement,
// selected column expressions and bound parameter values.
func NewTextCommand(sql string, columns []ColumnExpr, params ...interface{}) *TextCommand {
	return &TextCommand{sql: sql, columns: columns, params: params}
}

// Select implements the Command interface.
func (c *TextCommand) Select() string {
	return c.sql
}

// SelectColumns implements the Command interface.
func (c *TextCommand) SelectColumns() []ColumnExpr {
	return c.columns
}

// ParamValues implements the Command interface.
func (c *TextCommand) ParamValues() []interface{} {
	return c.params
}
