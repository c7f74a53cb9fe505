package database

// DataType declares how a column's raw cursor values are to be interpreted.
type DataType int

// DataType constants.
const (
	DataTypeUnknown DataType = iota
	DataTypeInteger
	DataTypeFloat
	DataTypeDecimal
	DataTypeBool
	DataTypeText
	DataTypeDate
	DataTypeTimestamp
	DataTypeBytes
)

var dataTypeStrs = [...]string{"UNKNOWN", "INTEGER", "FLOAT", "DECIMAL",
	"BOOL", "TEXT", "DATE", "TIMESTAMP", "BYTES"}

func (dt DataType) String() string {
	if dt < 0 || int(dt) >= len(dataTypeStrs) {
		return "UNKNOWN"
	}
	return dataTypeStrs[dt]
}

// ColumnExpr describes one selected expression of an open cursor: its name,
// its declared data type, and - if the expression is an alias or projection
// of an actual table column - that source column.
//
// Expressions have identity semantics: the same ColumnExpr value used to
// build the query is used to look its position up in the result row, so
// implementations must be comparable (typically pointers).
type ColumnExpr interface {
	// Name returns the expression's result name.
	Name() string

	// DataType returns the declared data type used to interpret raw
	// cursor values of this expression.
	DataType() DataType

	// SourceColumn returns the table column this expression updates or
	// projects, or nil if the expression has no source column.
	SourceColumn() Column
}

// Column is a ColumnExpr that is an actual table or query column rather
// than a computed expression.
type Column interface {
	ColumnExpr
}

// QueryColumn is a Column of a nested query's projection. Its Expr returns
// the underlying expression inside the nested query, allowing one further
// level of source-column indirection during field index resolution.
type QueryColumn interface {
	Column

	// Expr returns the column expression this query column projects.
	Expr() ColumnExpr
}
