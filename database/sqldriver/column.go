package sqldriver

import (
	"strings"

	"github.com/skytin1004/empire-db/database"
)

// SQLColumn is a plain column descriptor derived from driver metadata. It
// has no source column.
type SQLColumn struct {
	name     string
	dataType database.DataType
}

// NewColumn creates a column descriptor with the given name and data type.
func NewColumn(name string, dataType database.DataType) *SQLColumn {
	return &SQLColumn{name: name, dataType: dataType}
}

// Name implements the database.ColumnExpr interface.
func (c *SQLColumn) Name() string {
	return c.name
}

// DataType implements the database.ColumnExpr interface.
func (c *SQLColumn) DataType() database.DataType {
	return c.dataType
}

// SourceColumn implements the database.ColumnExpr interface.
func (c *SQLColumn) SourceColumn() database.Column {
	return nil
}

// dataTypeFromSQL maps a driver's database type name to a DataType. Names
// the mapping does not know degrade to DataTypeUnknown, which passes raw
// values through unconverted.
func dataTypeFromSQL(typeName string) database.DataType {
	switch strings.ToUpper(typeName) {
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT", "SERIAL":
		return database.DataTypeInteger
	case "FLOAT", "DOUBLE", "REAL":
		return database.DataTypeFloat
	case "DECIMAL", "NUMERIC", "MONEY":
		return database.DataTypeDecimal
	case "BOOL", "BOOLEAN", "BIT":
		return database.DataTypeBool
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "LONGTEXT", "CLOB":
		return database.DataTypeText
	case "DATE":
		return database.DataTypeDate
	case "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return database.DataTypeTimestamp
	case "BINARY", "VARBINARY", "BLOB", "LONGBLOB", "BYTEA":
		return database.DataTypeBytes
	default:
		return database.DataTypeUnknown
	}
}
