// Package sqldriver binds the database package's collaborator contracts to
// the standard library's database/sql, so any registered driver can serve
// as the execution primitive. Scrollable cursors are simulated by buffering
// the result set in memory, since database/sql result sets are forward-only.
package sqldriver

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/database"
)

// Querier is the subset of *sql.DB and *sql.Tx used to execute queries.
type Querier interface {
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// Connection adapts a Querier to the database.Connection contract. Each
// Connection value is a distinct session identity; create one per
// transaction-scoped unit of work.
type Connection struct {
	q Querier
}

// NewConnection wraps q, typically a *sql.DB or a *sql.Tx.
func NewConnection(q Querier) *Connection {
	return &Connection{q: q}
}

// Query implements the database.Connection interface.
func (c *Connection) Query(sqlText string, params []interface{}, scrollable bool) (database.Cursor, error) {
	rows, err := c.q.Query(sqlText, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "executing statement %s", sqlText)
	}
	if scrollable {
		return newBufferedCursor(rows)
	}
	return newForwardCursor(rows)
}

// BuildCommand executes sqlText once to resolve its result column metadata
// and returns an opaque command carrying the derived column descriptors.
// The probe run fetches no rows. Intended for callers that hold raw SQL
// with no model of its projection, such as ad-hoc query tools.
func BuildCommand(q Querier, sqlText string, params ...interface{}) (*database.TextCommand, error) {
	rows, err := q.Query(sqlText, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "describing statement %s", sqlText)
	}
	defer func() {
		closeErr := rows.Close()
		if closeErr != nil {
			log.Warnf("Closing describe result failed: %s", closeErr)
		}
	}()
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, errors.Wrapf(err, "describing statement %s", sqlText)
	}
	columns := make([]database.ColumnExpr, len(columnTypes))
	for i, columnType := range columnTypes {
		columns[i] = NewColumn(columnType.Name(), dataTypeFromSQL(columnType.DatabaseTypeName()))
	}
	return database.NewTextCommand(sqlText, columns, params...), nil
}
