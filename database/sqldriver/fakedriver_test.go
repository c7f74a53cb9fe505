package sqldriver

import (
	"database/sql"
	"database/sql/driver"
	"io"
	"sync"

	"github.com/pkg/errors"
)

// fakeDriver is an in-memory database/sql driver serving canned results
// keyed by query text. It is registered once for the whole test package.
type fakeDriver struct {
	mtx     sync.Mutex
	results map[string]*fakeResult
}

// fakeResult is one canned result set, including the driver-side column
// type names used for metadata probing.
type fakeResult struct {
	columns  []string
	types    []string
	rows     [][]driver.Value
	queryErr error
}

var testDriver = &fakeDriver{results: make(map[string]*fakeResult)}

func init() {
	sql.Register("fakedb", testDriver)
}

func (d *fakeDriver) setResult(query string, result *fakeResult) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	d.results[query] = result
}

func (d *fakeDriver) result(query string) (*fakeResult, error) {
	d.mtx.Lock()
	defer d.mtx.Unlock()
	result, ok := d.results[query]
	if !ok {
		return nil, errors.Errorf("no canned result for query %s", query)
	}
	if result.queryErr != nil {
		return nil, result.queryErr
	}
	return result, nil
}

// Open implements the driver.Driver interface.
func (d *fakeDriver) Open(name string) (driver.Conn, error) {
	return &fakeConn{d: d}, nil
}

type fakeConn struct {
	d *fakeDriver
}

// Prepare implements the driver.Conn interface. The fake only serves direct
// queries.
func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepared statements are not supported")
}

// Close implements the driver.Conn interface.
func (c *fakeConn) Close() error {
	return nil
}

// Begin implements the driver.Conn interface.
func (c *fakeConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions are not supported")
}

// Query implements the driver.Queryer interface.
func (c *fakeConn) Query(query string, args []driver.Value) (driver.Rows, error) {
	result, err := c.d.result(query)
	if err != nil {
		return nil, err
	}
	return &fakeRows{result: result}, nil
}

type fakeRows struct {
	result *fakeResult
	pos    int
	closed bool
}

// Columns implements the driver.Rows interface.
func (r *fakeRows) Columns() []string {
	return r.result.columns
}

// ColumnTypeDatabaseTypeName implements the
// driver.RowsColumnTypeDatabaseTypeName interface.
func (r *fakeRows) ColumnTypeDatabaseTypeName(index int) string {
	return r.result.types[index]
}

// Close implements the driver.Rows interface.
func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

// Next implements the driver.Rows interface.
func (r *fakeRows) Next(dest []driver.Value) error {
	if r.closed || r.pos >= len(r.result.rows) {
		return io.EOF
	}
	copy(dest, r.result.rows[r.pos])
	r.pos++
	return nil
}
