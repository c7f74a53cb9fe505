package reader

import (
	"strings"
	"testing"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/skytin1004/empire-db/database"
)

func testColumns() []database.ColumnExpr {
	return []database.ColumnExpr{
		col("id", database.DataTypeInteger),
		col("name", database.DataTypeText),
		col("created", database.DataTypeTimestamp),
	}
}

func testRows() [][]interface{} {
	return [][]interface{}{
		{int64(1), "alpha", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{int64(2), "beta", time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
		{int64(3), nil, time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
}

func openTestReader(t *testing.T, testName string, scrollable bool) (*Reader, *stubConnection) {
	conn := &stubConnection{rows: testRows()}
	cmd := &stubCommand{sql: "SELECT id, name, created FROM things", columns: testColumns()}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, scrollable, conn)
	if err != nil {
		t.Fatalf("%s: Open unexpectedly failed: %s", testName, err)
	}
	return r, conn
}

func TestOpenAndClose(t *testing.T) {
	r, conn := openTestReader(t, "TestOpenAndClose", false)
	if !r.IsOpen() {
		t.Fatalf("TestOpenAndClose: reader is not open after Open")
	}
	if r.FieldCount() != 3 {
		t.Fatalf("TestOpenAndClose: expected 3 fields, got %d", r.FieldCount())
	}
	if r.Scrollable() {
		t.Fatalf("TestOpenAndClose: forward-only reader reports scrollable")
	}
	r.Close()
	if r.IsOpen() {
		t.Fatalf("TestOpenAndClose: reader is still open after Close")
	}
	if !conn.cursors[0].(*stubCursor).closed {
		t.Fatalf("TestOpenAndClose: underlying cursor was not closed")
	}
	// Closing twice is a no-op.
	r.Close()
}

func TestOpenWhileOpenClosesFirstCursor(t *testing.T) {
	tracker := NewTracker()
	tracker.Enable(true)
	conn := &stubConnection{rows: testRows()}
	cmd := &stubCommand{sql: "SELECT id, name, created FROM things", columns: testColumns()}
	r := NewWithTracker(tracker)
	for i := 0; i < 2; i++ {
		err := r.Open(cmd, false, conn)
		if err != nil {
			t.Fatalf("TestOpenWhileOpenClosesFirstCursor: Open %d unexpectedly failed: %s", i, err)
		}
	}
	if !conn.cursors[0].(*stubCursor).closed {
		t.Fatalf("TestOpenWhileOpenClosesFirstCursor: first cursor was not closed by the second Open")
	}
	if conn.cursors[1].(*stubCursor).closed {
		t.Fatalf("TestOpenWhileOpenClosesFirstCursor: second cursor is unexpectedly closed")
	}
	leaks, err := tracker.Audit()
	if err != nil {
		t.Fatalf("TestOpenWhileOpenClosesFirstCursor: Audit unexpectedly failed: %s", err)
	}
	if len(leaks) != 1 {
		t.Fatalf("TestOpenWhileOpenClosesFirstCursor: expected exactly 1 open entry, got %d: %s",
			len(leaks), spew.Sdump(leaks))
	}
}

func TestMoveNextAutoClosesOnExhaustion(t *testing.T) {
	r, _ := openTestReader(t, "TestMoveNextAutoClosesOnExhaustion", false)
	for i := 0; i < 3; i++ {
		moved, err := r.MoveNext()
		if err != nil {
			t.Fatalf("TestMoveNextAutoClosesOnExhaustion: MoveNext %d unexpectedly failed: %s", i, err)
		}
		if !moved {
			t.Fatalf("TestMoveNextAutoClosesOnExhaustion: MoveNext %d unexpectedly reported end", i)
		}
	}
	moved, err := r.MoveNext()
	if err != nil {
		t.Fatalf("TestMoveNextAutoClosesOnExhaustion: MoveNext past the end unexpectedly failed: %s", err)
	}
	if moved {
		t.Fatalf("TestMoveNextAutoClosesOnExhaustion: MoveNext past the end reported a row")
	}
	if r.IsOpen() {
		t.Fatalf("TestMoveNextAutoClosesOnExhaustion: reader was not auto-closed on exhaustion")
	}
	_, err = r.MoveNext()
	if !database.IsInvalidStateError(err) {
		t.Fatalf("TestMoveNextAutoClosesOnExhaustion: MoveNext on closed reader returned %v, "+
			"expected an invalid state error", err)
	}
}

func TestValueAndIsNull(t *testing.T) {
	r, _ := openTestReader(t, "TestValueAndIsNull", false)
	defer r.Close()
	moved, err := r.MoveNext()
	if err != nil || !moved {
		t.Fatalf("TestValueAndIsNull: MoveNext failed: moved=%t err=%s", moved, err)
	}
	id, err := r.Value(0)
	if err != nil {
		t.Fatalf("TestValueAndIsNull: Value(0) unexpectedly failed: %s", err)
	}
	if id != int64(1) {
		t.Fatalf("TestValueAndIsNull: expected id 1, got %v", id)
	}
	name, err := r.Value(1)
	if err != nil {
		t.Fatalf("TestValueAndIsNull: Value(1) unexpectedly failed: %s", err)
	}
	if name != "alpha" {
		t.Fatalf("TestValueAndIsNull: expected name alpha, got %v", name)
	}
	if r.IsNull(1) {
		t.Fatalf("TestValueAndIsNull: non-null cell reported null")
	}

	_, err = r.Value(3)
	if !database.IsInvalidArgumentError(err) {
		t.Fatalf("TestValueAndIsNull: Value(3) returned %v, expected an invalid argument error", err)
	}
	// IsNull is lenient with bad indexes.
	if !r.IsNull(3) {
		t.Fatalf("TestValueAndIsNull: IsNull with an out-of-range index did not degrade to null")
	}

	// Row 3 carries a NULL name.
	for i := 0; i < 2; i++ {
		if moved, err := r.MoveNext(); err != nil || !moved {
			t.Fatalf("TestValueAndIsNull: MoveNext failed: moved=%t err=%s", moved, err)
		}
	}
	if !r.IsNull(1) {
		t.Fatalf("TestValueAndIsNull: NULL cell not reported null")
	}
	value, err := r.Value(1)
	if err != nil {
		t.Fatalf("TestValueAndIsNull: Value of NULL cell unexpectedly failed: %s", err)
	}
	if value != nil {
		t.Fatalf("TestValueAndIsNull: Value of NULL cell returned %v", value)
	}
}

func TestValueOnClosedReader(t *testing.T) {
	r, _ := openTestReader(t, "TestValueOnClosedReader", false)
	r.Close()
	_, err := r.Value(0)
	if !database.IsInvalidStateError(err) {
		t.Fatalf("TestValueOnClosedReader: Value returned %v, expected an invalid state error", err)
	}
	// The IsNull leniency extends to the closed state.
	if !r.IsNull(0) {
		t.Fatalf("TestValueOnClosedReader: IsNull on closed reader did not degrade to null")
	}
}

func TestReadRecord(t *testing.T) {
	conn := &stubConnection{rows: testRows()}
	cmd := &stubCommand{sql: "SELECT id, name, created FROM things", columns: testColumns()}
	r := NewWithTracker(NewTracker())
	err := r.ReadRecord(cmd, conn)
	if err != nil {
		t.Fatalf("TestReadRecord: ReadRecord unexpectedly failed: %s", err)
	}
	id, err := r.Value(0)
	if err != nil || id != int64(1) {
		t.Fatalf("TestReadRecord: expected to be positioned on the first row, got %v (err=%s)", id, err)
	}
	r.Close()

	emptyConn := &stubConnection{}
	err = r.ReadRecord(cmd, emptyConn)
	if !database.IsNoResultError(err) {
		t.Fatalf("TestReadRecord: empty result returned %v, expected a no result error", err)
	}
}

func TestOpenFailures(t *testing.T) {
	cmd := &stubCommand{sql: "SELECT 1", columns: testColumns()}

	execErr := &stubConnection{queryErr: timeoutError{}}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, false, execErr)
	if !database.IsQueryExecutionError(err) {
		t.Fatalf("TestOpenFailures: execution failure returned %v, expected a query execution error", err)
	}
	if r.IsOpen() {
		t.Fatalf("TestOpenFailures: reader is open after a failed Open")
	}

	noCursor := &stubConnection{nilCursor: true}
	err = r.Open(cmd, false, noCursor)
	if !database.IsNoResultError(err) {
		t.Fatalf("TestOpenFailures: nil cursor returned %v, expected a no result error", err)
	}
}

type timeoutError struct{}

func (timeoutError) Error() string { return "driver: connection timed out" }

func TestSkipRowsForwardOnly(t *testing.T) {
	r, _ := openTestReader(t, "TestSkipRowsForwardOnly", false)
	defer r.Close()

	_, err := r.SkipRows(-2)
	if !database.IsInvalidArgumentError(err) {
		t.Fatalf("TestSkipRowsForwardOnly: negative skip returned %v, "+
			"expected an invalid argument error", err)
	}

	onRow, err := r.SkipRows(2)
	if err != nil {
		t.Fatalf("TestSkipRowsForwardOnly: SkipRows(2) unexpectedly failed: %s", err)
	}
	if !onRow {
		t.Fatalf("TestSkipRowsForwardOnly: SkipRows(2) unexpectedly reported end")
	}
	id, err := r.Value(0)
	if err != nil || id != int64(2) {
		t.Fatalf("TestSkipRowsForwardOnly: expected row 2, got %v (err=%s)", id, err)
	}

	onRow, err = r.SkipRows(5)
	if err != nil {
		t.Fatalf("TestSkipRowsForwardOnly: skipping past the end unexpectedly failed: %s", err)
	}
	if onRow {
		t.Fatalf("TestSkipRowsForwardOnly: skipping past the end reported a row")
	}
}

func TestSkipRowsScrollable(t *testing.T) {
	rows := make([][]interface{}, 6)
	for i := range rows {
		rows[i] = []interface{}{int64(i + 1)}
	}
	conn := &stubConnection{rows: rows}
	cmd := &stubCommand{sql: "SELECT id FROM things", columns: []database.ColumnExpr{
		col("id", database.DataTypeInteger)}}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, true, conn)
	if err != nil {
		t.Fatalf("TestSkipRowsScrollable: Open unexpectedly failed: %s", err)
	}
	defer r.Close()
	if !r.Scrollable() {
		t.Fatalf("TestSkipRowsScrollable: reader is not scrollable")
	}

	// Move to row 5.
	onRow, err := r.SkipRows(5)
	if err != nil || !onRow {
		t.Fatalf("TestSkipRowsScrollable: SkipRows(5) failed: onRow=%t err=%s", onRow, err)
	}
	if id, _ := r.Value(0); id != int64(5) {
		t.Fatalf("TestSkipRowsScrollable: expected row 5, got %v", id)
	}

	// Skip backward two rows, landing on row 3.
	onRow, err = r.SkipRows(-2)
	if err != nil || !onRow {
		t.Fatalf("TestSkipRowsScrollable: SkipRows(-2) failed: onRow=%t err=%s", onRow, err)
	}
	if id, _ := r.Value(0); id != int64(3) {
		t.Fatalf("TestSkipRowsScrollable: expected row 3, got %v", id)
	}

	// Skipping 0 rows is a no-op reporting true.
	onRow, err = r.SkipRows(0)
	if err != nil || !onRow {
		t.Fatalf("TestSkipRowsScrollable: SkipRows(0) failed: onRow=%t err=%s", onRow, err)
	}
	if id, _ := r.Value(0); id != int64(3) {
		t.Fatalf("TestSkipRowsScrollable: SkipRows(0) moved the cursor, now on %v", id)
	}

	// Skipping past either end reports false without failing.
	onRow, err = r.SkipRows(10)
	if err != nil {
		t.Fatalf("TestSkipRowsScrollable: skipping past the end unexpectedly failed: %s", err)
	}
	if onRow {
		t.Fatalf("TestSkipRowsScrollable: skipping past the end reported a row")
	}
	onRow, err = r.SkipRows(-10)
	if err != nil {
		t.Fatalf("TestSkipRowsScrollable: skipping before the start unexpectedly failed: %s", err)
	}
	if onRow {
		t.Fatalf("TestSkipRowsScrollable: skipping before the start reported a row")
	}
}

func TestFieldIndex(t *testing.T) {
	idCol := col("id", database.DataTypeInteger)
	nameCol := col("name", database.DataTypeText)
	// aliasCol projects nameCol under another name.
	aliasCol := &stubColumn{name: "label", dataType: database.DataTypeText, source: nameCol}
	columns := []database.ColumnExpr{idCol, aliasCol}

	conn := &stubConnection{rows: [][]interface{}{{int64(1), "x"}}}
	cmd := &stubCommand{sql: "SELECT id, name AS label FROM things", columns: columns}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, false, conn)
	if err != nil {
		t.Fatalf("TestFieldIndex: Open unexpectedly failed: %s", err)
	}
	defer r.Close()

	if index := r.FieldIndex(idCol); index != 0 {
		t.Fatalf("TestFieldIndex: exact match resolved to %d, expected 0", index)
	}
	// nameCol is not part of the row, but aliasCol's source column is.
	if index := r.FieldIndex(nameCol); index != 1 {
		t.Fatalf("TestFieldIndex: source column fallback resolved to %d, expected 1", index)
	}
	if index := r.FieldIndex(col("other", database.DataTypeText)); index != -1 {
		t.Fatalf("TestFieldIndex: unknown column resolved to %d, expected -1", index)
	}

	if index := r.FieldIndexByName("LABEL"); index != 1 {
		t.Fatalf("TestFieldIndex: case-insensitive name lookup resolved to %d, expected 1", index)
	}
	if index := r.FieldIndexByName("nope"); index != -1 {
		t.Fatalf("TestFieldIndex: unknown name resolved to %d, expected -1", index)
	}
}

func TestFieldIndexQueryColumnIndirection(t *testing.T) {
	wanted := col("price", database.DataTypeFloat)
	// The nested query projects wanted; the outer row selects an
	// expression whose source column is that projection.
	queryCol := &stubQueryColumn{
		stubColumn: stubColumn{name: "q0", dataType: database.DataTypeFloat},
		expr:       &stubColumn{name: "price", dataType: database.DataTypeFloat, source: wanted},
	}
	outer := &stubColumn{name: "total", dataType: database.DataTypeFloat, source: queryCol}

	conn := &stubConnection{rows: [][]interface{}{{1.5}}}
	cmd := &stubCommand{sql: "SELECT total FROM q", columns: []database.ColumnExpr{outer}}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, false, conn)
	if err != nil {
		t.Fatalf("TestFieldIndexQueryColumnIndirection: Open unexpectedly failed: %s", err)
	}
	defer r.Close()

	if index := r.FieldIndex(wanted); index != 0 {
		t.Fatalf("TestFieldIndexQueryColumnIndirection: resolved to %d, expected 0", index)
	}
}

func TestFieldIndexCacheClearedOnReopen(t *testing.T) {
	idCol := col("id", database.DataTypeInteger)
	nameCol := col("name", database.DataTypeText)
	conn := &stubConnection{rows: [][]interface{}{{int64(1), "x"}}}
	r := NewWithTracker(NewTracker())

	cmd := &stubCommand{sql: "q1", columns: []database.ColumnExpr{idCol, nameCol}}
	err := r.Open(cmd, false, conn)
	if err != nil {
		t.Fatalf("TestFieldIndexCacheClearedOnReopen: Open unexpectedly failed: %s", err)
	}
	if index := r.FieldIndex(nameCol); index != 1 {
		t.Fatalf("TestFieldIndexCacheClearedOnReopen: resolved to %d, expected 1", index)
	}

	// Reopen with the columns swapped; the cache must not serve stale
	// positions.
	swapped := &stubCommand{sql: "q2", columns: []database.ColumnExpr{nameCol, idCol}}
	err = r.Open(swapped, false, conn)
	if err != nil {
		t.Fatalf("TestFieldIndexCacheClearedOnReopen: reopen unexpectedly failed: %s", err)
	}
	defer r.Close()
	if index := r.FieldIndex(nameCol); index != 0 {
		t.Fatalf("TestFieldIndexCacheClearedOnReopen: resolved to %d after reopen, expected 0", index)
	}
}

func TestSubqueryParamSplicing(t *testing.T) {
	// The outer query supplies no parameters of its own; its join graph
	// reaches a subquery with two.
	subCmd := &stubCommand{sql: "SELECT x FROM sub WHERE a=? AND b=?", params: []interface{}{"p1", "p2"}}
	cmd := &stubCommand{
		sql:     "SELECT id FROM things t JOIN (SELECT ...) s",
		columns: []database.ColumnExpr{col("id", database.DataTypeInteger)},
		joins: []database.JoinExpr{&stubJoin{
			left:  &stubTable{name: "things"},
			right: &stubQuery{name: "s", cmd: subCmd},
		}},
	}
	conn := &stubConnection{rows: [][]interface{}{{int64(1)}}}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, false, conn)
	if err != nil {
		t.Fatalf("TestSubqueryParamSplicing: Open unexpectedly failed: %s", err)
	}
	defer r.Close()

	want := []interface{}{"p1", "p2"}
	if len(conn.lastParams) != len(want) {
		t.Fatalf("TestSubqueryParamSplicing: executed %d parameters, expected %d: %s",
			len(conn.lastParams), len(want), spew.Sdump(conn.lastParams))
	}
	for i := range want {
		if conn.lastParams[i] != want[i] {
			t.Fatalf("TestSubqueryParamSplicing: parameter %d is %v, expected %v",
				i, conn.lastParams[i], want[i])
		}
	}
}

func TestSubqueryParamSplicingRecursive(t *testing.T) {
	// innermost query carries one parameter; the middle query joins it
	// and carries one of its own.
	innerCmd := &stubCommand{sql: "inner", params: []interface{}{"deep"}}
	midCmd := &stubCommand{
		sql:    "mid",
		params: []interface{}{"shallow"},
		joins: []database.JoinExpr{&stubJoin{
			left:  &stubQuery{name: "i", cmd: innerCmd},
			right: &stubTable{name: "t"},
		}},
	}
	cmd := &stubCommand{
		sql:     "outer",
		columns: []database.ColumnExpr{col("id", database.DataTypeInteger)},
		joins: []database.JoinExpr{&stubJoin{
			left:  &stubTable{name: "things"},
			right: &stubQuery{name: "m", cmd: midCmd},
		}},
	}
	conn := &stubConnection{rows: [][]interface{}{{int64(1)}}}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, false, conn)
	if err != nil {
		t.Fatalf("TestSubqueryParamSplicingRecursive: Open unexpectedly failed: %s", err)
	}
	defer r.Close()

	want := []interface{}{"shallow", "deep"}
	if len(conn.lastParams) != len(want) {
		t.Fatalf("TestSubqueryParamSplicingRecursive: executed %d parameters, expected %d: %s",
			len(conn.lastParams), len(want), spew.Sdump(conn.lastParams))
	}
	for i := range want {
		if conn.lastParams[i] != want[i] {
			t.Fatalf("TestSubqueryParamSplicingRecursive: parameter %d is %v, expected %v",
				i, conn.lastParams[i], want[i])
		}
	}
}

func TestSubqueryParamCountMismatch(t *testing.T) {
	subCmd := &stubCommand{sql: "sub", params: []interface{}{"p1", "p2"}}
	cmd := &stubCommand{
		sql:     "outer",
		columns: []database.ColumnExpr{col("id", database.DataTypeInteger)},
		params:  []interface{}{"only"},
		joins: []database.JoinExpr{&stubJoin{
			left:  &stubTable{name: "things"},
			right: &stubQuery{name: "s", cmd: subCmd},
		}},
	}
	conn := &stubConnection{rows: [][]interface{}{{int64(1)}}}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, false, conn)
	if !database.IsInvalidQueryError(err) {
		t.Fatalf("TestSubqueryParamCountMismatch: Open returned %v, expected an invalid query error", err)
	}
	if !strings.Contains(err.Error(), "provided=1") || !strings.Contains(err.Error(), "required=2") {
		t.Fatalf("TestSubqueryParamCountMismatch: error does not name both counts: %s", err)
	}
}

func TestSubqueryParamCountMatchKeepsSupplied(t *testing.T) {
	subCmd := &stubCommand{sql: "sub", params: []interface{}{"s1", "s2"}}
	cmd := &stubCommand{
		sql:     "outer",
		columns: []database.ColumnExpr{col("id", database.DataTypeInteger)},
		params:  []interface{}{"o1", "o2"},
		joins: []database.JoinExpr{&stubJoin{
			left:  &stubTable{name: "things"},
			right: &stubQuery{name: "s", cmd: subCmd},
		}},
	}
	conn := &stubConnection{rows: [][]interface{}{{int64(1)}}}
	r := NewWithTracker(NewTracker())
	err := r.Open(cmd, false, conn)
	if err != nil {
		t.Fatalf("TestSubqueryParamCountMatchKeepsSupplied: Open unexpectedly failed: %s", err)
	}
	defer r.Close()
	if len(conn.lastParams) != 2 || conn.lastParams[0] != "o1" {
		t.Fatalf("TestSubqueryParamCountMatchKeepsSupplied: executed parameters %s, "+
			"expected the supplied ones", spew.Sdump(conn.lastParams))
	}
}
