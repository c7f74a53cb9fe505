package reader

import (
	"math"

	"github.com/pkg/errors"

	"github.com/skytin1004/empire-db/database"
)

// RowIterator iterates the rows of an open reader. At most one iterator per
// reader may be live at a time; closing the reader invalidates it.
//
// Movement failures do not panic and are not returned inline: HasNext
// reports false and Next reports nil, and the failure is available through
// Err afterwards, so the usual iteration loop stays uncluttered.
type RowIterator interface {
	// HasNext reports whether another row can be read.
	HasNext() bool

	// Next moves to the next row and returns it, or nil when the
	// iterator is exhausted, its row bound is reached, or a movement
	// failure occurred.
	Next() Row

	// Err returns the first failure encountered while iterating, or nil.
	Err() error

	// Count returns the number of rows consumed so far.
	Count() int
}

// iteratorState is the bookkeeping shared by both iterator variants.
type iteratorState struct {
	r        *Reader
	curCount int
	maxCount int
	err      error
	disposed bool
}

func newIteratorState(r *Reader, maxCount int) iteratorState {
	if maxCount < 0 {
		maxCount = math.MaxInt32
	}
	return iteratorState{r: r, maxCount: maxCount}
}

// Count implements the RowIterator interface.
func (s *iteratorState) Count() int {
	return s.curCount
}

// Err implements the RowIterator interface.
func (s *iteratorState) Err() error {
	return s.err
}

// dispose invalidates the iterator, keeping the consumed-row counter
// readable. Called when its reader closes.
func (s *iteratorState) dispose() {
	s.disposed = true
}

func (s *iteratorState) exhausted() bool {
	return s.disposed || s.err != nil || s.curCount >= s.maxCount
}

func (s *iteratorState) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

// Iterator returns a row iterator over the reader, yielding at most
// maxCount rows (every remaining row when maxCount is negative). The
// iterator variant follows the cursor: a scrollable cursor gets a
// side-effect-free HasNext, a forward-only cursor gets the peeking variant
// described on ForwardIterator.
//
// Only one live iterator per reader is supported. Requesting a second one
// while the first is still live is a caller error; it is logged and the
// existing iterator is returned. Returns nil if the reader is not open.
func (r *Reader) Iterator(maxCount int) RowIterator {
	if r.cursor == nil {
		return nil
	}
	if r.iter != nil {
		log.Errorf("Iterator requested while a previous iterator is still live; returning the existing one")
		return r.iter.(RowIterator)
	}
	var iter RowIterator
	if r.Scrollable() {
		iter = &scrollableIterator{newIteratorState(r, maxCount)}
	} else {
		iter = &ForwardIterator{iteratorState: newIteratorState(r, maxCount)}
	}
	r.iter = iter.(disposable)
	return iter
}

// scrollableIterator iterates a cursor that supports free positioning, so
// HasNext can peek beyond the current row without consuming it.
type scrollableIterator struct {
	iteratorState
}

// HasNext implements the RowIterator interface. It never moves the cursor.
func (it *scrollableIterator) HasNext() bool {
	if it.exhausted() {
		return false
	}
	cursor, ok := it.r.cursor.(database.ScrollableCursor)
	if !ok {
		return false
	}
	hasNext, err := cursor.HasNext()
	if err != nil {
		it.fail(database.WrapExecutionError(err, "checking for next row"))
		return false
	}
	return hasNext
}

// Next implements the RowIterator interface.
func (it *scrollableIterator) Next() Row {
	if it.exhausted() {
		return nil
	}
	moved, err := it.r.MoveNext()
	if err != nil {
		it.fail(err)
		return nil
	}
	if !moved {
		return nil
	}
	it.curCount++
	return it.r
}

// ForwardIterator iterates a forward-only cursor. Such a cursor cannot
// peek, so HasNext itself advances the cursor to discover whether a row is
// available and caches the outcome; repeated HasNext calls without an
// intervening Next return the cached outcome without advancing again.
//
// As a consequence, after calling HasNext any row accessor referring to the
// previously-yielded row is no longer valid, because the cursor has already
// physically advanced:
//
//	for it.HasNext() {
//		row := it.Next()
//		v, _ := row.Value(0)  // ok
//
//		last := it.HasNext()
//		v, _ = row.Value(0)   // illegal: row now refers to the next row
//	}
type ForwardIterator struct {
	iteratorState

	// peeked reports whether HasNext has advanced the cursor since the
	// last consumed row; peekResult caches what it found.
	peeked     bool
	peekResult bool
}

// HasNext implements the RowIterator interface. The first call after a
// consumed row advances the cursor; further calls return the cached
// outcome.
func (it *ForwardIterator) HasNext() bool {
	if it.exhausted() {
		return false
	}
	if it.peeked {
		return it.peekResult
	}
	if !it.r.IsOpen() {
		it.fail(errors.Wrap(database.ErrInvalidState, "iterating a closed reader"))
		return false
	}
	moved, err := it.r.MoveNext()
	if err != nil {
		it.fail(err)
		return false
	}
	it.peeked = true
	it.peekResult = moved
	return moved
}

// Next implements the RowIterator interface. It consumes the row HasNext
// already advanced to, or performs the move itself when called without a
// preceding HasNext.
func (it *ForwardIterator) Next() Row {
	if it.exhausted() {
		return nil
	}
	if it.peeked {
		if !it.peekResult {
			return nil
		}
		it.peeked = false
	} else {
		moved, err := it.r.MoveNext()
		if err != nil {
			it.fail(err)
			return nil
		}
		if !moved {
			return nil
		}
	}
	it.curCount++
	return it.r
}
