package bamio

import (
	"github.com/grailbio/hts/sam"
)

// Iterator iterates over sam.Records in file order.
type Iterator interface {
	// Scan returns whether there are any records remaining in the iterator,
	// and if so, advances the iterator to the next record. If an error
	// occurs, Scan() returns false and the error can be retrieved by
	// calling Err().
	//
	// REQUIRES: Close has not been called.
	Scan() bool

	// Record returns the current record in the iterator. This must be
	// called only after a call to Scan() returns true.  The caller owns the
	// returned record.
	//
	// REQUIRES: Close has not been called.
	Record() *sam.Record

	// Err returns the error encountered during iteration, or nil if no error
	// occurred.  An io.EOF error will be translated to nil.
	Err() error

	// Close must be called exactly once. It returns the value of Err().
	Close() error
}

// Writer accepts records in the order they should appear in the output.
type Writer interface {
	Write(r *sam.Record) error
}

type errorIterator struct {
	err error
}

func (i *errorIterator) Scan() bool          { return false }
func (i *errorIterator) Record() *sam.Record { panic("shall not be called") }
func (i *errorIterator) Err() error          { return i.err }
func (i *errorIterator) Close() error        { return i.err }

// NewErrorIterator creates an Iterator that yields no record and returns "err"
// in Err and Close.
func NewErrorIterator(err error) Iterator {
	return &errorIterator{err: err}
}
