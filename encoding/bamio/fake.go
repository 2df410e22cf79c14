package bamio

import (
	"github.com/grailbio/hts/sam"
)

// fakeIterator is only for unittests. It yields copies of the given records.
type fakeIterator struct {
	recs []*sam.Record
	rec  *sam.Record
}

// NewFakeIterator creates an Iterator that yields a shallow copy of each of
// recs, in order.  The copies let the consumer modify aux fields without
// disturbing the caller's records.
func NewFakeIterator(recs []*sam.Record) Iterator {
	return &fakeIterator{recs: recs}
}

func (i *fakeIterator) Scan() bool {
	if len(i.recs) == 0 {
		return false
	}
	r := *i.recs[0]
	r.AuxFields = append(sam.AuxFields(nil), i.recs[0].AuxFields...)
	i.rec = &r
	i.recs = i.recs[1:]
	return true
}

func (i *fakeIterator) Record() *sam.Record { return i.rec }
func (i *fakeIterator) Err() error          { return nil }
func (i *fakeIterator) Close() error        { return nil }

// RecordCollector is a Writer that keeps every record in memory.
type RecordCollector struct {
	Records []*sam.Record
}

// Write implements Writer.
func (c *RecordCollector) Write(r *sam.Record) error {
	c.Records = append(c.Records, r)
	return nil
}

// Names returns the read names of the collected records, in write order.
func (c *RecordCollector) Names() []string {
	names := make([]string, len(c.Records))
	for i, r := range c.Records {
		names[i] = r.Name
	}
	return names
}
