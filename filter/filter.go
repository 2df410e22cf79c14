package filter

import (
	"github.com/CSdady/slamdunk/encoding/bamio"
	"github.com/CSdady/slamdunk/interval"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// sink consumes the alignments that pass the Gate.
type sink interface {
	Add(r *sam.Record) error
	Close() error
}

// Simple writes every alignment it is given.
type Simple struct {
	out      bamio.Writer
	counters *Counters
}

// NewSimple creates a Simple that writes to out and adds to counters.
func NewSimple(out bamio.Writer, counters *Counters) *Simple {
	return &Simple{out: out, counters: counters}
}

// Add writes r.  Only primary records count as filtered.
func (s *Simple) Add(r *sam.Record) error {
	if isPrimary(r) {
		s.counters.Filtered++
	}
	return s.out.Write(r)
}

// Close is a no-op.
func (s *Simple) Close() error { return nil }

// Run filters every record of in into out.  When index is nil, it runs the
// simple filter, whose gate includes the mapping quality threshold.
// Otherwise it runs multimapper retention against the regions in index.
// The caller closes both in and out.
func Run(in bamio.Iterator, out bamio.Writer, index *interval.Index, opts Opts) (Counters, error) {
	var c Counters
	if err := opts.Validate(); err != nil {
		return c, err
	}
	gate := Gate{
		MinMapQ:         opts.MinMapQ,
		MinIdentity:     opts.MinIdentity,
		MaxEditDistance: opts.MaxEditDistance,
	}
	var s sink
	if index == nil {
		log.Printf("no regions supplied, running simple filtering (mapq >= %d)", opts.MinMapQ)
		gate.CheckMapQ = true
		s = NewSimple(out, &c)
	} else {
		log.Printf("%d regions on %d references supplied, running multimapper retention filtering",
			index.Len(), len(index.Refs()))
		s = NewRetainer(index, out, opts.newRand(), &c, opts)
	}
	for in.Scan() {
		r := in.Record()
		c.observe(r)
		ok, err := gate.Pass(r)
		if err != nil {
			return c, err
		}
		if !ok {
			c.GateRejected++
			continue
		}
		if err := s.Add(r); err != nil {
			return c, err
		}
	}
	if err := in.Err(); err != nil {
		return c, err
	}
	if err := s.Close(); err != nil {
		return c, err
	}
	log.Printf("filter: %v", c)
	return c, nil
}
