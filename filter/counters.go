package filter

import (
	"fmt"

	"github.com/grailbio/hts/sam"
)

// Counters accumulates read counts over one run.  Sequenced, Mapped and
// Filtered go into the output header; the rest are diagnostics.
type Counters struct {
	// Sequenced is the number of primary records.
	Sequenced int
	// Mapped and Unmapped partition the primary records.
	Mapped   int
	Unmapped int
	// Filtered is the number of records written (primary records only, in
	// simple mode).
	Filtered int

	// GateRejected is the number of records dropped by the Gate.
	GateRejected int
	// UniqueMappers is the number of MAPQ>0 records written by the Retainer.
	UniqueMappers int
	// RetainedMultimappers is the number of multimapper groups that produced a
	// representative.
	RetainedMultimappers int
	// AmbiguousMultimappers is the number of groups dropped because their
	// alignments hit disagreeing regions.
	AmbiguousMultimappers int
	// OffTargetMultimappers is the number of groups dropped because none of
	// their alignments hit an annotated region.
	OffTargetMultimappers int
}

// isPrimary reports whether r is neither secondary nor supplementary.
func isPrimary(r *sam.Record) bool {
	return r.Flags&(sam.Secondary|sam.Supplementary) == 0
}

// observe classifies a primary record as mapped or unmapped.  Secondary and
// supplementary records are ignored.
func (c *Counters) observe(r *sam.Record) {
	if !isPrimary(r) {
		return
	}
	c.Sequenced++
	if r.Flags&sam.Unmapped != 0 {
		c.Unmapped++
	} else {
		c.Mapped++
	}
}

func (c Counters) String() string {
	return fmt.Sprintf("sequenced=%d mapped=%d unmapped=%d filtered=%d gate_rejected=%d unique=%d retained_multi=%d ambiguous_multi=%d offtarget_multi=%d",
		c.Sequenced, c.Mapped, c.Unmapped, c.Filtered, c.GateRejected,
		c.UniqueMappers, c.RetainedMultimappers, c.AmbiguousMultimappers, c.OffTargetMultimappers)
}
