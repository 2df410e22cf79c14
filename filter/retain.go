// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package filter

import (
	"fmt"
	"math/rand"

	farm "github.com/dgryski/go-farm"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/CSdady/slamdunk/encoding/bamio"
	"github.com/CSdady/slamdunk/interval"
	"github.com/grailbio/hts/sam"
)

// RegionQuerier returns the names of the regions that intersect [start,
// end) on ref.  *interval.Index implements it.
type RegionQuerier interface {
	Query(ref string, start, end int) []string
}

var _ RegionQuerier = (*interval.Index)(nil)

// Retainer writes unique mappers through, and reduces each group of
// multimapping alignments to at most one representative.  It expects the
// alignments of one read to be adjacent in the input.
type Retainer struct {
	regions  RegionQuerier
	out      bamio.Writer
	rnd      *rand.Rand
	counters *Counters
	opts     Opts

	group multimapGroup
	// last is the name of the previous alignment given to Add, at any MAPQ.
	// lastMulti is set if any alignment under that name had MAPQ 0.
	last      string
	lastMulti bool
	// left holds fingerprints of the multimapper read names that the input
	// has moved past.
	left map[uint64]struct{}
}

// NewRetainer creates a Retainer that writes to out and adds to counters.
// rnd picks the representative of each group.
func NewRetainer(regions RegionQuerier, out bamio.Writer, rnd *rand.Rand, counters *Counters, opts Opts) *Retainer {
	return &Retainer{
		regions:  regions,
		out:      out,
		rnd:      rnd,
		counters: counters,
		opts:     opts,
		group:    newMultimapGroup(),
		left:     map[uint64]struct{}{},
	}
}

// Add processes one alignment that passed the Gate.  r may be retained until
// the group it belongs to completes, so the caller must not reuse it.
func (rt *Retainer) Add(r *sam.Record) error {
	newName := r.Name != rt.last
	if newName {
		if rt.lastMulti {
			rt.left[farm.Fingerprint64([]byte(rt.last))] = struct{}{}
		}
		rt.last, rt.lastMulti = r.Name, false
	}
	if r.MapQ > 0 {
		if err := rt.flush(); err != nil {
			return err
		}
		if err := rt.out.Write(r); err != nil {
			return err
		}
		rt.counters.Filtered++
		rt.counters.UniqueMappers++
		return nil
	}
	if rt.group.inFlight() && r.Name != rt.group.name {
		if err := rt.flush(); err != nil {
			return err
		}
	}
	if newName {
		if err := rt.checkGrouped(r.Name); err != nil {
			return err
		}
	}
	rt.lastMulti = true
	if r.Ref == nil {
		return errors.E(errors.Invalid, fmt.Sprintf("read %s: mapped alignment has no reference", r.Name))
	}
	locus := interval.Locus{Ref: r.Ref.Name(), Start: r.Pos, End: r.End()}
	hits := rt.regions.Query(locus.Ref, locus.Start, locus.End)
	rt.group.add(r, hits, locus.String())
	return nil
}

// Close flushes the last group.
func (rt *Retainer) Close() error {
	return rt.flush()
}

func (rt *Retainer) checkGrouped(name string) error {
	if _, ok := rt.left[farm.Fingerprint64([]byte(name))]; !ok {
		return nil
	}
	if rt.opts.AllowUngrouped {
		log.Error.Printf("read %s: alignments are not adjacent in the input; treating them as a new group", name)
		return nil
	}
	return errors.E(errors.Invalid, fmt.Sprintf("read %s: alignments are not adjacent in the input; sort or group it by read name", name))
}

func (rt *Retainer) flush() error {
	g := &rt.group
	if !g.inFlight() {
		return nil
	}
	defer g.reset()

	switch {
	case len(g.regions) == 0:
		rt.counters.OffTargetMultimappers++
		log.Debug.Printf("%s: none of %d alignment(s) hit a region, dropped", g.name, g.nAlignments)
		return nil
	case g.state == groupSuppressed:
		rt.counters.AmbiguousMultimappers++
		log.Debug.Printf("%s: %d alignment(s) hit regions %v, dropped", g.name, g.nAlignments, g.regions)
		return nil
	}
	r := g.pick(rt.rnd)
	aux, err := sam.NewAux(LociTag, g.lociString())
	if err != nil {
		return errors.E(err, fmt.Sprintf("read %s: set %s tag", g.name, LociTag))
	}
	setTag(r, aux)
	if err := rt.out.Write(r); err != nil {
		return err
	}
	rt.counters.Filtered++
	rt.counters.RetainedMultimappers++
	return nil
}
