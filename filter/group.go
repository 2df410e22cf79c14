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
	"math/rand"
	"strings"

	"github.com/grailbio/hts/sam"
)

type groupState int

const (
	// groupIdle means no multimapper alignment is buffered.
	groupIdle groupState = iota
	// groupConsistent means every annotated hit so far landed in a region
	// that the first hitting alignment established.
	groupConsistent
	// groupSuppressed means some alignment hit a region outside that set.
	// The group will emit nothing.
	groupSuppressed
)

// multimapGroup buffers the MAPQ 0 alignments of one read.
//
// records holds each alignment that hit at least one region, once.  buckets
// maps a region name to indices into records.  regions lists the bucket keys
// in the order they were created, so that a seeded random source picks the
// same representative on every run.
type multimapGroup struct {
	name        string
	state       groupState
	records     []*sam.Record
	buckets     map[string][]int
	regions     []string
	loci        []string
	nAlignments int
}

func newMultimapGroup() multimapGroup {
	return multimapGroup{buckets: map[string][]int{}}
}

// inFlight reports whether the group has absorbed any alignment since the
// last reset.
func (g *multimapGroup) inFlight() bool { return g.nAlignments > 0 }

// add absorbs alignment r with locus string locus, which hit the given
// regions.
func (g *multimapGroup) add(r *sam.Record, hits []string, locus string) {
	if g.state == groupIdle {
		g.state = groupConsistent
		g.name = r.Name
	}
	g.nAlignments++
	g.loci = append(g.loci, locus)
	if len(hits) == 0 {
		return
	}
	idx := len(g.records)
	g.records = append(g.records, r)
	if len(g.buckets) == 0 {
		for _, region := range hits {
			g.buckets[region] = []int{idx}
			g.regions = append(g.regions, region)
		}
		return
	}
	for _, region := range hits {
		b, ok := g.buckets[region]
		if !ok {
			g.regions = append(g.regions, region)
			g.state = groupSuppressed
		}
		g.buckets[region] = append(b, idx)
	}
}

// pick removes and returns a uniformly random record from a uniformly random
// bucket.
//
// REQUIRES: len(g.regions) > 0
func (g *multimapGroup) pick(rnd *rand.Rand) *sam.Record {
	region := g.regions[rnd.Intn(len(g.regions))]
	b := g.buckets[region]
	i := rnd.Intn(len(b))
	r := g.records[b[i]]
	b[i] = b[len(b)-1]
	g.buckets[region] = b[:len(b)-1]
	return r
}

// lociString joins the loci of every absorbed alignment.
func (g *multimapGroup) lociString() string {
	return strings.TrimRight(strings.Join(g.loci, " "), " ")
}

func (g *multimapGroup) reset() {
	for i := range g.records {
		g.records[i] = nil
	}
	for region := range g.buckets {
		delete(g.buckets, region)
	}
	g.name = ""
	g.state = groupIdle
	g.records = g.records[:0]
	g.regions = g.regions[:0]
	g.loci = g.loci[:0]
	g.nAlignments = 0
}
