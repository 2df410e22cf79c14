package filter

import (
	"math/rand"
	"testing"

	"github.com/CSdady/slamdunk/encoding/bamio"
	"github.com/CSdady/slamdunk/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	geneA = interval.Annotation{Chrom: "chr1", Start: 100, End: 201, Name: "GeneA"}
	geneB = interval.Annotation{Chrom: "chr1", Start: 500, End: 601, Name: "GeneB"}
	geneC = interval.Annotation{Chrom: "chr2", Start: 100, End: 201, Name: "GeneC"}
	// geneAB overlaps the tail of GeneA.
	geneAB = interval.Annotation{Chrom: "chr1", Start: 180, End: 301, Name: "GeneAB"}
)

func TestRetainSameRegion(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	for seed := int64(1); seed <= 20; seed++ {
		recs := []*sam.Record{
			NewRecord("r1", chr1, 100, 50, 0, 0.9),
			NewRecord("r1", chr1, 160, 40, 0, 0.9),
		}
		got, c, err := runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(seed))
		require.NoError(t, err)
		require.Equal(t, 1, len(got))
		expect.EQ(t, got[0].Name, "r1")
		expect.True(t, got[0].Pos == 100 || got[0].Pos == 160, "pos %d", got[0].Pos)
		expect.EQ(t, loci(got[0]), "chr1:100-150 chr1:160-200")
		expect.EQ(t, c.Filtered, 1)
		expect.EQ(t, c.RetainedMultimappers, 1)
	}
}

func TestRetainDisagreeingRegions(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	recs := []*sam.Record{
		NewRecord("r2", chr1, 120, 50, 0, 0.9),
		NewRecord("r2", chr1, 520, 50, 0, 0.9),
	}
	got, c, err := runRetain(t, []interval.Annotation{geneA, geneB}, recs, seededOpts(1))
	require.NoError(t, err)
	expect.EQ(t, len(got), 0)
	expect.EQ(t, c.Filtered, 0)
	expect.EQ(t, c.AmbiguousMultimappers, 1)
}

func TestRetainUniqueMapper(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	recs := []*sam.Record{
		NewRecord("r3", chr1, 5000, 50, 30, 0.9),
	}
	got, c, err := runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(1))
	require.NoError(t, err)
	require.Equal(t, 1, len(got))
	expect.EQ(t, got[0].Name, "r3")
	expect.EQ(t, loci(got[0]), "")
	expect.EQ(t, c.Filtered, 1)
	expect.EQ(t, c.UniqueMappers, 1)
	expect.EQ(t, c.Sequenced, 1)
	expect.EQ(t, c.Mapped, 1)
}

func TestRetainOffTarget(t *testing.T) {
	header := newHeader(t)
	chr1, chr2 := header.Refs()[0], header.Refs()[1]
	recs := []*sam.Record{
		NewRecord("r4", chr1, 1000, 50, 0, 0.9),
		NewRecord("r4", chr2, 1000, 50, 0, 0.9),
	}
	got, c, err := runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(1))
	require.NoError(t, err)
	expect.EQ(t, len(got), 0)
	expect.EQ(t, c.Filtered, 0)
	expect.EQ(t, c.OffTargetMultimappers, 1)
}

func TestRetainMixedStream(t *testing.T) {
	header := newHeader(t)
	chr1, chr2 := header.Refs()[0], header.Refs()[1]
	recs := []*sam.Record{
		// Retained; the off-target alignment still shows up in RD.
		NewRecord("m1", chr2, 5000, 20, 0, 0.9),
		NewRecord("m1", chr1, 110, 20, 0, 0.9),
		NewRecord("m1", chr1, 130, 20, 0, 0.9),
		// Unique mapper flushes m1.
		NewRecord("u1", chr1, 7000, 20, 42, 0.95),
		// Dropped by identity, then dropped as disagreeing.
		NewRecord("m2", chr1, 110, 20, 0, 0.5),
		NewRecord("m2", chr1, 110, 20, 0, 0.9),
		NewRecord("m2", chr2, 150, 20, 0, 0.9),
		// Unmapped.
		{Name: "x", Flags: sam.Unmapped},
		// Retained at the end of the stream.
		NewRecord("m3", chr2, 120, 20, 0, 0.9),
		NewRecord("m3", chr2, 150, 20, 0, 0.9),
	}
	for _, r := range recs[1:3] {
		r.Flags |= sam.Secondary
	}
	got, c, err := runRetain(t, []interval.Annotation{geneA, geneB, geneC}, recs, seededOpts(7))
	require.NoError(t, err)
	names := make([]string, len(got))
	for i, r := range got {
		names[i] = r.Name
	}
	expect.EQ(t, names, []string{"m1", "u1", "m3"})
	expect.EQ(t, loci(got[0]), "chr2:5000-5020 chr1:110-130 chr1:130-150")
	expect.EQ(t, got[0].Ref.Name(), "chr1")
	expect.EQ(t, loci(got[2]), "chr2:120-140 chr2:150-170")

	expect.EQ(t, c, Counters{
		Sequenced:             8,
		Mapped:                7,
		Unmapped:              1,
		Filtered:              3,
		GateRejected:          2,
		UniqueMappers:         1,
		RetainedMultimappers:  2,
		AmbiguousMultimappers: 1,
	})
}

func TestRetainOverlappingRegions(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	regions := []interval.Annotation{geneA, geneAB, geneB}

	// The first alignment hits both GeneA and GeneAB; later alignments that
	// hit a subset of those keep the group consistent.
	recs := []*sam.Record{
		NewRecord("r", chr1, 185, 10, 0, 0.9),
		NewRecord("r", chr1, 120, 10, 0, 0.9),
		NewRecord("r", chr1, 250, 10, 0, 0.9),
	}
	got, _, err := runRetain(t, regions, recs, seededOpts(3))
	require.NoError(t, err)
	require.Equal(t, 1, len(got))
	expect.EQ(t, loci(got[0]), "chr1:185-195 chr1:120-130 chr1:250-260")

	// An alignment into a region the first hit did not establish suppresses
	// the group, even when it also hits an established one.
	recs = []*sam.Record{
		NewRecord("r", chr1, 120, 10, 0, 0.9),
		NewRecord("r", chr1, 185, 10, 0, 0.9),
	}
	got, c, err := runRetain(t, regions, recs, seededOpts(3))
	require.NoError(t, err)
	expect.EQ(t, len(got), 0)
	expect.EQ(t, c.AmbiguousMultimappers, 1)
}

func TestRetainReplacesLociTag(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	recs := []*sam.Record{
		NewRecord("r", chr1, 120, 10, 0, 0.9, NewAux("RD", "stale")),
	}
	got, _, err := runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(3))
	require.NoError(t, err)
	require.Equal(t, 1, len(got))
	expect.EQ(t, loci(got[0]), "chr1:120-130")
	n := 0
	for _, aux := range got[0].AuxFields {
		if aux.Tag() == LociTag {
			n++
		}
	}
	expect.EQ(t, n, 1)
}

func TestRetainSeeded(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	var recs []*sam.Record
	for i := 0; i < 8; i++ {
		recs = append(recs, NewRecord("r", chr1, 100+10*i, 10, 0, 0.9))
	}
	first, _, err := runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(99))
	require.NoError(t, err)
	require.Equal(t, 1, len(first))
	for i := 0; i < 5; i++ {
		got, _, err := runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(99))
		require.NoError(t, err)
		require.Equal(t, 1, len(got))
		expect.EQ(t, got[0].Pos, first[0].Pos)
	}
	// Every alignment is a candidate.
	seen := map[int]bool{}
	for seed := int64(1); seed <= 200; seed++ {
		got, _, err := runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(seed))
		require.NoError(t, err)
		seen[got[0].Pos] = true
	}
	expect.EQ(t, len(seen), 8)
}

func TestRetainUngrouped(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	newRecs := func() []*sam.Record {
		return []*sam.Record{
			NewRecord("r1", chr1, 120, 10, 0, 0.9),
			NewRecord("r2", chr1, 130, 10, 0, 0.9),
			NewRecord("r1", chr1, 140, 10, 0, 0.9),
		}
	}
	_, _, err := runRetain(t, []interval.Annotation{geneA}, newRecs(), seededOpts(1))
	require.Error(t, err)
	expect.True(t, errors.Is(errors.Invalid, err), "%v", err)
	assert.Contains(t, err.Error(), "r1")

	opts := seededOpts(1)
	opts.AllowUngrouped = true
	got, c, err := runRetain(t, []interval.Annotation{geneA}, newRecs(), opts)
	require.NoError(t, err)
	expect.EQ(t, len(got), 3)
	expect.EQ(t, c.RetainedMultimappers, 3)

	// A unique mapper sharing the name of a completed group is fine.
	recs := []*sam.Record{
		NewRecord("r1", chr1, 120, 10, 0, 0.9),
		NewRecord("r2", chr1, 130, 10, 0, 0.9),
		NewRecord("r1", chr1, 140, 10, 50, 0.9),
	}
	_, _, err = runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(1))
	require.NoError(t, err)

	// A MAPQ>0 alignment inside a read's run of multimapper alignments splits
	// the group but does not make the read ungrouped.
	supp := NewRecord("x", chr1, 3000, 10, 60, 0.9)
	supp.Flags = sam.Supplementary
	recs = []*sam.Record{
		NewRecord("x", chr1, 120, 10, 0, 0.9),
		supp,
		NewRecord("x", chr1, 130, 10, 0, 0.9),
	}
	got, c, err = runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(1))
	require.NoError(t, err)
	expect.EQ(t, len(got), 3)
	expect.EQ(t, loci(got[0]), "chr1:120-130")
	expect.EQ(t, got[1].Pos, 3000)
	expect.EQ(t, loci(got[2]), "chr1:130-140")
	expect.EQ(t, c.RetainedMultimappers, 2)
	expect.EQ(t, c.UniqueMappers, 1)

	// The read is still rejected once another read intervenes.
	recs = []*sam.Record{
		NewRecord("x", chr1, 120, 10, 0, 0.9),
		NewRecord("y", chr1, 3000, 10, 60, 0.9),
		NewRecord("x", chr1, 130, 10, 0, 0.9),
	}
	_, _, err = runRetain(t, []interval.Annotation{geneA}, recs, seededOpts(1))
	expect.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestRetainOffTargetThenDisagreeing(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	recs := []*sam.Record{
		NewRecord("r", chr1, 5000, 10, 0, 0.9),
		NewRecord("r", chr1, 120, 10, 0, 0.9),
		NewRecord("r", chr1, 520, 10, 0, 0.9),
	}
	got, c, err := runRetain(t, []interval.Annotation{geneA, geneB}, recs, seededOpts(1))
	require.NoError(t, err)
	expect.EQ(t, len(got), 0)
	expect.EQ(t, c.AmbiguousMultimappers, 1)
	expect.EQ(t, c.OffTargetMultimappers, 0)
}

func TestRetainerNoReference(t *testing.T) {
	var (
		out bamio.RecordCollector
		c   Counters
	)
	rt := NewRetainer(interval.NewIndex([]interval.Annotation{geneA}), &out, rand.New(rand.NewSource(1)), &c, DefaultOpts)
	r := &sam.Record{Name: "noref", Pos: 10}
	expect.NotNil(t, rt.Add(r))
	require.NoError(t, rt.Close())
	expect.EQ(t, len(out.Records), 0)
}

func TestRetainMissingTag(t *testing.T) {
	header := newHeader(t)
	r := NewRecord("r", header.Refs()[0], 120, 10, 0, 0.9)
	r.AuxFields = nil
	_, _, err := runRetain(t, []interval.Annotation{geneA}, []*sam.Record{r}, seededOpts(1))
	_, ok := err.(*MissingTagError)
	expect.True(t, ok, "%v", err)
}

func TestMultimapGroup(t *testing.T) {
	header := newHeader(t)
	chr1 := header.Refs()[0]
	g := newMultimapGroup()
	expect.False(t, g.inFlight())

	r0 := NewRecord("g", chr1, 0, 10, 0, 0.9)
	r1 := NewRecord("g", chr1, 20, 10, 0, 0.9)
	r2 := NewRecord("g", chr1, 40, 10, 0, 0.9)
	g.add(r0, nil, "chr1:0-10")
	expect.True(t, g.inFlight())
	expect.EQ(t, g.state, groupConsistent)
	expect.EQ(t, len(g.regions), 0)

	g.add(r1, []string{"X", "Y"}, "chr1:20-30")
	g.add(r2, []string{"Y"}, "chr1:40-50")
	expect.EQ(t, g.state, groupConsistent)
	expect.EQ(t, g.regions, []string{"X", "Y"})
	expect.EQ(t, g.buckets["Y"], []int{0, 1})
	expect.EQ(t, g.lociString(), "chr1:0-10 chr1:20-30 chr1:40-50")

	rnd := rand.New(rand.NewSource(5))
	picked := g.pick(rnd)
	expect.True(t, picked == r1 || picked == r2)
	expect.EQ(t, len(g.buckets["X"])+len(g.buckets["Y"]), 2)

	g.add(r2, []string{"Z"}, "chr1:40-50")
	expect.EQ(t, g.state, groupSuppressed)

	g.reset()
	expect.False(t, g.inFlight())
	expect.EQ(t, g.state, groupIdle)
	expect.EQ(t, len(g.buckets), 0)
	expect.EQ(t, g.lociString(), "")
}
