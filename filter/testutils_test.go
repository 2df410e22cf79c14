package filter

import (
	"fmt"
	"testing"

	"github.com/CSdady/slamdunk/encoding/bamio"
	"github.com/CSdady/slamdunk/interval"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/require"
)

const headerText = "@HD\tVN:1.4\tSO:queryname\n" +
	"@SQ\tSN:chr1\tLN:10000\n" +
	"@SQ\tSN:chr2\tLN:10000\n" +
	"@RG\tID:rg1\tSM:sample1\n"

func newHeader(t *testing.T) *sam.Header {
	header, err := sam.NewHeader([]byte(headerText), nil)
	require.NoError(t, err)
	require.Equal(t, 2, len(header.Refs()))
	return header
}

func NewAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

// NewRecord creates a mapped record spanning [pos, pos+length) with the given
// XI identity.
func NewRecord(name string, ref *sam.Reference, pos, length int, mapq byte, xi float32, auxs ...sam.Aux) *sam.Record {
	r := &sam.Record{
		Name:  name,
		Ref:   ref,
		Pos:   pos,
		MapQ:  mapq,
		Cigar: sam.Cigar{sam.NewCigarOp(sam.CigarMatch, length)},
	}
	r.AuxFields = append(sam.AuxFields{NewAux("XI", xi)}, auxs...)
	return r
}

func loci(r *sam.Record) string {
	aux := r.AuxFields.Get(LociTag)
	if aux == nil {
		return ""
	}
	return aux.Value().(string)
}

// runRetain runs retention filtering of recs against annotations.
func runRetain(t *testing.T, annotations []interval.Annotation, recs []*sam.Record, opts Opts) ([]*sam.Record, Counters, error) {
	var out bamio.RecordCollector
	c, err := Run(bamio.NewFakeIterator(recs), &out, interval.NewIndex(annotations), opts)
	return out.Records, c, err
}

func seededOpts(seed int64) Opts {
	opts := DefaultOpts
	opts.Seed = seed
	return opts
}
