package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/CSdady/slamdunk/encoding/bamio"
	"github.com/CSdady/slamdunk/filter"
	"github.com/CSdady/slamdunk/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// lociStats summarizes the RD tags of one file.
type lociStats struct {
	// multimappers is the number of records carrying an RD tag.
	multimappers int
	// loci is the total number of candidate loci across those tags.
	loci int
}

// readStats prints the counts recorded in the header of each of paths as a
// TSV.  With withLoci, it also scans the records and reports the retained
// multimappers and their candidate loci.
func readStats(ctx context.Context, paths []string, withLoci bool, w io.Writer) error {
	out := tsv.NewWriter(w)
	out.WriteString("#path")
	out.WriteString("sequenced")
	out.WriteString("mapped")
	out.WriteString("filtered")
	if withLoci {
		out.WriteString("multimappers")
		out.WriteString("loci")
	}
	if err := out.EndLine(); err != nil {
		return err
	}
	for _, path := range paths {
		stats, err := readStatsFromFile(ctx, path)
		if err != nil {
			return err
		}
		out.WriteString(path)
		out.WriteString(strconv.Itoa(stats.Sequenced))
		out.WriteString(strconv.Itoa(stats.Mapped))
		out.WriteString(strconv.Itoa(stats.Filtered))
		if withLoci {
			ls, err := scanLoci(ctx, path)
			if err != nil {
				return err
			}
			out.WriteString(strconv.Itoa(ls.multimappers))
			out.WriteString(strconv.Itoa(ls.loci))
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

func readStatsFromFile(ctx context.Context, path string) (filter.ReadStats, error) {
	in, err := bamio.Open(ctx, path)
	if err != nil {
		return filter.ReadStats{}, err
	}
	stats, err := filter.ReadStatsFromHeader(in.Header())
	if e := in.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return filter.ReadStats{}, errors.E(err, path, "rerun the filter command")
	}
	return stats, nil
}

// scanLoci parses the RD tag of every record in path.  A malformed tag is an
// error.
func scanLoci(ctx context.Context, path string) (lociStats, error) {
	var ls lociStats
	in, err := bamio.Open(ctx, path)
	if err != nil {
		return ls, err
	}
	for in.Scan() {
		r := in.Record()
		aux := r.AuxFields.Get(filter.LociTag)
		if aux == nil {
			continue
		}
		s, ok := aux.Value().(string)
		if !ok {
			err = errors.E(errors.Invalid, path, fmt.Sprintf("read %s: %s tag is not a string", r.Name, filter.LociTag))
			break
		}
		loci, perr := interval.ParseLoci(s)
		if perr != nil {
			err = errors.E(errors.Invalid, perr, path, "read "+r.Name)
			break
		}
		ls.multimappers++
		ls.loci += len(loci)
	}
	if e := in.Close(); e != nil && err == nil {
		err = e
	}
	return ls, err
}
