package interval

import (
	"fmt"
	"strconv"
	"strings"
)

// Locus is the half-open span [Start, End) on reference Ref.
type Locus struct {
	Ref   string
	Start int
	End   int
}

// String renders the locus as "ref:start-end", with the 0-based start and
// exclusive end.  This is the form stored in the RD tag of retained
// multimappers.
func (l Locus) String() string {
	return l.Ref + ":" + strconv.Itoa(l.Start) + "-" + strconv.Itoa(l.End)
}

// ParseLocus parses a string produced by Locus.String.  Unlike samtools
// region strings, the coordinates are taken as 0-based and half-open.
// Reference names may themselves contain ':'; the last colon separates the
// range.
func ParseLocus(s string) (result Locus, err error) {
	colonPos := strings.LastIndexByte(s, ':')
	if colonPos <= 0 {
		err = fmt.Errorf("interval.ParseLocus: %q: missing contig", s)
		return
	}
	result.Ref = s[:colonPos]
	rangeStr := s[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		err = fmt.Errorf("interval.ParseLocus: %q: missing range", s)
		return
	}
	if result.Start, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		return
	}
	if result.End, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		return
	}
	if result.Start < 0 || result.End < result.Start {
		err = fmt.Errorf("interval.ParseLocus: %q: invalid coordinate pair", s)
	}
	return
}

// ParseLoci parses a whitespace-separated list of loci.
func ParseLoci(s string) ([]Locus, error) {
	fields := strings.Fields(s)
	loci := make([]Locus, 0, len(fields))
	for _, f := range fields {
		l, err := ParseLocus(f)
		if err != nil {
			return nil, err
		}
		loci = append(loci, l)
	}
	return loci, nil
}
