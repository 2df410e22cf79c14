package filter

import (
	"encoding/json"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// ReadStats is the summary stored in the DS field of the first read group.
type ReadStats struct {
	Sequenced int `json:"sequenced"`
	Mapped    int `json:"mapped"`
	Filtered  int `json:"filtered"`
}

// Stats extracts the header summary from c.
func (c Counters) Stats() ReadStats {
	return ReadStats{Sequenced: c.Sequenced, Mapped: c.Mapped, Filtered: c.Filtered}
}

// Description renders s as {"sequenced":N,"mapped":M,"filtered":F}.
func (s ReadStats) Description() string {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// AnnotateHeader returns a copy of h whose first read group's DS field holds
// the summary of c.  If h has no read group, the copy is returned unchanged
// along with false.
func AnnotateHeader(h *sam.Header, c Counters) (*sam.Header, bool, error) {
	annotated := h.Clone()
	rgs := annotated.RGs()
	if len(rgs) == 0 {
		return annotated, false, nil
	}
	if err := rgs[0].Set(dsTag, c.Stats().Description()); err != nil {
		return nil, false, errors.E(err, "set read group description")
	}
	return annotated, true, nil
}

// ReadStatsFromHeader parses the summary written by AnnotateHeader.  Keys may
// be single-quoted, as in files written by older slamdunk versions.
func ReadStatsFromHeader(h *sam.Header) (ReadStats, error) {
	var s ReadStats
	rgs := h.RGs()
	if len(rgs) == 0 {
		return s, errors.E(errors.NotExist, "header has no read group")
	}
	ds := rgs[0].Get(dsTag)
	if ds == "" {
		return s, errors.E(errors.NotExist, "read group "+rgs[0].Name()+" has no DS field")
	}
	if err := json.Unmarshal([]byte(strings.Replace(ds, "'", `"`, -1)), &s); err != nil {
		return s, errors.E(errors.Invalid, err, "parse read group description "+ds)
	}
	return s, nil
}
