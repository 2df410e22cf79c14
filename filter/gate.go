package filter

import (
	"github.com/grailbio/hts/sam"
)

// Gate holds the per-alignment quality thresholds.
type Gate struct {
	MinMapQ         int
	CheckMapQ       bool
	MinIdentity     float64
	MaxEditDistance int
}

// Pass reports whether r passes the gate.  The checks run in order: mapped,
// mapping quality (only with CheckMapQ), XI identity, and NM edit distance
// (only when MaxEditDistance >= 0).  A missing XI, or a missing NM when an
// edit distance bound is set, yields a *MissingTagError.
func (g Gate) Pass(r *sam.Record) (bool, error) {
	if r.Flags&sam.Unmapped != 0 {
		return false, nil
	}
	if g.CheckMapQ && int(r.MapQ) < g.MinMapQ {
		return false, nil
	}
	xi, err := numericTag(r, xiTag)
	if err != nil {
		return false, err
	}
	if xi < g.MinIdentity {
		return false, nil
	}
	if g.MaxEditDistance > -1 {
		nm, err := numericTag(r, nmTag)
		if err != nil {
			return false, err
		}
		if int(nm) > g.MaxEditDistance {
			return false, nil
		}
	}
	return true, nil
}
