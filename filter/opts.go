package filter

import (
	"math/rand"
	"time"

	"github.com/grailbio/base/errors"
)

// Opts controls the filter.
type Opts struct {
	// MinMapQ is the minimum mapping quality of an alignment.  It applies only
	// when no region annotations are given.
	MinMapQ int
	// MinIdentity is the minimum value of the XI tag.
	MinIdentity float64
	// MaxEditDistance is the maximum value of the NM tag.  -1 disables the
	// check.
	MaxEditDistance int
	// Seed seeds the random choice of a multimapper representative.  0 seeds
	// from the clock.
	Seed int64
	// AllowUngrouped demotes the "multimapper read name reappeared after
	// other reads" error to a warning.
	AllowUngrouped bool
}

// DefaultOpts matches the slamdunk defaults.
var DefaultOpts = Opts{
	MinMapQ:         2,
	MinIdentity:     0.8,
	MaxEditDistance: -1,
}

// Validate checks that the options are in range.
func (o Opts) Validate() error {
	if o.MinMapQ < 0 || o.MinMapQ > 255 {
		return errors.E(errors.Invalid, "minimum mapping quality must be in [0,255]")
	}
	if o.MinIdentity < 0 || o.MinIdentity > 1 {
		return errors.E(errors.Invalid, "minimum identity must be in [0,1]")
	}
	if o.MaxEditDistance < -1 {
		return errors.E(errors.Invalid, "maximum edit distance must be -1 or non-negative")
	}
	return nil
}

func (o Opts) newRand() *rand.Rand {
	seed := o.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
