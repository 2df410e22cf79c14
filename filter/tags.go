package filter

import (
	"fmt"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

var (
	xiTag = sam.Tag{'X', 'I'}
	nmTag = sam.Tag{'N', 'M'}
	dsTag = sam.Tag{'D', 'S'}

	// LociTag holds the space-separated loci of every alignment in the
	// multimapper group that a retained record represents.
	LociTag = sam.Tag{'R', 'D'}
)

// MissingTagError is returned when an alignment lacks a tag the gate needs.
type MissingTagError struct {
	Read string
	Tag  sam.Tag
}

func (e *MissingTagError) Error() string {
	return fmt.Sprintf("read %s: missing %s tag", e.Read, e.Tag)
}

// numericTag returns the value of tag in r as a float64.  String values are
// parsed.
func numericTag(r *sam.Record, tag sam.Tag) (float64, error) {
	aux := r.AuxFields.Get(tag)
	if aux == nil {
		return 0, &MissingTagError{Read: r.Name, Tag: tag}
	}
	switch v := aux.Value().(type) {
	case int8:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case float32:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, errors.E(errors.Invalid, err, fmt.Sprintf("read %s: tag %s", r.Name, tag))
		}
		return f, nil
	default:
		return 0, errors.E(errors.Invalid, fmt.Sprintf("read %s: tag %s has non-numeric type %c", r.Name, tag, aux.Type()))
	}
}

// setTag replaces the value of aux.Tag() in r, or appends aux when r has no
// such tag.
func setTag(r *sam.Record, aux sam.Aux) {
	for i, a := range r.AuxFields {
		if a.Tag() == aux.Tag() {
			r.AuxFields[i] = aux
			return
		}
	}
	r.AuxFields = append(r.AuxFields, aux)
}
