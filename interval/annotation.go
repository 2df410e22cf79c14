package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Annotation is a named genomic interval.  Start is 0-based and End is
// exclusive.
type Annotation struct {
	Chrom string
	Start int
	End   int
	Name  string
}

// Locus returns the span covered by the annotation.
func (a Annotation) Locus() Locus {
	return Locus{Ref: a.Chrom, Start: a.Start, End: a.End}
}

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

var (
	trackPrefix   = []byte("track")
	browserPrefix = []byte("browser")
)

// isBEDHeader reports whether a line starting with token is a comment or a
// UCSC track/browser line.
func isBEDHeader(token []byte) bool {
	return token[0] == '#' || bytes.Equal(token, trackPrefix) || bytes.Equal(token, browserPrefix)
}

func scanAnnotations(scanner *bufio.Scanner) ([]Annotation, error) {
	var (
		tokens      [4][]byte
		annotations []Annotation
	)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		nToken := getTokens(tokens[:], scanner.Bytes())
		if nToken == 0 || isBEDHeader(tokens[0]) {
			continue
		}
		if nToken < 3 {
			return nil, errors.Errorf("line %d: expected at least 3 columns, found %d", lineIdx, nToken)
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad start coordinate", lineIdx)
		}
		stop, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad stop coordinate", lineIdx)
		}
		if start < 0 || stop < start {
			return nil, errors.Errorf("line %d: invalid coordinate pair %d-%d", lineIdx, start, stop)
		}
		// tokens[] points into the scanner's buffer, so the strings must be
		// copied out.
		a := Annotation{
			Chrom: string(tokens[0]),
			Start: start,
			End:   stop + 1,
		}
		if nToken == 4 {
			a.Name = string(tokens[3])
		} else {
			a.Name = fmt.Sprintf("%s:%d-%d", a.Chrom, start, stop)
		}
		annotations = append(annotations, a)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read BED data")
	}
	return annotations, nil
}

// ReadBED parses BED records (chrom, start, stop, name, ...) from reader.
// Blank lines, '#' comments, and track/browser lines are skipped.  Records
// without a name column are named "chrom:start-stop".  The stop column is
// inclusive: the returned Annotation.End is stop+1.
func ReadBED(reader io.Reader) ([]Annotation, error) {
	return scanAnnotations(bufio.NewScanner(reader))
}

// ReadBEDFromPath is a wrapper for ReadBED that takes a path instead of an
// io.Reader.  Gzipped files are decompressed transparently.
func ReadBEDFromPath(ctx context.Context, path string) (annotations []Annotation, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		var gz *gzip.Reader
		if gz, err = gzip.NewReader(reader); err != nil {
			err = errors.Wrap(err, path)
			return
		}
		defer func() {
			if cerr := gz.Close(); cerr != nil && err == nil {
				err = errors.Wrap(cerr, path)
			}
		}()
		reader = gz
	}
	if annotations, err = ReadBED(reader); err != nil {
		err = errors.Wrap(err, path)
		return
	}
	log.Printf("%s: loaded %d annotation(s)", path, len(annotations))
	return
}
