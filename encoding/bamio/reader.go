package bamio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// recordReader is implemented by both sam.Reader and bam.Reader.
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
}

// IsSAM reports whether path names a SAM text file.
func IsSAM(path string) bool {
	return strings.HasSuffix(path, ".sam")
}

// Reader is an Iterator over every record in one SAM or BAM file.
type Reader struct {
	path   string
	ctx    context.Context
	in     file.File
	reader recordReader
	rec    *sam.Record
	nRecs  int
	err    errors.Once
	closed bool
}

// Open opens the SAM or BAM file at path and reads its header.
func Open(ctx context.Context, path string) (*Reader, error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "open", path)
	}
	r := &Reader{path: path, ctx: ctx, in: in}
	if IsSAM(path) {
		r.reader, err = sam.NewReader(in.Reader(ctx))
	} else {
		r.reader, err = bam.NewReader(in.Reader(ctx), 1)
	}
	if err != nil {
		_ = in.Close(ctx)
		return nil, errors.E(errors.Invalid, err, "read header", path)
	}
	vlog.VI(1).Infof("%s: opened, %d references", path, len(r.reader.Header().Refs()))
	return r, nil
}

// Header returns the header of the file.  The caller must not modify it.
func (r *Reader) Header() *sam.Header { return r.reader.Header() }

// Scan implements Iterator.
func (r *Reader) Scan() bool {
	if r.err.Err() != nil {
		return false
	}
	rec, err := r.reader.Read()
	if err != nil {
		if err != io.EOF {
			r.err.Set(errors.E(err, fmt.Sprintf("read record %d", r.nRecs), r.path))
		}
		return false
	}
	r.rec = rec
	r.nRecs++
	return true
}

// Record implements Iterator.
func (r *Reader) Record() *sam.Record { return r.rec }

// Err implements Iterator.
func (r *Reader) Err() error { return r.err.Err() }

// Close implements Iterator.
func (r *Reader) Close() error {
	if r.closed {
		vlog.Fatalf("%s: closed twice", r.path)
	}
	r.closed = true
	if c, ok := r.reader.(io.Closer); ok {
		r.err.Set(c.Close())
	}
	r.err.Set(r.in.Close(r.ctx))
	vlog.VI(1).Infof("%s: read %d records", r.path, r.nRecs)
	return r.err.Err()
}
