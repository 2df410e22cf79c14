package bamio

import (
	"context"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"v.io/x/lib/vlog"
)

// recordWriter is implemented by both sam.Writer and bam.Writer.
type recordWriter interface {
	Write(r *sam.Record) error
}

// FileWriter is a Writer that streams records into a SAM or BAM file.
type FileWriter struct {
	path   string
	ctx    context.Context
	out    file.File
	bw     *bam.Writer
	writer recordWriter
	n      int
}

// Create creates a SAM or BAM file at path and writes header to it.  The
// file is committed by Close.
func Create(ctx context.Context, path string, header *sam.Header) (*FileWriter, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	w := &FileWriter{path: path, ctx: ctx, out: out}
	if IsSAM(path) {
		w.writer, err = sam.NewWriter(out.Writer(ctx), header, sam.FlagDecimal)
	} else {
		w.bw, err = bam.NewWriter(out.Writer(ctx), header, 1)
		w.writer = w.bw
	}
	if err != nil {
		out.Discard(ctx)
		return nil, errors.E(err, "write header", path)
	}
	return w, nil
}

// Write implements Writer.
func (w *FileWriter) Write(r *sam.Record) error {
	if err := w.writer.Write(r); err != nil {
		return errors.E(err, "write record", r.Name, w.path)
	}
	w.n++
	return nil
}

// Len returns the number of records written so far.
func (w *FileWriter) Len() int { return w.n }

// Close flushes the remaining records and closes the file.
func (w *FileWriter) Close() (err error) {
	if w.bw != nil {
		if err = w.bw.Close(); err != nil {
			err = errors.E(err, "close", w.path)
		}
	}
	file.CloseAndReport(w.ctx, w.out, &err)
	vlog.VI(1).Infof("%s: wrote %d records", w.path, w.n)
	return err
}
