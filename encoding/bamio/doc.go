// Package bamio provides sequential access to SAM and BAM files: an
// Iterator over the records of a file, a Writer that streams records into a
// new file, and in-memory fakes of both for unittests.
//
// Files are opened through github.com/grailbio/base/file, so both local and
// S3 paths are accepted.  Paths ending in ".sam" are read and written as
// SAM text; everything else is treated as BAM.
package bamio
