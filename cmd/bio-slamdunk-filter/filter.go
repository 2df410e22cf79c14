package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/CSdady/slamdunk/encoding/bamio"
	"github.com/CSdady/slamdunk/filter"
	"github.com/CSdady/slamdunk/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

const programID = "bio-slamdunk-filter"

type filterFlags struct {
	bed            *string
	minMapQ        *int
	minIdentity    *float64
	maxEditDist    *int
	seed           *int64
	allowUngrouped *bool
	force          *bool
	dryRun         *bool
}

// runConfig is the fully resolved configuration of one filter run.
type runConfig struct {
	inPath  string
	outPath string
	bedPath string
	force   bool
	dryRun  bool
	opts    filter.Opts
}

func (f filterFlags) resolve(argv []string) (runConfig, error) {
	if len(argv) != 2 {
		return runConfig{}, fmt.Errorf("filter takes inpath outpath, but got %v", argv)
	}
	cfg := runConfig{
		inPath:  argv[0],
		outPath: argv[1],
		bedPath: *f.bed,
		force:   *f.force,
		dryRun:  *f.dryRun,
		opts: filter.Opts{
			MinMapQ:         *f.minMapQ,
			MinIdentity:     *f.minIdentity,
			MaxEditDistance: *f.maxEditDist,
			Seed:            *f.seed,
			AllowUngrouped:  *f.allowUngrouped,
		},
	}
	if cfg.inPath == cfg.outPath {
		return runConfig{}, fmt.Errorf("filter: input and output are both %s", cfg.inPath)
	}
	return cfg, cfg.opts.Validate()
}

// inputs lists the files the output is derived from.
func (cfg runConfig) inputs() []string {
	if cfg.bedPath == "" {
		return []string{cfg.inPath}
	}
	return []string{cfg.inPath, cfg.bedPath}
}

// needsRun reports whether outputs must be (re)built from inputs.  Every
// input must exist.  Unless force is set, the step is skipped when every
// output exists and the oldest one is newer than the newest input.
func needsRun(ctx context.Context, inputs, outputs []string, force bool) (bool, error) {
	var newestInput time.Time
	for _, path := range inputs {
		info, err := file.Stat(ctx, path)
		if err != nil {
			return false, errors.E(errors.NotExist, err, "input", path)
		}
		if info.ModTime().After(newestInput) {
			newestInput = info.ModTime()
		}
	}
	if force || len(outputs) == 0 {
		return true, nil
	}
	for _, path := range outputs {
		info, err := file.Stat(ctx, path)
		if err != nil || !info.ModTime().After(newestInput) {
			return true, nil
		}
	}
	return false, nil
}

// tmpPath returns the path the unannotated output is staged at: path with
// ".tmp" inserted before its extension.
func tmpPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".tmp" + ext
}

func runFilter(ctx context.Context, cfg runConfig) (err error) {
	run, err := needsRun(ctx, cfg.inputs(), []string{cfg.outPath}, cfg.force)
	if err != nil {
		return err
	}
	if !run {
		log.Printf("Skipped filtering for %s", cfg.inPath)
		return nil
	}
	if cfg.dryRun {
		if cfg.bedPath == "" {
			log.Printf("dry run: would filter %s into %s (simple, mapq >= %d)", cfg.inPath, cfg.outPath, cfg.opts.MinMapQ)
		} else {
			log.Printf("dry run: would filter %s into %s (multimapper retention, regions from %s)", cfg.inPath, cfg.outPath, cfg.bedPath)
		}
		return nil
	}

	var index *interval.Index
	if cfg.bedPath != "" {
		annotations, err := interval.ReadBEDFromPath(ctx, cfg.bedPath)
		if err != nil {
			return err
		}
		index = interval.NewIndex(annotations)
	}

	staged := tmpPath(cfg.outPath)
	counters, header, err := filterToFile(ctx, cfg.inPath, staged, index, cfg.opts)
	if err != nil {
		_ = file.Remove(ctx, staged)
		return err
	}
	defer func() {
		if e := file.Remove(ctx, staged); e != nil && err == nil {
			err = e
		}
	}()

	annotated, ok, err := filter.AnnotateHeader(header, counters)
	if err != nil {
		return err
	}
	if !ok {
		log.Printf("%s: no @RG header line, read counts are not recorded", cfg.inPath)
	}
	prog := sam.NewProgram(programID, programID, strings.Join(os.Args, " "), "", "")
	if e := annotated.AddProgram(prog); e != nil {
		log.Error.Printf("%s: add @PG line: %v", cfg.outPath, e)
	}
	n, err := bamio.Rewrite(ctx, staged, cfg.outPath, annotated)
	if err != nil {
		return err
	}
	log.Printf("%s: wrote %d records to %s (%v)", cfg.inPath, n, cfg.outPath, counters.Stats().Description())
	return nil
}

// filterToFile filters inPath into outPath.  It returns the counters and the
// header of the input.
func filterToFile(ctx context.Context, inPath, outPath string, index *interval.Index, opts filter.Opts) (filter.Counters, *sam.Header, error) {
	in, err := bamio.Open(ctx, inPath)
	if err != nil {
		return filter.Counters{}, nil, err
	}
	header := in.Header()
	out, err := bamio.Create(ctx, outPath, header)
	if err != nil {
		_ = in.Close()
		return filter.Counters{}, nil, err
	}
	counters, err := filter.Run(in, out, index, opts)
	e := errors.Once{}
	e.Set(err)
	e.Set(in.Close())
	e.Set(out.Close())
	return counters, header, e.Err()
}
