// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
bio-slamdunk-filter filters aligned SLAM-seq reads.  With a BED file of 3'
UTR annotations, it keeps every uniquely mapped read and at most one
alignment of each multimapping read whose alignments all fall in the same
UTRs.  Without one, it keeps reads above a mapping quality threshold.

Read counts are recorded in the DS field of the first @RG header line of the
output, and can be printed with the readstats command.
*/

import (
	"fmt"

	"github.com/CSdady/slamdunk/filter"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

func newCmdFilter() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "filter",
		Short:    "Filter a BAM file, retaining multimappers that land in a single UTR",
		ArgsName: "inpath outpath",
		Long: `
Paths ending in .sam are read or written as SAM, anything else as BAM.
Input must list all alignments of a read adjacently (e.g. aligner output
order, or sorted by name).

The output is skipped if it is newer than the input BAM and the BED file,
unless -force is given.`,
	}
	flags := filterFlags{
		bed:            cmd.Flags.String("bed", "", "BED file of 3' UTR annotations. If empty, run simple MAPQ filtering instead of multimapper retention"),
		minMapQ:        cmd.Flags.Int("mq", filter.DefaultOpts.MinMapQ, "Minimum mapping quality (simple filtering only)"),
		minIdentity:    cmd.Flags.Float64("min-identity", filter.DefaultOpts.MinIdentity, "Minimum alignment identity (XI tag)"),
		maxEditDist:    cmd.Flags.Int("max-nm", filter.DefaultOpts.MaxEditDistance, "Maximum edit distance (NM tag); -1 disables the check"),
		seed:           cmd.Flags.Int64("seed", 0, "Seed for picking multimapper representatives; 0 seeds from the clock"),
		allowUngrouped: cmd.Flags.Bool("allow-ungrouped", false, "Warn instead of failing when a read's alignments are not adjacent"),
		force:          cmd.Flags.Bool("force", false, "Run even if the output is newer than the inputs"),
		dryRun:         cmd.Flags.Bool("dry-run", false, "Log what would be done, without writing anything"),
	}
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		cfg, err := flags.resolve(argv)
		if err != nil {
			return err
		}
		return runFilter(vcontext.Background(), cfg)
	})
	return cmd
}

func newCmdReadStats() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "readstats",
		Short:    "Print the read counts recorded by the filter command",
		ArgsName: "path...",
	}
	lociFlag := cmd.Flags.Bool("loci", false, "Also scan the records and report retained multimappers and their candidate loci (RD tag)")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) == 0 {
			return fmt.Errorf("readstats takes one or more pathnames, but got none")
		}
		return readStats(vcontext.Background(), argv, *lociFlag, env.Stdout)
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-slamdunk-filter",
			Short:    "Filter aligned SLAM-seq reads",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdFilter(),
				newCmdReadStats(),
			},
		})
}
