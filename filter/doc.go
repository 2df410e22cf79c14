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

/*Package filter post-filters aligned SLAM-seq reads.

  Every alignment first goes through a quality Gate (mapped, identity and
  edit distance, and in simple mode mapping quality).  Survivors then reach
  one of two sinks:

  Simple writes every surviving alignment.

  Retainer (used when region annotations are supplied) writes every uniquely
  mapped alignment, and collapses each group of multimapping alignments
  (MAPQ 0, consecutive, same read name) into at most one representative.
  The group yields a representative only when all of its annotated hits
  agree on the set of regions seen by the first hitting alignment.  The
  representative carries an RD:Z tag listing the loci of every alignment in
  the group.

  Counts of sequenced, mapped and retained reads are stored in the DS field
  of the first read group of the output header, where downstream stages
  pick them up.
*/
package filter
