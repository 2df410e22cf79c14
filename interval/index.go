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
package interval

import (
	"sort"

	"github.com/grailbio/base/intervalmap"
)

// Index maps a reference name to an interval tree over the annotations on
// that reference.  It is immutable once NewIndex returns, so concurrent
// queries are safe.
type Index struct {
	trees map[string]*intervalmap.T
	n     int
}

// NewIndex builds an Index over the given annotations.  Annotations may
// overlap and need not be sorted.
func NewIndex(annotations []Annotation) *Index {
	entries := make(map[string][]intervalmap.Entry)
	for _, a := range annotations {
		l := a.Locus()
		entries[l.Ref] = append(entries[l.Ref], intervalmap.Entry{
			Interval: intervalmap.Interval{
				Start: int64(l.Start),
				Limit: int64(l.End),
			},
			Data: a.Name,
		})
	}
	idx := &Index{
		trees: make(map[string]*intervalmap.T, len(entries)),
		n:     len(annotations),
	}
	for chrom, ents := range entries {
		idx.trees[chrom] = intervalmap.New(ents)
	}
	return idx
}

// Len returns the number of annotations in the index.
func (idx *Index) Len() int { return idx.n }

// Refs returns the sorted names of the references that carry at least one
// annotation.
func (idx *Index) Refs() []string {
	refs := make([]string, 0, len(idx.trees))
	for ref := range idx.trees {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Query returns the sorted, distinct names of the annotations intersecting
// [start, end) on ref.  It returns nil for an unknown ref or an empty span.
func (idx *Index) Query(ref string, start, end int) []string {
	if end <= start {
		return nil
	}
	tree, ok := idx.trees[ref]
	if !ok {
		return nil
	}
	var hits []*intervalmap.Entry
	tree.Get(intervalmap.Interval{Start: int64(start), Limit: int64(end)}, &hits)
	if len(hits) == 0 {
		return nil
	}
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Data.(string)
	}
	sort.Strings(names)
	n := 1
	for i := 1; i < len(names); i++ {
		if names[i] != names[n-1] {
			names[n] = names[i]
			n++
		}
	}
	return names[:n]
}
