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
package bamio

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// Rewrite copies every record of src into a new file dst whose header is
// replaced by header.  It returns the number of records copied.  Reference
// IDs of the records are kept, so header must list the same references as
// src.
func Rewrite(ctx context.Context, src, dst string, header *sam.Header) (n int, err error) {
	in, err := Open(ctx, src)
	if err != nil {
		return 0, err
	}
	once := errors.Once{}
	defer func() {
		once.Set(err)
		once.Set(in.Close())
		err = once.Err()
	}()
	if got, want := len(header.Refs()), len(in.Header().Refs()); got != want {
		return 0, errors.E(errors.Invalid, "rewrite", src, fmt.Sprintf("header has %d references, want %d", got, want))
	}
	out, err := Create(ctx, dst, header)
	if err != nil {
		return 0, err
	}
	for in.Scan() {
		if err = out.Write(in.Record()); err != nil {
			_ = out.Close()
			return out.Len(), err
		}
	}
	once.Set(in.Err())
	once.Set(out.Close())
	return out.Len(), nil
}
