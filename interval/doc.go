/*Package interval loads named genomic intervals (typically 3' UTR annotations
  from a BED file) and answers "which named regions overlap this alignment"
  queries against them.

  BED files use 0-based starts.  This package follows the slamdunk
  convention of treating the BED stop column as inclusive, so every
  annotation is stored as the half-open interval [start, stop+1).  Alignment
  spans are half-open as well ([sam.Record.Pos, sam.Record.End())).

  Overlapping annotations are tracked separately, not merged; a query
  reports the name of every annotation it touches.
*/
package interval
