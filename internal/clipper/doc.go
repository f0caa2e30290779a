// Package clipper serializes gig records into the line-oriented bulk-import
// format understood by the remote content system.
//
// Each record becomes a block of "key: value" lines terminated by a literal
// "---" line. Field order is fixed; optional fields are omitted entirely when
// absent, except information, which is always emitted. Repeated set, price,
// and genre lines are capped by the record's slot arrays. Aggregation is
// all-or-nothing: one invalid record aborts the whole batch.
package clipper
