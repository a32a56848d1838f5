package segment

import (
	"bytes"
	"fmt"

	"github.com/golang/snappy"

	"github.com/DawidvC/mps-segment/access"
	"github.com/DawidvC/mps-segment/arena"
	ibinary "github.com/DawidvC/mps-segment/internal/binary"
	"github.com/DawidvC/mps-segment/rankset"
	"github.com/DawidvC/mps-segment/refset"
	"github.com/DawidvC/mps-segment/traceset"
)

// recordSize is the uncompressed, per-segment record DescribeCompressed
// writes: base, limit (8 bytes each), rank set (1 byte), white and grey
// (8 bytes each, wide enough for every trace ID up to traceset.Limit), pm
// and sm (1 byte each), and summary (8 bytes, 0 for classes without one).
const recordSize = 8 + 8 + 1 + 8 + 8 + 1 + 1 + 8

// Record is one segment's decoded DescribeCompressed entry.
type Record struct {
	Base, Limit uintptr
	RankSet     rankset.Set
	White, Grey traceset.Set
	PM, SM      access.Set
	Summary     refset.Set
}

// DescribeCompressed writes a snappy-compressed binary snapshot of every
// live segment in a to w: one fixed-size record per segment. It exists for
// dumping a large arena's segment table to a debug archive without the
// O(segments) text plain Describe produces taking up the space.
func DescribeCompressed(a *arena.Arena, w *bytes.Buffer) error {
	var raw bytes.Buffer
	rec := make([]byte, recordSize)

	for g, ok := First(a); ok; g, ok = Next(a, g.Base()) {
		ibinary.Put(rec[0:8], uint64(g.Base()))
		ibinary.Put(rec[8:16], uint64(g.Limit()))
		rec[16] = byte(g.RankSet())
		ibinary.Put(rec[17:25], uint64(g.White()))
		ibinary.Put(rec[25:33], uint64(g.Grey()))
		rec[33] = byte(g.PM())
		rec[34] = byte(g.SM())
		ibinary.Put(rec[35:43], uint64(summaryOf(g)))
		raw.Write(rec)
	}

	compressed := snappy.Encode(nil, raw.Bytes())
	_, err := w.Write(compressed)
	return err
}

// DecodeCompressed reverses DescribeCompressed: it snappy-decodes data and
// unpacks every fixed-size record back into a Record, in the same
// base-address order DescribeCompressed wrote them.
func DecodeCompressed(data []byte) ([]Record, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, err
	}
	if len(raw)%recordSize != 0 {
		return nil, fmt.Errorf("segment: compressed snapshot length %d is not a multiple of the %d-byte record size", len(raw), recordSize)
	}

	records := make([]Record, 0, len(raw)/recordSize)
	for i := 0; i < len(raw); i += recordSize {
		rec := raw[i : i+recordSize]
		records = append(records, Record{
			Base:    uintptr(ibinary.Get[uint64](rec[0:8])),
			Limit:   uintptr(ibinary.Get[uint64](rec[8:16])),
			RankSet: rankset.Set(rec[16]),
			White:   traceset.Set(ibinary.Get[uint64](rec[17:25])),
			Grey:    traceset.Set(ibinary.Get[uint64](rec[25:33])),
			PM:      access.Set(rec[33]),
			SM:      access.Set(rec[34]),
			Summary: refset.Set(ibinary.Get[uint64](rec[35:43])),
		})
	}
	return records, nil
}

// summaryOf returns g.Summary(), or refset.Empty if g's class doesn't
// support a summary (the base Seg class).
func summaryOf(g *Generic) (s refset.Set) {
	defer func() {
		if recover() != nil {
			s = refset.Empty
		}
	}()
	return g.Summary()
}
