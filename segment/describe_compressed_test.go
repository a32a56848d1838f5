package segment_test

import (
	"bytes"
	"testing"

	"github.com/gostdlib/base/context"

	"github.com/DawidvC/mps-segment/arena"
	"github.com/DawidvC/mps-segment/gcseg"
	"github.com/DawidvC/mps-segment/rankset"
	"github.com/DawidvC/mps-segment/refset"
	"github.com/DawidvC/mps-segment/ring"
	"github.com/DawidvC/mps-segment/segment"
	"github.com/DawidvC/mps-segment/traceset"
)

// TestDescribeCompressedRoundTrip checks that a white/grey set with trace
// IDs at and beyond bit 8 survives DescribeCompressed/DecodeCompressed
// intact — those fields are traceset.Set (up to traceset.Limit = 64 trace
// IDs), not a single byte.
func TestDescribeCompressedRoundTrip(t *testing.T) {
	ctx := context.Background()
	a := arena.New(0, granule, 0)
	class := gcseg.NewClass(ring.New())

	g, err := segment.Allocate(ctx, a, class, arena.Pref{}, granule, arena.PoolID(3))
	if err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	g.SetRankAndSummary(rankset.Of(rankset.Exact), refset.AddAddr(refset.Empty, 0))

	white := traceset.Empty.With(40).With(2)
	g.SetWhite(white)
	grey := traceset.Empty.With(9).With(40)
	g.SetGrey(grey)

	var buf bytes.Buffer
	if err := segment.DescribeCompressed(a, &buf); err != nil {
		t.Fatalf("DescribeCompressed: %v", err)
	}

	records, err := segment.DecodeCompressed(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeCompressed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Base != g.Base() || rec.Limit != g.Limit() {
		t.Errorf("rec base/limit = %#x/%#x, want %#x/%#x", rec.Base, rec.Limit, g.Base(), g.Limit())
	}
	if rec.RankSet != g.RankSet() {
		t.Errorf("rec.RankSet = %v, want %v", rec.RankSet, g.RankSet())
	}
	if rec.White != white {
		t.Errorf("rec.White = %v, want %v (trace IDs >= 8 must survive the round trip)", rec.White, white)
	}
	if rec.Grey != grey {
		t.Errorf("rec.Grey = %v, want %v (trace IDs >= 8 must survive the round trip)", rec.Grey, grey)
	}
	if rec.Summary != g.Summary() {
		t.Errorf("rec.Summary = %v, want %v", rec.Summary, g.Summary())
	}
}
