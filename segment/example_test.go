package segment_test

import (
	"bytes"
	"fmt"

	"github.com/gostdlib/base/context"

	"github.com/DawidvC/mps-segment/arena"
	"github.com/DawidvC/mps-segment/gcseg"
	"github.com/DawidvC/mps-segment/rankset"
	"github.com/DawidvC/mps-segment/refset"
	"github.com/DawidvC/mps-segment/ring"
	"github.com/DawidvC/mps-segment/segment"
)

// Example demonstrates the compressed-snapshot debug path: allocate a
// segment, snapshot the arena with DescribeCompressed, and decode it back
// with DecodeCompressed, the way an archived debug dump would be read back
// for inspection.
func Example() {
	ctx := context.Background()
	a := arena.New(0, 4096, 0)
	class := gcseg.NewClass(ring.New())

	g, err := segment.Allocate(ctx, a, class, arena.Pref{}, 4096, arena.PoolID(1))
	if err != nil {
		fmt.Println("allocate failed:", err)
		return
	}
	g.SetRankAndSummary(rankset.Of(rankset.Exact), refset.AddAddr(refset.Empty, 0))

	var buf bytes.Buffer
	if err := segment.DescribeCompressed(a, &buf); err != nil {
		fmt.Println("describe failed:", err)
		return
	}

	records, err := segment.DecodeCompressed(buf.Bytes())
	if err != nil {
		fmt.Println("decode failed:", err)
		return
	}

	fmt.Printf("%d segment(s), rank=%v\n", len(records), records[0].RankSet)
	// Output: 1 segment(s), rank={exact}
}
