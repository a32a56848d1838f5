// Package segevents emits the allocation, free, and grey-ring observability
// events the segment and gcseg packages raise, using
// OpenTelemetry counters and spans the same way the claw RPC layer's otel
// interceptor instruments unary/stream calls.
package segevents

import (
	"github.com/gostdlib/base/context"
	"github.com/gostdlib/base/telemetry/otel/trace/span"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Recorder holds the metric instruments used to report segment allocation
// and grey-ring activity. A nil *Recorder is valid and records nothing, so
// callers that don't care about observability can pass one through
// unconditionally.
type Recorder struct {
	allocSuccess metric.Int64Counter
	allocFailure metric.Int64Counter
	freeCount    metric.Int64Counter
	greyAttach   metric.Int64Counter
	greyDetach   metric.Int64Counter
}

// New creates a Recorder using the meter from ctx.
func New(ctx context.Context) (*Recorder, error) {
	meter := context.Meter(ctx)

	r := &Recorder{}
	var err error

	r.allocSuccess, err = meter.Int64Counter(
		"segment.allocate.success",
		metric.WithDescription("Number of segment allocations that succeeded"),
	)
	if err != nil {
		return nil, err
	}
	r.allocFailure, err = meter.Int64Counter(
		"segment.allocate.failure",
		metric.WithDescription("Number of segment allocations that failed"),
	)
	if err != nil {
		return nil, err
	}
	r.freeCount, err = meter.Int64Counter(
		"segment.free",
		metric.WithDescription("Number of segments freed"),
	)
	if err != nil {
		return nil, err
	}
	r.greyAttach, err = meter.Int64Counter(
		"segment.grey_ring.attach",
		metric.WithDescription("Number of times a segment was attached to a grey ring"),
	)
	if err != nil {
		return nil, err
	}
	r.greyDetach, err = meter.Int64Counter(
		"segment.grey_ring.detach",
		metric.WithDescription("Number of times a segment was detached from a grey ring"),
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// AllocSpan starts a span covering one Allocate call for class, returning
// the updated context and an end func recording success or failure. Safe to
// call on a nil Recorder.
func (r *Recorder) AllocSpan(ctx context.Context, class string) (context.Context, func(err error)) {
	var sp span.Span
	ctx, sp = span.New(ctx, span.WithName("segment.Allocate"))
	sp.Span.SetAttributes(attribute.String("segment.class", class))

	return ctx, func(err error) {
		defer sp.End()
		if r == nil {
			return
		}
		attrs := metric.WithAttributes(attribute.String("segment.class", class))
		if err != nil {
			r.allocFailure.Add(ctx, 1, attrs)
			return
		}
		r.allocSuccess.Add(ctx, 1, attrs)
	}
}

// Free records one segment free for class.
func (r *Recorder) Free(ctx context.Context, class string) {
	if r == nil {
		return
	}
	r.freeCount.Add(ctx, 1, metric.WithAttributes(attribute.String("segment.class", class)))
}

// GreyAttach records a segment's grey_link attaching to a rank's grey ring.
func (r *Recorder) GreyAttach(ctx context.Context, rank string) {
	if r == nil {
		return
	}
	r.greyAttach.Add(ctx, 1, metric.WithAttributes(attribute.String("rank", rank)))
}

// GreyDetach records a segment's grey_link detaching from its grey ring.
func (r *Recorder) GreyDetach(ctx context.Context, rank string) {
	if r == nil {
		return
	}
	r.greyDetach.Add(ctx, 1, metric.WithAttributes(attribute.String("rank", rank)))
}
