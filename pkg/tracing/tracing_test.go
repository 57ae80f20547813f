package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitTracerWithoutHost(t *testing.T) {
	tracer, closeFn, err := InitTracer(Config{})
	require.NoError(t, err)
	assert.NotNil(t, tracer)
	closeFn()
}

func TestStartSpanTagsAndErrors(t *testing.T) {
	mt := mocktracer.New()
	prev := opentracing.GlobalTracer()
	opentracing.SetGlobalTracer(mt)
	defer opentracing.SetGlobalTracer(prev)

	span, ctx := StartSpan(context.Background(), "tick", map[string]interface{}{"symbol": "BTCUSDT"})
	child, _ := StartSpan(ctx, "evaluate", nil)
	Finish(child, errors.New("boom"))
	Finish(span, nil)

	finished := mt.FinishedSpans()
	require.Len(t, finished, 2)
	assert.Equal(t, "evaluate", finished[0].OperationName)
	assert.Equal(t, true, finished[0].Tag("error"))
	assert.Equal(t, "BTCUSDT", finished[1].Tag("symbol"))
	assert.Equal(t, finished[1].SpanContext.SpanID, finished[0].ParentID)
}
