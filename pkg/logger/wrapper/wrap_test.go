package wrap

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

var errBase = errors.New("base")

func TestErrorKeepsChainAndContext(t *testing.T) {
	ctx := WithAction(context.Background(), "append_sample")
	ctx = WithJourneyID(ctx, "j-1")

	err := Error(ctx, fmt.Errorf("op: %w", errBase))
	if !errors.Is(err, errBase) {
		t.Fatalf("wrapped error lost its chain")
	}

	logCtx := ErrorCtx(context.Background(), err)
	lc, ok := logCtx.Value(LogCtxKey).(LogCtx)
	if !ok {
		t.Fatalf("expected log context to be restored")
	}
	if lc.Action != "append_sample" || lc.JourneyID != "j-1" {
		t.Fatalf("unexpected log context: %+v", lc)
	}
}

func TestErrorRewrapUpdatesContext(t *testing.T) {
	first := Error(WithAction(context.Background(), "first"), errBase)
	outer := fmt.Errorf("outer: %w", first)

	again := Error(WithAction(context.Background(), "second"), outer)
	if again.Error() != "outer: base" {
		t.Fatalf("unexpected message %q", again.Error())
	}

	lc := ErrorCtx(context.Background(), again).Value(LogCtxKey).(LogCtx)
	if lc.Action != "second" {
		t.Fatalf("expected updated action, got %q", lc.Action)
	}
}

func TestWithLogCtxMerges(t *testing.T) {
	ctx := WithUserID(context.Background(), "u-1")
	ctx = WithLogCtx(ctx, LogCtx{RequestID: "r-1"})

	lc := ctx.Value(LogCtxKey).(LogCtx)
	if lc.UserID != "u-1" || lc.RequestID != "r-1" {
		t.Fatalf("values were not merged: %+v", lc)
	}
}

func TestErrorNil(t *testing.T) {
	if Error(context.Background(), nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestErrorCtxKeepsRequestID(t *testing.T) {
	err := Error(WithJourneyID(context.Background(), "j-9"), errBase)

	handlerCtx := WithRequestID(context.Background(), "req-7")
	lc := ErrorCtx(handlerCtx, err).Value(LogCtxKey).(LogCtx)
	if lc.RequestID != "req-7" || lc.JourneyID != "j-9" {
		t.Fatalf("unexpected log context: %+v", lc)
	}
}

func TestRewrapKeepsJourneyID(t *testing.T) {
	inner := Error(WithJourneyID(context.Background(), "j-3"), errBase)
	outer := Error(WithAction(context.Background(), "finalize"), fmt.Errorf("finalize: %w", inner))

	lc := ErrorCtx(context.Background(), outer).Value(LogCtxKey).(LogCtx)
	if lc.JourneyID != "j-3" || lc.Action != "finalize" {
		t.Fatalf("unexpected log context: %+v", lc)
	}
}
