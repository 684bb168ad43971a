package wrap

import (
	"context"
	"errors"
)

// Error wraps an error with the current LogCtx from the context
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	// Already wrapped: the outer context wins, but a journey id recorded
	// deeper in the call stack is not lost.
	var e *errorWithLogCtx
	if errors.As(err, &e) {
		if x, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
			if x.JourneyID == "" {
				x.JourneyID = e.logCtx.JourneyID
			}
			e.logCtx = x
		}
		return err
	}

	c := LogCtx{}
	if x, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		c = x
	}
	return &errorWithLogCtx{
		err:    err,
		logCtx: c,
	}
}
