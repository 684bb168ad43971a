package wrap

import (
	"context"
	"errors"
)

// errorWithLogCtx carries the log context of the operation that failed.
type errorWithLogCtx struct {
	err    error
	logCtx LogCtx
}

func (e *errorWithLogCtx) Error() string {
	return e.err.Error()
}

func (e *errorWithLogCtx) Unwrap() error {
	return e.err
}

// ErrorCtx layers the log context stored in err over ctx. Fields set on the
// error win; the rest (typically the request id of the handler that logs it)
// are kept from ctx.
func ErrorCtx(ctx context.Context, err error) context.Context {
	var e *errorWithLogCtx
	if errors.As(err, &e) && e != nil {
		return WithLogCtx(ctx, e.logCtx)
	}
	return ctx
}

