package snsctx

import "context"

type ctxIndex int

const (
	ctxIndexVerbose ctxIndex = iota
	ctxIndexSession
)

func IsVerbose(ctx context.Context) bool {
	val := ctx.Value(ctxIndexVerbose)
	if val == nil {
		return false
	}
	return val.(bool)
}

func SetVerbose(ctx context.Context, value bool) context.Context {
	return context.WithValue(ctx, ctxIndexVerbose, value)
}

// SetSession tags the context with the id of the sensor session issuing bus
// traffic so transport logs can be correlated.
func SetSession(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxIndexSession, id)
}

// Session returns the session id set with SetSession or an empty string.
func Session(ctx context.Context) string {
	val, ok := ctx.Value(ctxIndexSession).(string)
	if !ok {
		return ""
	}
	return val
}
