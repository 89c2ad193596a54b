package audit

import "context"

// RequestMeta identifies the HTTP request an audit entry originated from.
type RequestMeta struct {
	RequestID string
	ClientIP  string
	UserAgent string
}

type requestMetaKey struct{}

func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the zero value outside of a request, e.g. for
// scheduled jobs.
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}
