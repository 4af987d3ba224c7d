package httpx

import "context"

// Transform rewrites an outbound payload immediately before it is encoded.
type Transform func(data any) any

type transformContextKey struct{}

// WithTransform installs a response transform on the context. If one is
// already installed the new transform wraps it: the previous transform runs
// first and its output is fed to the new one, so chained middlewares compose
// instead of replacing each other.
func WithTransform(ctx context.Context, t Transform) context.Context {
	if t == nil {
		return ctx
	}
	if prev := TransformFromContext(ctx); prev != nil {
		inner := prev
		outer := t
		t = func(data any) any {
			return outer(inner(data))
		}
	}
	return context.WithValue(ctx, transformContextKey{}, t)
}

// TransformFromContext returns the installed transform, or nil.
func TransformFromContext(ctx context.Context) Transform {
	t, _ := ctx.Value(transformContextKey{}).(Transform)
	return t
}
