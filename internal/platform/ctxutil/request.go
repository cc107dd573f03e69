package ctxutil

import "context"

type requestDataKey struct{}

// RequestData carries the authenticated caller of a mutating API request.
type RequestData struct {
	Subject string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if rd, ok := ctx.Value(requestDataKey{}).(*RequestData); ok {
		return rd
	}
	return nil
}
