package event

import "context"

type clientIPKey struct{}

// ContextWithClientIP records the caller address so events raised further
// down the request can carry it.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey{}).(string)
	return ip
}

// FromContext is New with the request's client address filled in.
func FromContext(ctx context.Context, typ Type, userID string, email string, detail string) Event {
	e := New(typ, userID, email, detail)
	e.IP = ClientIPFromContext(ctx)
	return e
}
