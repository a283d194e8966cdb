package session

import "context"

type contextKey struct{}

// ContextWith stores the session in context.
func ContextWith(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext extracts the session from context.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}

// ContextTokens adapts the request-scoped session to the API client's token
// source, so one long-lived client serves every browser session.
type ContextTokens struct{}

// Token reads the bearer token of the session carried by ctx.
func (ContextTokens) Token(ctx context.Context) string {
	return FromContext(ctx).Token()
}

// Clear drops the token of the session carried by ctx. Any other request in
// flight for the same session keeps its already attached header.
func (ContextTokens) Clear(ctx context.Context) {
	if sess := FromContext(ctx); sess != nil {
		sess.ClearToken()
	}
}
