package auth

import "context"

type Role string

const (
	RoleBorrower Role = "borrower"
	RoleLender   Role = "lender"
)

func (r Role) Valid() bool {
	return r == RoleBorrower || r == RoleLender
}

// AuthContext identifies the caller of a service operation. It is passed
// explicitly into services; handlers obtain it from the request context.
type AuthContext struct {
	UserID string
	Role   Role
}

func (a AuthContext) Authenticated() bool {
	return a.UserID != "" && a.Role.Valid()
}

func (a AuthContext) IsBorrower() bool { return a.Authenticated() && a.Role == RoleBorrower }
func (a AuthContext) IsLender() bool { return a.Authenticated() && a.Role == RoleLender }

type contextKey string

const authContextKey contextKey = "auth"

func WithContext(ctx context.Context, a AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, a)
}

// FromContext returns the caller attached by the middleware, or the zero
// (unauthenticated) AuthContext.
func FromContext(ctx context.Context) AuthContext {
	a, _ := ctx.Value(authContextKey).(AuthContext)
	return a
}
