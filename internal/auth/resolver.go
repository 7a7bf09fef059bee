package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"MiniInventory/internal/store"
	"MiniInventory/pkg/kit"
)

var (
	ErrMissingHeader   = errors.New("no authorization header provided")
	ErrMalformedHeader = errors.New("malformed authorization header")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUnknownUser     = errors.New("user not found")
	ErrForbidden       = errors.New("forbidden")
)

// rejections maps every resolver failure to its status and client message.
var rejections = []struct {
	err    error
	status int
	msg    string
}{
	{ErrMissingHeader, http.StatusUnauthorized, "No authorization header provided"},
	{ErrMalformedHeader, http.StatusUnauthorized, "Malformed authorization header"},
	{ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{ErrUnknownUser, http.StatusUnauthorized, "User not found"},
	{ErrForbidden, http.StatusForbidden, "Forbidden"},
}

type UserLookup interface {
	GetUserByUsername(username string) (store.User, bool)
}

// Resolver turns a bearer header into the current user record.
type Resolver struct {
	Users  UserLookup
	Tokens *TokenMaker
	Log    *zap.Logger
}

func NewResolver(users UserLookup, tokens *TokenMaker, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{Users: users, Tokens: tokens, Log: log}
}

// Authenticate accepts exactly "Bearer <token>". The token subject is resolved
// against the store on every call, so deleted users and role changes apply
// immediately.
func (rv *Resolver) Authenticate(header string) (store.User, error) {
	if header == "" {
		return store.User{}, ErrMissingHeader
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return store.User{}, ErrMalformedHeader
	}

	claims, err := rv.Tokens.Parse(parts[1])
	if err != nil {
		return store.User{}, err
	}

	u, ok := rv.Users.GetUserByUsername(claims.Username)
	if !ok {
		return store.User{}, fmt.Errorf("%w: %s", ErrUnknownUser, claims.Username)
	}
	return u, nil
}

// AuthorizeRole is an exact match; Manager does not imply Employee.
func AuthorizeRole(u store.User, required store.Role) error {
	if u.Role != required {
		return fmt.Errorf("%w: requires %s, has %s", ErrForbidden, required, u.Role)
	}
	return nil
}

type ctxKey struct{}

func WithUser(ctx context.Context, u store.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) (store.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(store.User)
	return u, ok
}

// Middleware attaches the authenticated user to the request context.
func (rv *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := rv.Authenticate(r.Header.Get("Authorization"))
		if err != nil {
			rv.Log.Warn("request rejected", zap.String("path", r.URL.Path), zap.Error(err))
			reject(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

// RequireRole must run after Middleware.
func (rv *Resolver) RequireRole(role store.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				reject(w, r, ErrMissingHeader)
				return
			}
			if err := AuthorizeRole(u, role); err != nil {
				rv.Log.Warn("request forbidden",
					zap.String("path", r.URL.Path),
					zap.String("username", u.Username),
					zap.String("required", string(role)),
					zap.String("role", string(u.Role)),
				)
				reject(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Guard is Middleware followed by RequireRole(role).
func (rv *Resolver) Guard(role store.Role) []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{rv.Middleware, rv.RequireRole(role)}
}

func reject(w http.ResponseWriter, r *http.Request, err error) {
	for _, rj := range rejections {
		if errors.Is(err, rj.err) {
			kit.WriteError(w, r, rj.status, rj.msg, nil)
			return
		}
	}
	kit.WriteError(w, r, http.StatusUnauthorized, "Invalid token", nil)
}
