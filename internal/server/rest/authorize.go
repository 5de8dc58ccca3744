package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/memberservice/internal/common"
	"github.com/dmitrijs2005/memberservice/internal/logging"
	"github.com/dmitrijs2005/memberservice/internal/server/auth"
	"github.com/dmitrijs2005/memberservice/internal/server/models"
)

const bearerPrefix = "Bearer "

// Authorization is the identity a request was authenticated as. Handlers
// receive it as an argument; it is never stored on the request context.
type Authorization struct {
	User  *models.User
	Token *auth.ServiceToken
}

// AuthorizedHandler is a handler that runs after authorization. a is nil
// only under LoadToken when the request carried no token.
type AuthorizedHandler func(w http.ResponseWriter, r *http.Request, a *Authorization)

// TokenResolver decodes a token and loads the live user it belongs to.
type TokenResolver interface {
	ResolveToken(ctx context.Context, token string) (*auth.ServiceToken, *models.User, error)
}

type Authorizer struct {
	resolver TokenResolver
	logger   logging.Logger
}

func NewAuthorizer(resolver TokenResolver, l logging.Logger) *Authorizer {
	return &Authorizer{resolver: resolver, logger: l.With("module", "authorizer")}
}

// extractToken prefers the Authorization header over the token cookie.
// A bearer header with an empty token still counts as present.
func extractToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, bearerPrefix) {
		return strings.TrimPrefix(h, bearerPrefix), true
	}
	if c, err := r.Cookie(common.TokenCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}
	return "", false
}

func (a *Authorizer) resolve(r *http.Request, token string) (*Authorization, error) {
	st, u, err := a.resolver.ResolveToken(r.Context(), token)
	if err != nil {
		return nil, err
	}
	return &Authorization{User: u, Token: st}, nil
}

// Authorize rejects requests without a valid token. Rejections are written
// as a JSON envelope when returnAsJSON is set and as the error page otherwise.
func (a *Authorizer) Authorize(returnAsJSON bool, next AuthorizedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			a.reject(w, r, returnAsJSON, common.NewUnauthenticatedError("Unauthorized"))
			return
		}

		authz, err := a.resolve(r, token)
		if err != nil {
			a.reject(w, r, returnAsJSON, err)
			return
		}
		next(w, r, authz)
	})
}

// LoadToken resolves a token when one is present and otherwise calls next
// with a nil Authorization. A present but invalid token is still rejected.
func (a *Authorizer) LoadToken(next AuthorizedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := extractToken(r)
		if !ok {
			next(w, r, nil)
			return
		}

		authz, err := a.resolve(r, token)
		if err != nil {
			a.reject(w, r, true, err)
			return
		}
		next(w, r, authz)
	})
}

func (a *Authorizer) reject(w http.ResponseWriter, r *http.Request, returnAsJSON bool, err error) {
	status, msg := errorResponse(err)
	if status == http.StatusInternalServerError {
		a.logger.Error(r.Context(), "authorization failed", "error", err)
	}

	if returnAsJSON {
		respondError(w, status, msg)
		return
	}
	renderError(w, status, msg)
}

// requireRole writes 403 and returns false unless the requester holds at
// least role.
func requireRole(w http.ResponseWriter, a *Authorization, role models.Role) bool {
	if a == nil || a.User == nil || models.CompareRoles(a.User.Role, role) < 0 {
		respondError(w, http.StatusForbidden, "Forbidden")
		return false
	}
	return true
}
