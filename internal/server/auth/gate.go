// Package auth guards HTTP handlers with opaque bearer tokens.
package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/cloudservice/internal/common"
	"github.com/dmitrijs2005/cloudservice/internal/logging"
)

// TokenChecker is the part of the token service the gate needs.
type TokenChecker interface {
	Validate(ctx context.Context, token string) bool
	ResolveOwner(ctx context.Context, token string) (string, error)
}

// DenyFunc writes the response for a rejected request. err wraps
// common.ErrorUnauthorized.
type DenyFunc func(w http.ResponseWriter, r *http.Request, err error)

type Gate struct {
	tokens      TokenChecker
	header      string
	prefix      string
	publicPaths []string
	deny        DenyFunc
	logger      logging.Logger
}

func NewGate(tokens TokenChecker, header, prefix string, publicPaths []string, deny DenyFunc, l logging.Logger) *Gate {
	if header == "" {
		header = common.AuthTokenHeaderName
	}
	if prefix == "" {
		prefix = common.AuthTokenHeaderPrefix
	}
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		}
	}
	return &Gate{
		tokens:      tokens,
		header:      header,
		prefix:      prefix,
		publicPaths: publicPaths,
		deny:        deny,
		logger:      l.With("module", "auth_gate"),
	}
}

// ExtractToken returns the bearer token from the configured header.
func (g *Gate) ExtractToken(r *http.Request) (string, error) {
	value := r.Header.Get(g.header)
	if value == "" {
		return "", common.ErrorNoAuthHeader
	}
	token, ok := strings.CutPrefix(value, g.prefix)
	if !ok || token == "" {
		return "", common.ErrorInvalidAuthHeaderFormat
	}
	return token, nil
}

func (g *Gate) isPublic(path string) bool {
	for _, p := range g.publicPaths {
		if p == "" {
			continue
		}
		if path == p {
			return true
		}
		// "/" only opens the root itself, never the whole tree.
		if base := strings.TrimSuffix(p, "/"); base != "" && strings.HasPrefix(path, base+"/") {
			return true
		}
	}
	return false
}

// Middleware rejects requests without a valid token and puts the owner id
// into the request context for the rest.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if g.isPublic(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()

		token, err := g.ExtractToken(r)
		if err != nil {
			g.logger.Debug(ctx, "request rejected", "path", r.URL.Path, "reason", err)
			g.deny(w, r, common.ErrorUnauthorized)
			return
		}

		if !g.tokens.Validate(ctx, token) {
			g.deny(w, r, common.ErrorUnauthorized)
			return
		}

		owner, err := g.tokens.ResolveOwner(ctx, token)
		if err != nil {
			g.logger.Error(ctx, "owner resolution failed for a valid token", "error", err)
			g.deny(w, r, common.ErrorUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(ctx, owner)))
	})
}
