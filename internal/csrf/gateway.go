// Package csrf holds the anti-forgery token a view attaches to its
// state-changing requests.
//
// Each mutating view owns one Gateway and acquires its token on mount.
// There is no retry, no expiry tracking and no refresh: a failed acquisition
// leaves the gateway empty until the view is mounted again, and every
// mutation attempted meanwhile fails fast with api.ErrTokenMissing.
package csrf

import (
	"context"
	"errors"
	"sync"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/middleware"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/rs/zerolog/log"
)

// TokenPath is the backend endpoint handing out anti-forgery tokens.
const TokenPath = "/csrf_token"

// errEmptyToken is returned when the backend answers without a token.
var errEmptyToken = errors.New("backend returned an empty token")

// Fetcher is the part of api.Client the gateway needs.
type Fetcher interface {
	Get(ctx context.Context, path string) (*api.Response, error)
}

// Gateway holds at most one anti-forgery token.
type Gateway struct {
	fetcher Fetcher

	mu    sync.RWMutex
	token string
}

// NewGateway returns an empty gateway.
func NewGateway(fetcher Fetcher) *Gateway {
	return &Gateway{fetcher: fetcher}
}

// Acquire fetches a token and holds it. On any failure the gateway ends up
// holding no token, even if it held one before.
func (g *Gateway) Acquire(ctx context.Context) (string, error) {
	token, err := g.fetch(ctx)

	g.mu.Lock()
	g.token = token
	g.mu.Unlock()

	if err != nil {
		middleware.IncrementTokenAcquisitions("error")
		log.Error().Err(err).Msg("There was an error fetching the CSRF token")
		return "", err
	}

	middleware.IncrementTokenAcquisitions("success")
	log.Debug().Msg("CSRF token acquired")
	return token, nil
}

func (g *Gateway) fetch(ctx context.Context) (string, error) {
	resp, err := g.fetcher.Get(ctx, TokenPath)
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}

	var body models.AntiForgeryToken
	if err := resp.Decode(&body); err != nil {
		return "", err
	}
	if body.Token == "" {
		return "", api.Contract(resp.Op, errEmptyToken)
	}
	return body.Token, nil
}

// Token returns the held token and whether there is one.
func (g *Gateway) Token() (string, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token, g.token != ""
}

// Ready reports whether a token is held. Views use it to enable or
// disable their edit and delete affordances.
func (g *Gateway) Ready() bool {
	_, ok := g.Token()
	return ok
}

// Require returns the held token, or a precondition error wrapping
// api.ErrTokenMissing. Mutating operations call it before any I/O.
func (g *Gateway) Require(op string) (string, error) {
	token, ok := g.Token()
	if !ok {
		return "", api.Precondition(op, api.ErrTokenMissing)
	}
	return token, nil
}
