// Package views composes the client's components per route.
//
// A view is mounted when its route is opened and unmounted when another
// route replaces it. Mounting starts the view's effects (token acquisition,
// data fetches) concurrently; none of them cancels another. Every request a
// view makes is bound to the view's lifetime, so unmounting cancels what is
// still pending.
package views

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/restaurants"
	"github.com/ieraasyl/SavorViews/internal/session"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"github.com/ieraasyl/SavorViews/internal/validate"
	"github.com/rs/zerolog/log"
)

// View is one screen of the client.
type View interface {
	// Route returns the route the view was opened for.
	Route() string
	// Mount starts the view's effects and waits for them.
	Mount(ctx context.Context) error
	// Unmount cancels everything the view still has in flight.
	Unmount()
	// Render writes the view.
	Render(w io.Writer)
}

// lifetime is the cancellation scope of a mounted view.
type lifetime struct {
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

func (l *lifetime) start(parent context.Context) context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ctx, l.cancel = context.WithCancel(parent)
	return l.ctx
}

// context returns the view's context; before Mount it is already done.
func (l *lifetime) context() context.Context {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ctx == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return l.ctx
}

// Unmount cancels the view's context.
func (l *lifetime) Unmount() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
}

// Shell owns the tab-wide components and the current view.
type Shell struct {
	client    *api.Client
	store     *session.Store
	presenter ui.Presenter
	validator *validate.Validator
	catalogue *restaurants.Service

	mu      sync.Mutex
	current View
}

// NewShell creates a shell with no view open.
func NewShell(client *api.Client, store *session.Store, presenter ui.Presenter, validator *validate.Validator) *Shell {
	return &Shell{
		client:    client,
		store:     store,
		presenter: presenter,
		validator: validator,
		catalogue: restaurants.NewService(client),
	}
}

// Session returns the tab's session store.
func (s *Shell) Session() *session.Store { return s.store }

// Current returns the open view, or nil.
func (s *Shell) Current() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Open unmounts the current view and mounts the one for route.
//
// Example:
//
//	view, err := shell.Open(ctx, ui.RestaurantRoute("3"))
func (s *Shell) Open(ctx context.Context, route string) (View, error) {
	view, err := s.resolve(route)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	previous := s.current
	s.current = view
	s.mu.Unlock()

	if previous != nil {
		previous.Unmount()
	}

	log.Debug().Str("route", route).Msg("Mounting view")
	return view, view.Mount(ctx)
}

// Close unmounts the current view.
func (s *Shell) Close() {
	s.mu.Lock()
	previous := s.current
	s.current = nil
	s.mu.Unlock()

	if previous != nil {
		previous.Unmount()
	}
}

func (s *Shell) resolve(route string) (View, error) {
	switch route {
	case ui.RouteHome, "":
		return newRestaurantList(s), nil
	case ui.RouteLogin:
		return newLoginView(s), nil
	case ui.RouteSignup:
		return newSignupView(s), nil
	case ui.RouteLogout:
		return newLogoutView(s), nil
	}

	parts := strings.Split(strings.Trim(route, "/"), "/")
	if len(parts) < 2 || parts[0] != "restaurants" || parts[1] == "" {
		return nil, fmt.Errorf("unknown route %q", route)
	}
	id := models.ID(parts[1])

	switch {
	case len(parts) == 2:
		return newRestaurantDetail(s, id), nil
	case len(parts) == 3 && parts[2] == "reviews":
		return newReviewList(s, id), nil
	case len(parts) == 4 && parts[2] == "reviews" && parts[3] == "new":
		return newReviewFormView(s, id), nil
	}
	return nil, fmt.Errorf("unknown route %q", route)
}

// forgetOnUnauthorized clears the session when an identity check came
// back 401: the backend no longer knows this tab, so the local login is
// stale.
func (s *Shell) forgetOnUnauthorized(ctx context.Context, err error) {
	if api.StatusOf(err) != http.StatusUnauthorized || !s.store.Current().Authenticated() {
		return
	}
	log.Warn().Err(err).Msg("Unauthorized request. Please login again.")
	if err := s.store.Clear(context.WithoutCancel(ctx)); err != nil {
		log.Error().Err(err).Msg("Failed to clear stale session")
	}
}

// Navbar renders the navigation bar from the session store.
func (s *Shell) Navbar() string {
	sess := s.store.Current()
	if sess.Authenticated() {
		return fmt.Sprintf("SavorViews | Restaurants | Hello, %s | Logout", sess.Username())
	}
	return "SavorViews | Restaurants | Login | Signup"
}
