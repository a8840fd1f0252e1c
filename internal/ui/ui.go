// Package ui is the output side of the client: user-facing alerts and
// route changes. Flows report through a Presenter and never print.
package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/rs/zerolog/log"
)

// Routes of the client.
const (
	RouteHome   = "/"
	RouteLogin  = "/login"
	RouteSignup = "/signup"
	RouteLogout = "/logout"
)

// RestaurantRoute is the detail page of a restaurant.
func RestaurantRoute(id models.ID) string {
	return "/restaurants/" + id.String()
}

// ReviewsRoute lists the reviews of a restaurant.
func ReviewsRoute(id models.ID) string {
	return "/restaurants/" + id.String() + "/reviews"
}

// NewReviewRoute is the review form of a restaurant.
func NewReviewRoute(id models.ID) string {
	return "/restaurants/" + id.String() + "/reviews/new"
}

// Presenter receives the outcomes a user must see.
type Presenter interface {
	// Alert shows a blocking message.
	Alert(message string)
	// Navigate moves the tab to another route.
	Navigate(route string)
}

// Console is a Presenter writing to a terminal.
type Console struct {
	mu         sync.Mutex
	out        io.Writer
	route      string
	onNavigate func(route string)
}

// NewConsole returns a Console positioned on the home route.
func NewConsole(out io.Writer) *Console {
	return &Console{out: out, route: RouteHome}
}

// OnNavigate registers the function called after every route change.
func (c *Console) OnNavigate(fn func(route string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onNavigate = fn
}

// Alert prints message.
func (c *Console) Alert(message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	log.Debug().Str("message", message).Msg("Alert shown")
	fmt.Fprintf(c.out, "! %s\n", message)
}

// Navigate records route and notifies the OnNavigate hook.
func (c *Console) Navigate(route string) {
	c.mu.Lock()
	c.route = route
	hook := c.onNavigate
	c.mu.Unlock()

	log.Debug().Str("route", route).Msg("Navigated")
	if hook != nil {
		hook(route)
	}
}

// Route returns the current route.
func (c *Console) Route() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}
