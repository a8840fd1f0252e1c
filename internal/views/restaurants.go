package views

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"golang.org/x/sync/errgroup"
)

// RestaurantList is the home page.
type RestaurantList struct {
	lifetime
	shell *Shell

	mu          sync.Mutex
	restaurants []models.Restaurant
}

func newRestaurantList(s *Shell) *RestaurantList {
	return &RestaurantList{shell: s}
}

// Route implements View.
func (v *RestaurantList) Route() string { return ui.RouteHome }

// Mount fetches the catalogue.
func (v *RestaurantList) Mount(ctx context.Context) error {
	ctx = v.start(ctx)

	list, err := v.shell.catalogue.List(ctx)
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.restaurants = list
	v.mu.Unlock()
	return nil
}

// Restaurants returns the fetched catalogue.
func (v *RestaurantList) Restaurants() []models.Restaurant {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Restaurant(nil), v.restaurants...)
}

// Render implements View.
func (v *RestaurantList) Render(w io.Writer) {
	fmt.Fprintln(w, "Restaurants")
	for _, r := range v.Restaurants() {
		fmt.Fprintf(w, "  [%s] %s, %s\n", r.ID, r.Name, r.Location)
	}
}

// RestaurantDetail shows one restaurant and gates posting a review on a
// fresh login check.
type RestaurantDetail struct {
	lifetime
	shell *Shell
	id    models.ID

	mu         sync.Mutex
	restaurant models.Restaurant
	loggedIn   bool
	loaded     bool
}

func newRestaurantDetail(s *Shell, id models.ID) *RestaurantDetail {
	return &RestaurantDetail{shell: s, id: id}
}

// Route implements View.
func (v *RestaurantDetail) Route() string { return ui.RestaurantRoute(v.id) }

// Mount fetches the restaurant and checks the login state concurrently.
func (v *RestaurantDetail) Mount(ctx context.Context) error {
	ctx = v.start(ctx)

	var g errgroup.Group
	g.Go(func() error {
		restaurant, err := v.shell.catalogue.Detail(ctx, v.id)
		if err != nil {
			return err
		}
		v.mu.Lock()
		v.restaurant = restaurant
		v.loaded = true
		v.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		loggedIn, err := v.shell.catalogue.CheckLogin(ctx)
		v.shell.forgetOnUnauthorized(ctx, err)
		v.mu.Lock()
		v.loggedIn = loggedIn
		v.mu.Unlock()
		return nil
	})
	return g.Wait()
}

// Restaurant returns the fetched restaurant and whether it loaded.
func (v *RestaurantDetail) Restaurant() (models.Restaurant, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.restaurant, v.loaded
}

// LoggedIn reports the outcome of the login check.
func (v *RestaurantDetail) LoggedIn() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loggedIn
}

// PostReview opens the review form, or tells an anonymous user to log in.
func (v *RestaurantDetail) PostReview() {
	if v.LoggedIn() {
		v.shell.presenter.Navigate(ui.NewReviewRoute(v.id))
		return
	}
	v.shell.presenter.Alert("You need to log in to post a review!")
}

// PreviousReviews opens the review list.
func (v *RestaurantDetail) PreviousReviews() {
	v.shell.presenter.Navigate(ui.ReviewsRoute(v.id))
}

// Render implements View.
func (v *RestaurantDetail) Render(w io.Writer) {
	r, ok := v.Restaurant()
	if !ok {
		fmt.Fprintln(w, "Loading...")
		return
	}
	fmt.Fprintf(w, "%s\n%s\n%s\nAverage rating: %.1f\n", r.Name, r.Location, r.Description, r.AverageRating)
	fmt.Fprintln(w, "Actions: post, reviews")
}
