package views

import (
	"context"
	"fmt"
	"io"

	"github.com/ieraasyl/SavorViews/internal/csrf"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/restaurants"
	"github.com/ieraasyl/SavorViews/internal/reviews"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"golang.org/x/sync/errgroup"
)

// ReviewList shows a restaurant's reviews with edit and delete controls
// for the viewer's own reviews.
type ReviewList struct {
	lifetime
	shell   *Shell
	id      models.ID
	gateway *csrf.Gateway
	store   *reviews.Store
}

func newReviewList(s *Shell, id models.ID) *ReviewList {
	gateway := csrf.NewGateway(s.client)
	return &ReviewList{
		shell:   s,
		id:      id,
		gateway: gateway,
		store:   reviews.NewStore(s.client, gateway, s.presenter, s.validator, id),
	}
}

// Route implements View.
func (v *ReviewList) Route() string { return ui.ReviewsRoute(v.id) }

// Mount acquires the token, lists reviews and identifies the viewer, all
// concurrently. Only a failed list is reported; the other effects log
// their failures and leave the controls disabled.
func (v *ReviewList) Mount(ctx context.Context) error {
	ctx = v.start(ctx)

	var g errgroup.Group
	g.Go(func() error {
		_, _ = v.gateway.Acquire(ctx)
		return nil
	})
	g.Go(func() error {
		return v.store.List(ctx)
	})
	g.Go(func() error {
		v.shell.forgetOnUnauthorized(ctx, v.store.IdentifyCurrentUser(ctx))
		return nil
	})
	return g.Wait()
}

// Store returns the view's review store.
func (v *ReviewList) Store() *reviews.Store { return v.store }

// Gateway returns the view's token gateway.
func (v *ReviewList) Gateway() *csrf.Gateway { return v.gateway }

func (v *ReviewList) find(id models.ID) (models.Review, error) {
	for _, r := range v.store.Reviews() {
		if r.ID == id {
			return r, nil
		}
	}
	return models.Review{}, fmt.Errorf("no review %s", id)
}

// Edit puts review id under the edit cursor. Only reviews the viewer may
// modify can be edited.
func (v *ReviewList) Edit(id models.ID) error {
	r, err := v.find(id)
	if err != nil {
		return err
	}
	if !v.store.CanModify(r) {
		return fmt.Errorf("review %s cannot be edited", id)
	}
	v.store.BeginEdit(r)
	return nil
}

// Draft changes the draft of the review being edited.
func (v *ReviewList) Draft(content string, rating models.Rating) {
	v.store.SetDraft(content, rating)
}

// Save puts the draft of the review being edited.
func (v *ReviewList) Save() error {
	cursor := v.store.Cursor()
	if !cursor.Active() {
		return reviews.ErrNotEditing
	}
	r, err := v.find(cursor.ReviewID)
	if err != nil {
		return err
	}
	return v.store.Update(v.context(), r)
}

// Cancel leaves edit mode without saving.
func (v *ReviewList) Cancel() { v.store.CancelEdit() }

// Delete removes review id.
func (v *ReviewList) Delete(id models.ID) error {
	r, err := v.find(id)
	if err != nil {
		return err
	}
	if !v.store.CanModify(r) {
		return fmt.Errorf("review %s cannot be deleted", id)
	}
	return v.store.Remove(v.context(), id)
}

// Refresh reloads one review from the backend.
func (v *ReviewList) Refresh(id models.ID) error {
	return v.store.Reload(v.context(), id)
}

// Render implements View.
func (v *ReviewList) Render(w io.Writer) {
	cursor := v.store.Cursor()
	list := v.store.Reviews()

	fmt.Fprintln(w, "Previous Reviews")
	if len(list) == 0 {
		fmt.Fprintln(w, "  No reviews yet.")
	}
	for _, r := range list {
		if cursor.ReviewID == r.ID {
			fmt.Fprintf(w, "  [%s] editing: %s %s (%s)\n", r.ID,
				cursor.DraftRating.Stars(), cursor.DraftContent,
				restaurants.Describe(restaurants.ListDescriptions, cursor.DraftRating))
			fmt.Fprintln(w, "        save | cancel")
			continue
		}
		fmt.Fprintf(w, "  [%s] %s %s (%s)\n", r.ID, r.Rating.Stars(), r.Author(),
			restaurants.Describe(restaurants.ListDescriptions, r.Rating))
		fmt.Fprintf(w, "        %s\n", r.Content)
		if v.store.CanModify(r) {
			fmt.Fprintln(w, "        edit | delete")
		}
	}
}

// ReviewFormView posts a new review for a restaurant.
type ReviewFormView struct {
	lifetime
	shell   *Shell
	id      models.ID
	gateway *csrf.Gateway
	store   *reviews.Store
}

func newReviewFormView(s *Shell, id models.ID) *ReviewFormView {
	gateway := csrf.NewGateway(s.client)
	return &ReviewFormView{
		shell:   s,
		id:      id,
		gateway: gateway,
		store:   reviews.NewStore(s.client, gateway, s.presenter, s.validator, id),
	}
}

// Route implements View.
func (v *ReviewFormView) Route() string { return ui.NewReviewRoute(v.id) }

// Mount acquires the token and identifies the author concurrently.
func (v *ReviewFormView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)

	var g errgroup.Group
	g.Go(func() error {
		_, _ = v.gateway.Acquire(ctx)
		return nil
	})
	g.Go(func() error {
		v.shell.forgetOnUnauthorized(ctx, v.store.IdentifyCurrentUser(ctx))
		return nil
	})
	return g.Wait()
}

// Gateway returns the view's token gateway.
func (v *ReviewFormView) Gateway() *csrf.Gateway { return v.gateway }

// Submit posts the review. Field errors are returned without a request.
func (v *ReviewFormView) Submit(form models.ReviewForm) (models.Review, error) {
	return v.store.Create(v.context(), form)
}

// Render implements View.
func (v *ReviewFormView) Render(w io.Writer) {
	fmt.Fprintln(w, "Add a Review")
	for i, d := range restaurants.FormDescriptions {
		fmt.Fprintf(w, "  %d = %s\n", i+1, d)
	}
	fmt.Fprintln(w, "Usage: submit <rating> <content>")
}
