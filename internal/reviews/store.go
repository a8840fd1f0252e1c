// Package reviews keeps the client's read-through copy of one restaurant's
// reviews and reconciles local edits with the backend.
//
// Mutations are applied to the local collection only after the backend
// accepted them. A rejected update or delete leaves the collection exactly
// as it was, which may be stale; Reload fetches one review again when a
// caller wants to resynchronize. Nothing is retried or reloaded implicitly.
//
// The mutex guards local state only and is never held across a request,
// so concurrent mutations interleave and apply their outcomes in arrival
// order.
package reviews

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/csrf"
	"github.com/ieraasyl/SavorViews/internal/middleware"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"github.com/ieraasyl/SavorViews/internal/validate"
	"github.com/rs/zerolog/log"
)

// Messages shown to the user.
const (
	MsgReviewAdded  = "Review added successfully!"
	MsgTokenMissing = "CSRF token is missing. Please refresh and try again."
)

// ErrNotEditing is returned by Update when the review is not under the
// edit cursor.
var ErrNotEditing = errors.New("review is not being edited")

// Store is the review collection of one restaurant plus its edit cursor.
type Store struct {
	client       *api.Client
	gateway      *csrf.Gateway
	presenter    ui.Presenter
	validator    *validate.Validator
	restaurantID models.ID

	mu      sync.Mutex
	reviews []models.Review
	loaded  bool
	viewer  models.Identity
	cursor  models.EditCursor
}

// NewStore returns an empty store for restaurantID. The gateway is the
// owning view's; mutations fail fast until it holds a token.
func NewStore(client *api.Client, gateway *csrf.Gateway, presenter ui.Presenter, validator *validate.Validator, restaurantID models.ID) *Store {
	return &Store{
		client:       client,
		gateway:      gateway,
		presenter:    presenter,
		validator:    validator,
		restaurantID: restaurantID,
	}
}

// RestaurantID returns the restaurant the store belongs to.
func (s *Store) RestaurantID() models.ID { return s.restaurantID }

func (s *Store) collectionPath() string {
	return "/restaurants/" + s.restaurantID.String() + "/reviews"
}

func (s *Store) reviewPath(id models.ID) string {
	return s.collectionPath() + "/" + id.String()
}

// List replaces the collection with the backend's. On any failure the
// collection is left as it was and the error is logged.
func (s *Store) List(ctx context.Context) error {
	resp, err := s.client.Get(ctx, s.collectionPath())
	if err != nil {
		log.Error().Err(err).Str("restaurant_id", s.restaurantID.String()).Msg("Failed to fetch reviews")
		return err
	}
	if err := resp.Err(); err != nil {
		log.Error().Err(err).Str("restaurant_id", s.restaurantID.String()).Msg("Failed to fetch reviews")
		return err
	}

	var list []models.Review
	if err := resp.DecodeArray(&list); err != nil {
		log.Error().
			Err(err).
			Str("restaurant_id", s.restaurantID.String()).
			Bytes("body", resp.Body).
			Msg("Expected an array of reviews")
		return err
	}
	if list == nil {
		list = []models.Review{}
	}

	s.mu.Lock()
	s.reviews = list
	s.loaded = true
	s.mu.Unlock()

	log.Debug().
		Str("restaurant_id", s.restaurantID.String()).
		Int("count", len(list)).
		Msg("Reviews loaded")
	return nil
}

// IdentifyCurrentUser asks the backend who the viewer is. Failures are
// logged only; the viewer then owns nothing.
func (s *Store) IdentifyCurrentUser(ctx context.Context) error {
	identity, err := s.fetchIdentity(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch current user")
		return err
	}

	s.mu.Lock()
	s.viewer = identity
	s.mu.Unlock()
	return nil
}

func (s *Store) fetchIdentity(ctx context.Context) (models.Identity, error) {
	resp, err := s.client.Get(ctx, "/auth")
	if err != nil {
		return models.Identity{}, err
	}
	if err := resp.Err(); err != nil {
		return models.Identity{}, err
	}
	var identity models.Identity
	if err := resp.Decode(&identity); err != nil {
		return models.Identity{}, err
	}
	return identity, nil
}

// CurrentUserID returns the viewer id found by IdentifyCurrentUser.
func (s *Store) CurrentUserID() models.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer.ID
}

// Owns reports whether the viewer wrote review.
func (s *Store) Owns(review models.Review) bool {
	viewer := s.CurrentUserID()
	return !viewer.IsZero() && viewer == review.UserID
}

// CanModify reports whether edit and delete controls are offered for
// review: the viewer owns it and a token is held. It is evaluated on every
// call so controls appear as soon as the token arrives.
func (s *Store) CanModify(review models.Review) bool {
	return s.gateway.Ready() && s.Owns(review)
}

// Reviews returns a copy of the collection.
func (s *Store) Reviews() []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Review(nil), s.reviews...)
}

// Loaded reports whether List has succeeded at least once.
func (s *Store) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Create validates and posts a new review. The created review is returned
// and, when the collection has been loaded, appended to it.
func (s *Store) Create(ctx context.Context, form models.ReviewForm) (created models.Review, err error) {
	defer func() { middleware.IncrementReviewMutations("create", api.Result(err)) }()

	if err := s.validator.Struct(form); err != nil {
		var fe validate.FieldErrors
		errors.As(err, &fe)
		return models.Review{}, api.Validation("create review", fe, err)
	}

	token, err := s.gateway.Require(api.Op(http.MethodPost, s.collectionPath()))
	if err != nil {
		s.presenter.Alert(MsgTokenMissing)
		return models.Review{}, err
	}

	resp, err := s.client.Send(ctx, http.MethodPost, s.collectionPath(), token, form)
	if err != nil {
		log.Error().Err(err).Msg("There was an error submitting the review")
		return models.Review{}, err
	}
	if err := resp.Err(); err != nil {
		log.Error().Err(err).Str("message", resp.Message()).Msg("Error adding review")
		return models.Review{}, err
	}
	if err := resp.Decode(&created); err != nil {
		log.Error().Err(err).Msg("Error adding review")
		return models.Review{}, err
	}

	s.mu.Lock()
	if created.UserEmail == "" && created.UserID == s.viewer.ID {
		created.UserEmail = s.viewer.Email
	}
	if s.loaded {
		s.reviews = append(s.reviews, created)
	}
	s.mu.Unlock()

	log.Info().
		Str("review_id", created.ID.String()).
		Str("restaurant_id", s.restaurantID.String()).
		Msg("Review created")

	s.presenter.Alert(MsgReviewAdded)
	return created, nil
}

// BeginEdit points the cursor at review and copies its content and rating
// into the draft. Any other review's unsaved draft is discarded.
func (s *Store) BeginEdit(review models.Review) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = models.EditCursor{
		ReviewID:     review.ID,
		DraftContent: review.Content,
		DraftRating:  review.Rating,
	}
}

// SetDraft changes the draft of the review being edited.
func (s *Store) SetDraft(content string, rating models.Rating) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.cursor.Active() {
		return
	}
	s.cursor.DraftContent = content
	s.cursor.DraftRating = rating
}

// CancelEdit clears the cursor.
func (s *Store) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = models.EditCursor{}
}

// Cursor returns the edit cursor.
func (s *Store) Cursor() models.EditCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Update puts the draft of review. On success the entry is replaced by id
// and the cursor cleared; on failure the collection and cursor are left
// untouched and the error is logged.
func (s *Store) Update(ctx context.Context, review models.Review) (err error) {
	defer func() { middleware.IncrementReviewMutations("update", api.Result(err)) }()

	path := s.reviewPath(review.ID)
	token, err := s.gateway.Require(api.Op(http.MethodPut, path))
	if err != nil {
		log.Error().Err(err).Msg("There was an error updating the review")
		return err
	}

	cursor := s.Cursor()
	if cursor.ReviewID != review.ID {
		return api.Precondition(api.Op(http.MethodPut, path), ErrNotEditing)
	}

	draft := models.ReviewForm{Content: cursor.DraftContent, Rating: cursor.DraftRating}
	resp, err := s.client.Send(ctx, http.MethodPut, path, token, draft)
	if err != nil {
		log.Error().Err(err).Msg("There was an error updating the review")
		return err
	}
	if err := resp.Err(); err != nil {
		log.Error().Err(err).Str("request_id", api.RequestIDOf(err)).Msg("Failed to update the review")
		return err
	}

	var updated models.Review
	if err := resp.Decode(&updated); err != nil {
		log.Error().Err(err).Msg("Failed to update the review")
		return err
	}

	s.mu.Lock()
	for i, existing := range s.reviews {
		if existing.ID == updated.ID {
			if updated.UserEmail == "" {
				updated.UserEmail = existing.UserEmail
			}
			s.reviews[i] = updated
			break
		}
	}
	if s.cursor.ReviewID == review.ID {
		s.cursor = models.EditCursor{}
	}
	s.mu.Unlock()

	log.Info().Str("review_id", updated.ID.String()).Msg("Review updated")
	return nil
}

// Remove deletes a review. On success the entry is filtered out; on
// failure it stays visible and the error is logged.
func (s *Store) Remove(ctx context.Context, reviewID models.ID) (err error) {
	defer func() { middleware.IncrementReviewMutations("delete", api.Result(err)) }()

	path := s.reviewPath(reviewID)
	token, err := s.gateway.Require(api.Op(http.MethodDelete, path))
	if err != nil {
		log.Error().Err(err).Msg("There was an error deleting the review")
		return err
	}

	resp, err := s.client.Send(ctx, http.MethodDelete, path, token, nil)
	if err != nil {
		log.Error().Err(err).Msg("There was an error deleting the review")
		return err
	}
	if err := resp.Err(); err != nil {
		log.Error().Err(err).Str("request_id", api.RequestIDOf(err)).Msg("Failed to delete the review")
		return err
	}

	s.mu.Lock()
	s.reviews = without(s.reviews, reviewID)
	s.mu.Unlock()

	log.Info().Str("review_id", reviewID.String()).Msg("Review deleted")
	return nil
}

// Reload fetches one review and replaces its local entry, or drops the
// entry when the backend no longer has it.
func (s *Store) Reload(ctx context.Context, reviewID models.ID) error {
	resp, err := s.client.Get(ctx, s.reviewPath(reviewID))
	if err != nil {
		log.Error().Err(err).Msg("Failed to reload review")
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		s.mu.Lock()
		s.reviews = without(s.reviews, reviewID)
		s.mu.Unlock()
		return nil
	}
	if err := resp.Err(); err != nil {
		log.Error().Err(err).Msg("Failed to reload review")
		return err
	}

	var fresh models.Review
	if err := resp.Decode(&fresh); err != nil {
		log.Error().Err(err).Msg("Failed to reload review")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.reviews {
		if existing.ID == fresh.ID {
			s.reviews[i] = fresh
			return nil
		}
	}
	s.reviews = append(s.reviews, fresh)
	return nil
}

func without(list []models.Review, id models.ID) []models.Review {
	out := make([]models.Review, 0, len(list))
	for _, r := range list {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}
