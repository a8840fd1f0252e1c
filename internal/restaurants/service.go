// Package restaurants reads the restaurant catalogue. It is read-only and
// never needs an anti-forgery token.
package restaurants

import (
	"context"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/rs/zerolog/log"
)

// Star descriptions indexed by rating - 1.
var (
	// FormDescriptions label the stars of the review form.
	FormDescriptions = [5]string{"Awful", "Bad", "Average", "Good", "Excellent"}
	// ListDescriptions label the stars of a review card.
	ListDescriptions = [5]string{"Very Bad", "Bad", "Average", "Good", "Excellent"}
)

// Describe returns the label of rating from descriptions, or "" when the
// rating is out of range.
func Describe(descriptions [5]string, rating models.Rating) string {
	if !rating.Valid() {
		return ""
	}
	return descriptions[rating-1]
}

// Service reads restaurants from the backend.
type Service struct {
	client *api.Client
}

// NewService creates a catalogue service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// List returns every restaurant. List entries carry no description or
// average rating.
func (s *Service) List(ctx context.Context) ([]models.Restaurant, error) {
	resp, err := s.client.Get(ctx, "/restaurants")
	if err != nil {
		log.Error().Err(err).Msg("Error fetching restaurants")
		return nil, err
	}
	if err := resp.Err(); err != nil {
		log.Error().Err(err).Msg("Error fetching restaurants")
		return nil, err
	}

	var list []models.Restaurant
	if err := resp.DecodeArray(&list); err != nil {
		log.Error().Err(err).Msg("Error fetching restaurants")
		return nil, err
	}
	return list, nil
}

// Detail returns one restaurant with its description and average rating.
func (s *Service) Detail(ctx context.Context, id models.ID) (models.Restaurant, error) {
	resp, err := s.client.Get(ctx, "/restaurants/"+id.String())
	if err != nil {
		return models.Restaurant{}, err
	}
	if err := resp.Err(); err != nil {
		return models.Restaurant{}, err
	}

	var restaurant models.Restaurant
	if err := resp.Decode(&restaurant); err != nil {
		return models.Restaurant{}, err
	}
	return restaurant, nil
}

// CheckLogin asks the backend whether the tab's cookies are logged in.
// It is the fresher authority check the detail page uses to gate posting
// a review. Any failure counts as logged out; the error says why, so a
// 401 can be told apart from an unreachable backend.
func (s *Service) CheckLogin(ctx context.Context) (bool, error) {
	resp, err := s.client.Get(ctx, "/auth")
	if err != nil {
		log.Warn().Err(err).Msg("Login check failed")
		return false, err
	}
	if err := resp.Err(); err != nil {
		return false, err
	}
	return true, nil
}
