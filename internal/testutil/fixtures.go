// Package testutil provides common testing utilities, fixtures, and helpers
// for use across all test files in the SavorViews client: a scriptable fake
// backend, Redis-backed tab storage on miniredis, and model fixtures.
package testutil

import (
	"github.com/ieraasyl/SavorViews/internal/models"
)

// Test credentials accepted by the validators and known to NewFakeBackend.
const (
	TestEmail    = "alice@example.com"
	TestPassword = "Secret1!"
	TestUserID   = models.ID("42")

	OtherEmail    = "bob@example.com"
	OtherPassword = "Hunter2#"
	OtherUserID   = models.ID("7")
)

// TestRestaurant creates a restaurant with default values
func TestRestaurant() models.Restaurant {
	return models.Restaurant{
		ID:            "1",
		Name:          "Trattoria Roma",
		Description:   "Hand-made pasta since 1987.",
		Location:      "12 Via Appia",
		Image:         "https://example.com/roma.jpg",
		AverageRating: 4.5,
	}
}

// TestRestaurantWithID creates a restaurant with a specific ID and name
func TestRestaurantWithID(id models.ID, name string) models.Restaurant {
	r := TestRestaurant()
	r.ID = id
	r.Name = name
	return r
}

// TestReview creates a review by the default test user
func TestReview(id models.ID) models.Review {
	return models.Review{
		ID:           id,
		RestaurantID: "1",
		UserID:       TestUserID,
		UserEmail:    TestEmail,
		Content:      "Lovely carbonara, slow service.",
		Rating:       4,
	}
}

// TestReviewBy creates a review written by another user
func TestReviewBy(id, userID models.ID, email string) models.Review {
	r := TestReview(id)
	r.UserID = userID
	r.UserEmail = email
	return r
}

// UserAgents provides common user agent strings for testing
var UserAgents = struct {
	Chrome       string
	Safari       string
	Firefox      string
	MobileSafari string
	CLI          string
	Unknown      string
}{
	Chrome:       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	Safari:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Safari/605.1.15",
	Firefox:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	MobileSafari: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	CLI:          "SavorViews-CLI/1.0 (X11; Linux x86_64)",
	Unknown:      "",
}
