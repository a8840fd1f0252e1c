// Package models defines the data structures exchanged with the SavorViews
// backend and the client-side state built from them.
//
// Backend identifiers are opaque to the client. The backend emits integers,
// but nothing in the client does arithmetic on them, so they are carried as
// ID strings and compared by value.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID is an opaque backend identifier. It decodes from JSON numbers or strings.
type ID string

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a number or string: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON emits integer-looking IDs as numbers and everything else as strings.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }

// IsZero reports whether the ID is absent.
func (id ID) IsZero() bool { return id == "" }

// Rating is a star rating from 1 to 5. The backend stores ratings as
// floats; fractional values round up, matching how stars are drawn.
type Rating int

// Rating bounds.
const (
	MinRating Rating = 1
	MaxRating Rating = 5
)

// UnmarshalJSON accepts 4 and 4.0.
func (r *Rating) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("rating must be a number: %w", err)
	}
	*r = Rating(math.Ceil(f))
	return nil
}

// Valid reports whether the rating is within 1..5.
func (r Rating) Valid() bool { return r >= MinRating && r <= MaxRating }

// Stars renders the rating as filled and empty stars, e.g. "★★★☆☆".
func (r Rating) Stars() string {
	n := int(r)
	if n < 0 {
		n = 0
	}
	if n > int(MaxRating) {
		n = int(MaxRating)
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", int(MaxRating)-n)
}

// Session is the tab-wide record of the authenticated identity.
// UserID is set if and only if UserEmail is set; both set means authenticated.
type Session struct {
	UserID    ID     `json:"user_id,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// Authenticated reports whether the session holds an identity.
func (s Session) Authenticated() bool {
	return s.UserID != "" && s.UserEmail != ""
}

// Username is the local part of the email address, shown in the navbar.
func (s Session) Username() string {
	if s.UserEmail == "" {
		return ""
	}
	name, _, _ := strings.Cut(s.UserEmail, "@")
	return name
}

// Identity is the body of GET /auth: the canonical id and email of the
// user the tab's cookies authenticate.
type Identity struct {
	ID    ID     `json:"id"`
	Email string `json:"email"`
}

// AntiForgeryToken is the body of GET /csrf_token.
type AntiForgeryToken struct {
	Token string `json:"token"`
}

// Restaurant is read-only from the client's point of view. The list
// endpoint omits description and average_rating.
type Restaurant struct {
	ID            ID      `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description,omitempty"`
	Location      string  `json:"location"`
	Image         string  `json:"image"`
	AverageRating float64 `json:"average_rating"`
}

// Review is owned by the backend; the client keeps a read-through copy per
// restaurant. UserEmail is absent on create and update responses.
type Review struct {
	ID           ID     `json:"id"`
	RestaurantID ID     `json:"restaurant_id"`
	UserID       ID     `json:"user_id"`
	UserEmail    string `json:"user_email,omitempty"`
	Content      string `json:"content"`
	Rating       Rating `json:"rating"`
}

// Author returns the email shown on a review card.
func (r Review) Author() string {
	if r.UserEmail == "" {
		return "Anonymous"
	}
	return r.UserEmail
}

// EditCursor is the single slot naming the review being edited, with the
// unsaved draft. A zero ReviewID means nothing is being edited.
type EditCursor struct {
	ReviewID     ID
	DraftContent string
	DraftRating  Rating
}

// Active reports whether a review is in edit mode.
func (c EditCursor) Active() bool { return c.ReviewID != "" }

// LoginForm holds the login fields.
type LoginForm struct {
	Email    string `json:"email" form:"email" validate:"required,atsign,email"`
	Password string `json:"password" form:"password" validate:"required,uppercase_char,lowercase_char,digit_char,symbol_char"`
}

// SignupForm holds the signup fields. Only email and password are sent.
type SignupForm struct {
	Email           string `json:"email" form:"email" validate:"required,atsign,email"`
	Password        string `json:"password" form:"password" validate:"required,uppercase_char,lowercase_char,digit_char,symbol_char"`
	ConfirmPassword string `json:"-" form:"confirmPassword" validate:"required,eqfield=Password"`
	Terms           bool   `json:"-" form:"terms" validate:"accepted"`
}

// ReviewForm holds the fields of a new or edited review.
type ReviewForm struct {
	Content string `json:"content" form:"content" validate:"required,min=10"`
	Rating  Rating `json:"rating" form:"rating" validate:"required,min=1,max=5"`
}
