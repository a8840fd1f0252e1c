package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/pkg/config"
)

// FakeToken is the anti-forgery token the fake backend hands out.
const FakeToken = "test-csrf-token"

// sessionCookie is the credential cookie the fake backend sets on login.
const sessionCookie = "session"

// RecordedRequest is one request received by the fake backend.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type fakeUser struct {
	id       models.ID
	email    string
	password string
}

// FakeBackend is an in-process stand-in for the SavorViews REST backend.
// It keeps users, restaurants and reviews in memory, enforces the
// anti-forgery header and cookie login like the real service, and records
// every request so tests can assert what was (or was not) sent.
//
// Any route can be replaced with Override to script failures.
type FakeBackend struct {
	Server *httptest.Server

	mu           sync.Mutex
	token        string
	users        map[string]fakeUser
	nextUserID   int
	restaurants  []models.Restaurant
	reviews      map[models.ID][]models.Review
	nextReviewID int
	requests     []RecordedRequest
	overrides    map[string]http.HandlerFunc
}

// NewFakeBackend starts a fake backend seeded with two users (alice = 42,
// bob = 7), two restaurants, and two reviews of restaurant 1: review 100 by
// alice and review 101 by bob. The server is closed on test cleanup.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	fb := &FakeBackend{
		token: FakeToken,
		users: map[string]fakeUser{
			TestEmail:  {id: TestUserID, email: TestEmail, password: TestPassword},
			OtherEmail: {id: OtherUserID, email: OtherEmail, password: OtherPassword},
		},
		nextUserID: 100,
		restaurants: []models.Restaurant{
			TestRestaurant(),
			TestRestaurantWithID("2", "Sushi Zen"),
		},
		reviews: map[models.ID][]models.Review{
			"1": {
				TestReview("100"),
				TestReviewBy("101", OtherUserID, OtherEmail),
			},
		},
		nextReviewID: 200,
		overrides:    make(map[string]http.HandlerFunc),
	}

	fb.Server = httptest.NewServer(fb.routes())
	t.Cleanup(fb.Server.Close)

	return fb
}

// URL returns the base URL of the fake backend.
func (fb *FakeBackend) URL() string { return fb.Server.URL }

// BackendConfig returns a client configuration pointing at the fake backend.
func (fb *FakeBackend) BackendConfig() *config.BackendConfig {
	return &config.BackendConfig{
		BaseURL:    fb.Server.URL,
		CSRFHeader: config.DefaultCSRFHeader,
		UserAgent:  UserAgents.CLI,
	}
}

// SetToken changes the token handed out by GET /csrf_token and expected
// on state-changing requests.
func (fb *FakeBackend) SetToken(token string) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.token = token
}

// Override replaces the handler for an exact method and path.
//
// Example:
//
//	fb.Override(http.MethodPost, "/auth", func(w http.ResponseWriter, r *http.Request) {
//	    w.Header().Set("Content-Type", "text/html")
//	    w.Write([]byte("<html>oops</html>"))
//	})
func (fb *FakeBackend) Override(method, path string, h http.HandlerFunc) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.overrides[method+" "+path] = h
}

// Calls returns how many requests hit method and path.
func (fb *FakeBackend) Calls(method, path string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, r := range fb.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// TotalCalls returns the number of requests received.
func (fb *FakeBackend) TotalCalls() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.requests)
}

// MutatingCalls returns the number of non-GET requests received.
func (fb *FakeBackend) MutatingCalls() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, r := range fb.requests {
		if r.Method != http.MethodGet {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request to method and path.
func (fb *FakeBackend) LastRequest(method, path string) (RecordedRequest, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for i := len(fb.requests) - 1; i >= 0; i-- {
		if r := fb.requests[i]; r.Method == method && r.Path == path {
			return r, true
		}
	}
	return RecordedRequest{}, false
}

// Reviews returns the server-side reviews of a restaurant sorted by id.
func (fb *FakeBackend) Reviews(restaurantID models.ID) []models.Review {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	out := append([]models.Review(nil), fb.reviews[restaurantID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// AddReview inserts a review directly into server state.
func (fb *FakeBackend) AddReview(review models.Review) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.reviews[review.RestaurantID] = append(fb.reviews[review.RestaurantID], review)
}

// HasUser reports whether an account exists for email.
func (fb *FakeBackend) HasUser(email string) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	_, ok := fb.users[email]
	return ok
}

func (fb *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(fb.record)

	r.Get("/csrf_token", fb.csrfToken)
	r.Post("/signup", fb.protect(fb.signup))
	r.Post("/auth", fb.protect(fb.login))
	r.Get("/auth", fb.me)
	r.Post("/logout", fb.protect(fb.logout))

	r.Route("/restaurants", func(r chi.Router) {
		r.Get("/", fb.listRestaurants)
		r.Get("/{id}", fb.restaurantDetail)
		r.Get("/{id}/reviews", fb.listReviews)
		r.Post("/{id}/reviews", fb.protect(fb.createReview))
		r.Get("/{id}/reviews/{rid}", fb.getReview)
		r.Put("/{id}/reviews/{rid}", fb.protect(fb.updateReview))
		r.Delete("/{id}/reviews/{rid}", fb.protect(fb.deleteReview))
	})

	return r
}

// record stores the request, then dispatches to an override if one exists.
func (fb *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		fb.mu.Lock()
		fb.requests = append(fb.requests, RecordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		override := fb.overrides[r.Method+" "+r.URL.Path]
		fb.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// protect rejects requests whose X-CSRFToken header does not match.
func (fb *FakeBackend) protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		token := fb.token
		fb.mu.Unlock()

		if r.Header.Get(config.DefaultCSRFHeader) != token {
			WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "The CSRF token is missing."})
			return
		}
		next(w, r)
	}
}

func (fb *FakeBackend) currentUser(r *http.Request) (fakeUser, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return fakeUser{}, false
	}
	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, u := range fb.users {
		if string(u.id) == c.Value {
			return u, true
		}
	}
	return fakeUser{}, false
}

func (fb *FakeBackend) csrfToken(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	token := fb.token
	fb.mu.Unlock()
	WriteJSON(w, http.StatusOK, models.AntiForgeryToken{Token: token})
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (fb *FakeBackend) signup(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || len(in.Password) < 6 {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid input!"})
		return
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if _, exists := fb.users[in.Email]; exists {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid input!"})
		return
	}
	fb.users[in.Email] = fakeUser{id: models.ID(strconv.Itoa(fb.nextUserID)), email: in.Email, password: in.Password}
	fb.nextUserID++

	WriteJSON(w, http.StatusCreated, map[string]string{"message": "User created successfully!"})
}

func (fb *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	var in credentials
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid input!"})
		return
	}

	fb.mu.Lock()
	user, ok := fb.users[in.Email]
	fb.mu.Unlock()
	if !ok || user.password != in.Password {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials!"})
		return
	}

	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: string(user.id), Path: "/", HttpOnly: true})
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged in successfully!"})
}

func (fb *FakeBackend) me(w http.ResponseWriter, r *http.Request) {
	user, ok := fb.currentUser(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	WriteJSON(w, http.StatusOK, models.Identity{ID: user.id, Email: user.email})
}

func (fb *FakeBackend) logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := fb.currentUser(r); !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully!"})
}

func (fb *FakeBackend) listRestaurants(w http.ResponseWriter, r *http.Request) {
	type summary struct {
		ID       models.ID `json:"id"`
		Name     string    `json:"name"`
		Location string    `json:"location"`
		Image    string    `json:"image"`
	}

	fb.mu.Lock()
	out := make([]summary, 0, len(fb.restaurants))
	for _, rest := range fb.restaurants {
		out = append(out, summary{ID: rest.ID, Name: rest.Name, Location: rest.Location, Image: rest.Image})
	}
	fb.mu.Unlock()

	WriteJSON(w, http.StatusOK, out)
}

func (fb *FakeBackend) restaurantDetail(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	for _, rest := range fb.restaurants {
		if rest.ID == id {
			WriteJSON(w, http.StatusOK, rest)
			return
		}
	}
	WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Restaurant not found"})
}

func (fb *FakeBackend) listReviews(w http.ResponseWriter, r *http.Request) {
	id := models.ID(chi.URLParam(r, "id"))

	fb.mu.Lock()
	out := append([]models.Review{}, fb.reviews[id]...)
	fb.mu.Unlock()

	WriteJSON(w, http.StatusOK, out)
}

type reviewInput struct {
	Content string  `json:"content"`
	Rating  float64 `json:"rating"`
}

// reviewOutput is the create/update response: it has no user_email.
type reviewOutput struct {
	ID           models.ID `json:"id"`
	Content      string    `json:"content"`
	Rating       float64   `json:"rating"`
	UserID       models.ID `json:"user_id"`
	RestaurantID models.ID `json:"restaurant_id"`
}

func toOutput(rv models.Review) reviewOutput {
	return reviewOutput{
		ID:           rv.ID,
		Content:      rv.Content,
		Rating:       float64(rv.Rating),
		UserID:       rv.UserID,
		RestaurantID: rv.RestaurantID,
	}
}

func (fb *FakeBackend) createReview(w http.ResponseWriter, r *http.Request) {
	user, ok := fb.currentUser(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	var in reviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || len(in.Content) < 10 || in.Rating < 0 || in.Rating > 5 {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid input!"})
		return
	}

	restaurantID := models.ID(chi.URLParam(r, "id"))

	fb.mu.Lock()
	review := models.Review{
		ID:           models.ID(strconv.Itoa(fb.nextReviewID)),
		RestaurantID: restaurantID,
		UserID:       user.id,
		UserEmail:    user.email,
		Content:      in.Content,
		Rating:       models.Rating(in.Rating),
	}
	fb.nextReviewID++
	fb.reviews[restaurantID] = append(fb.reviews[restaurantID], review)
	fb.mu.Unlock()

	WriteJSON(w, http.StatusCreated, toOutput(review))
}

// findReview returns the index of a review; callers hold fb.mu.
func (fb *FakeBackend) findReview(restaurantID, reviewID models.ID) int {
	for i, rv := range fb.reviews[restaurantID] {
		if rv.ID == reviewID {
			return i
		}
	}
	return -1
}

func (fb *FakeBackend) getReview(w http.ResponseWriter, r *http.Request) {
	restaurantID := models.ID(chi.URLParam(r, "id"))
	reviewID := models.ID(chi.URLParam(r, "rid"))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	i := fb.findReview(restaurantID, reviewID)
	if i < 0 {
		WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Review not found!"})
		return
	}
	WriteJSON(w, http.StatusOK, fb.reviews[restaurantID][i])
}

func (fb *FakeBackend) updateReview(w http.ResponseWriter, r *http.Request) {
	user, ok := fb.currentUser(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	var in reviewInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid input!"})
		return
	}

	restaurantID := models.ID(chi.URLParam(r, "id"))
	reviewID := models.ID(chi.URLParam(r, "rid"))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	i := fb.findReview(restaurantID, reviewID)
	if i < 0 {
		WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Review not found!"})
		return
	}
	review := fb.reviews[restaurantID][i]
	if review.UserID != user.id {
		WriteJSON(w, http.StatusForbidden, map[string]string{"message": "Unauthorized! You can only update your own reviews."})
		return
	}
	review.Content = in.Content
	review.Rating = models.Rating(in.Rating)
	fb.reviews[restaurantID][i] = review

	WriteJSON(w, http.StatusOK, toOutput(review))
}

func (fb *FakeBackend) deleteReview(w http.ResponseWriter, r *http.Request) {
	user, ok := fb.currentUser(r)
	if !ok {
		WriteJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthorized"})
		return
	}

	restaurantID := models.ID(chi.URLParam(r, "id"))
	reviewID := models.ID(chi.URLParam(r, "rid"))

	fb.mu.Lock()
	defer fb.mu.Unlock()
	i := fb.findReview(restaurantID, reviewID)
	if i < 0 {
		WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Review not found!"})
		return
	}
	if fb.reviews[restaurantID][i].UserID != user.id {
		WriteJSON(w, http.StatusForbidden, map[string]string{"message": "Unauthorized! You can only delete your own reviews."})
		return
	}
	list := fb.reviews[restaurantID]
	fb.reviews[restaurantID] = append(list[:i:i], list[i+1:]...)

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Review deleted!"})
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(fmt.Sprintf("testutil: encode response: %v", err))
	}
}

// WriteHTML writes a non-JSON body, as an HTML error page would be.
func WriteHTML(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte("<!doctype html><title>Error</title>"))
}
