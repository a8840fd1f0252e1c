// Package auth drives login, signup and logout against the backend and
// keeps the tab's session.Store in step with the outcome.
//
// State machine:
//
//	Anonymous --Login--> Authenticating --ok--> Authenticated
//	                           |--fail--> Anonymous
//	Authenticated --ConfirmLogout--> LoggingOut --> Anonymous (200 or 401)
//	                                      |--other--> Authenticated
//
// Login and signup alert the user on every outcome. Logout only logs its
// failures.
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/csrf"
	"github.com/ieraasyl/SavorViews/internal/middleware"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/session"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"github.com/ieraasyl/SavorViews/internal/validate"
	"github.com/rs/zerolog/log"
)

// Backend endpoints.
const (
	PathAuth   = "/auth"
	PathSignup = "/signup"
	PathLogout = "/logout"
)

// Messages shown to the user.
const (
	MsgTokenMissing   = "CSRF token is missing. Please refresh and try again."
	MsgNotJSON        = "An error occurred: Server did not return a JSON response."
	MsgLoginSuccess   = "Login successful!"
	MsgIdentityFailed = "Error fetching user details."
	MsgSignupSuccess  = "Signup successful!"
)

// ErrNotConfirming is returned by ConfirmLogout when no confirmation is open.
var ErrNotConfirming = errors.New("logout was not requested")

// State is the authentication state of the tab.
type State int

const (
	Anonymous State = iota
	Authenticating
	Authenticated
	LoggingOut
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case LoggingOut:
		return "logging_out"
	default:
		return "anonymous"
	}
}

// Flow runs the authentication state machine of one tab.
type Flow struct {
	client    *api.Client
	gateway   *csrf.Gateway
	store     *session.Store
	presenter ui.Presenter
	validator *validate.Validator

	mu             sync.Mutex
	transient      State // Authenticating or LoggingOut while a call is pending
	confirming     bool
	onLoginSuccess func(email string)
	onLogout       func()
}

// NewFlow creates a flow. The gateway must be acquired by the owning view
// before Login, Signup or ConfirmLogout can reach the network.
func NewFlow(client *api.Client, gateway *csrf.Gateway, store *session.Store, presenter ui.Presenter, validator *validate.Validator) *Flow {
	return &Flow{
		client:    client,
		gateway:   gateway,
		store:     store,
		presenter: presenter,
		validator: validator,
	}
}

// OnLoginSuccess registers the function told about a completed login.
func (f *Flow) OnLoginSuccess(fn func(email string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onLoginSuccess = fn
}

// OnLogout registers the function told about a completed logout.
func (f *Flow) OnLogout(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onLogout = fn
}

// State returns the current state. Outside a pending call it is derived
// from the session store.
func (f *Flow) State() State {
	f.mu.Lock()
	transient := f.transient
	f.mu.Unlock()

	if transient != Anonymous {
		return transient
	}
	if f.store.Current().Authenticated() {
		return Authenticated
	}
	return Anonymous
}

func (f *Flow) enter(s State) {
	f.mu.Lock()
	f.transient = s
	f.mu.Unlock()
}

func (f *Flow) leave() { f.enter(Anonymous) }

// Login validates the form, posts the credentials, then fetches the
// canonical identity and establishes the session.
//
// Only a JSON 2xx answer to POST /auth followed by a successful GET /auth
// establishes a session; every other outcome leaves it untouched.
func (f *Flow) Login(ctx context.Context, form models.LoginForm) (err error) {
	defer func() { middleware.IncrementAuthAttempts("login", api.Result(err)) }()

	if fe := f.validator.Struct(form); fe != nil {
		return validationError("login", fe)
	}

	token, err := f.gateway.Require(api.Op(http.MethodPost, PathAuth))
	if err != nil {
		f.presenter.Alert(MsgTokenMissing)
		return err
	}

	f.enter(Authenticating)
	defer f.leave()

	resp, err := f.client.Send(ctx, http.MethodPost, PathAuth, token, form)
	if err != nil {
		f.presenter.Alert("An error occurred: " + err.Error())
		return err
	}

	if !resp.IsJSON() {
		f.presenter.Alert(MsgNotJSON)
		return api.Contract(resp.Op, api.ErrNotJSON)
	}
	if err := resp.Err(); err != nil {
		f.presenter.Alert("Login error: " + resp.Message())
		return err
	}

	identity, err := f.fetchIdentity(ctx)
	if err != nil {
		if api.KindOf(err) == api.KindTransport {
			f.presenter.Alert("An error occurred: " + err.Error())
		} else {
			f.presenter.Alert(MsgIdentityFailed)
		}
		return err
	}

	if err := f.store.Establish(ctx, identity.ID, identity.Email); err != nil {
		log.Error().Err(err).Msg("Failed to establish session")
		f.presenter.Alert("An error occurred: " + err.Error())
		return err
	}

	f.mu.Lock()
	onLoginSuccess := f.onLoginSuccess
	f.mu.Unlock()
	if onLoginSuccess != nil {
		onLoginSuccess(identity.Email)
	}

	log.Info().
		Str("user_id", identity.ID.String()).
		Msg("Login successful")

	f.presenter.Alert(MsgLoginSuccess)
	f.presenter.Navigate(ui.RouteHome)
	return nil
}

// fetchIdentity asks the backend who the tab's cookies belong to.
func (f *Flow) fetchIdentity(ctx context.Context) (models.Identity, error) {
	resp, err := f.client.Get(ctx, PathAuth)
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
	if identity.ID.IsZero() || identity.Email == "" {
		return models.Identity{}, api.Contract(resp.Op, session.ErrIncompleteIdentity)
	}
	return identity, nil
}

// Signup validates the form and registers the account. It never touches
// the session: a successful signup sends the user to the login page.
func (f *Flow) Signup(ctx context.Context, form models.SignupForm) (err error) {
	defer func() { middleware.IncrementAuthAttempts("signup", api.Result(err)) }()

	if fe := f.validator.Struct(form); fe != nil {
		return validationError("signup", fe)
	}

	token, err := f.gateway.Require(api.Op(http.MethodPost, PathSignup))
	if err != nil {
		f.presenter.Alert(MsgTokenMissing)
		return err
	}

	resp, err := f.client.Send(ctx, http.MethodPost, PathSignup, token, form)
	if err != nil {
		f.presenter.Alert("An error occurred: " + err.Error())
		return err
	}

	if err := resp.Err(); err != nil {
		message := resp.Message()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		f.presenter.Alert("Signup error: " + message)
		return err
	}

	log.Info().Msg("Signup successful")
	f.presenter.Alert(MsgSignupSuccess)
	f.presenter.Navigate(ui.RouteLogin)
	return nil
}

// RequestLogout opens the logout confirmation.
func (f *Flow) RequestLogout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirming = true
}

// CancelLogout closes the confirmation without logging out.
func (f *Flow) CancelLogout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirming = false
}

// Confirming reports whether the logout confirmation is open.
func (f *Flow) Confirming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirming
}

// ConfirmLogout logs the tab out. It does nothing unless RequestLogout
// opened the confirmation, and closes the confirmation whatever happens.
//
// Only a 200 or a 401 clears the session; any other status, 2xx included,
// leaves it in place. A 401 means the backend no longer
// knows this tab, so keeping a local identity would only show a user the
// backend will refuse.
func (f *Flow) ConfirmLogout(ctx context.Context) (err error) {
	f.mu.Lock()
	if !f.confirming {
		f.mu.Unlock()
		return ErrNotConfirming
	}
	f.confirming = false
	f.mu.Unlock()

	defer func() { middleware.IncrementAuthAttempts("logout", api.Result(err)) }()

	token, err := f.gateway.Require(api.Op(http.MethodPost, PathLogout))
	if err != nil {
		log.Error().Msg("CSRF token not available")
		return err
	}

	f.enter(LoggingOut)
	defer f.leave()

	resp, err := f.client.Send(ctx, http.MethodPost, PathLogout, token, nil)
	if err != nil {
		log.Error().Err(err).Msg("An error occurred during logout")
		return err
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		log.Warn().Msg("Unauthorized request. Please login again.")
	default:
		log.Error().Int("status", resp.StatusCode).Msg("Failed to log out.")
		appErr := api.Application(resp.Op, resp.StatusCode, resp.Message())
		appErr.RequestID = resp.RequestID
		return appErr
	}

	if err := f.store.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear session storage")
	}

	f.mu.Lock()
	onLogout := f.onLogout
	f.mu.Unlock()
	if onLogout != nil {
		onLogout()
	}

	f.presenter.Navigate(ui.RouteHome)
	return nil
}

func validationError(op string, err error) error {
	var fe validate.FieldErrors
	if errors.As(err, &fe) {
		return api.Validation(op, fe, fe)
	}
	return api.Validation(op, nil, err)
}
