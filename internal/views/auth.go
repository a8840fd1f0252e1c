package views

import (
	"context"
	"fmt"
	"io"

	"github.com/ieraasyl/SavorViews/internal/auth"
	"github.com/ieraasyl/SavorViews/internal/csrf"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"github.com/rs/zerolog/log"
)

// authView is the shared part of the login, signup and logout views: a
// token gateway acquired on mount and a flow bound to it.
type authView struct {
	lifetime
	shell   *Shell
	gateway *csrf.Gateway
	flow    *auth.Flow
}

func newAuthView(s *Shell) authView {
	gateway := csrf.NewGateway(s.client)
	flow := auth.NewFlow(s.client, gateway, s.store, s.presenter, s.validator)
	flow.OnLoginSuccess(func(email string) {
		log.Info().Str("email", email).Msg("Logged in")
	})
	flow.OnLogout(func() {
		log.Info().Msg("Logged out")
	})
	return authView{shell: s, gateway: gateway, flow: flow}
}

// Gateway returns the view's token gateway.
func (v *authView) Gateway() *csrf.Gateway { return v.gateway }

// Flow returns the view's auth flow.
func (v *authView) Flow() *auth.Flow { return v.flow }

// LoginView is the login form.
type LoginView struct {
	authView
}

func newLoginView(s *Shell) *LoginView {
	return &LoginView{authView: newAuthView(s)}
}

// Route implements View.
func (v *LoginView) Route() string { return ui.RouteLogin }

// Mount acquires the token. A failure is alerted: the form cannot work
// without it.
func (v *LoginView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	if _, err := v.gateway.Acquire(ctx); err != nil {
		v.shell.presenter.Alert("Error fetching CSRF token: " + err.Error())
	}
	return nil
}

// Submit logs in.
func (v *LoginView) Submit(form models.LoginForm) error {
	return v.flow.Login(v.context(), form)
}

// Render implements View.
func (v *LoginView) Render(w io.Writer) {
	fmt.Fprintln(w, "Login")
	fmt.Fprintln(w, "Usage: login <email> <password>")
}

// SignupView is the signup form.
type SignupView struct {
	authView
}

func newSignupView(s *Shell) *SignupView {
	return &SignupView{authView: newAuthView(s)}
}

// Route implements View.
func (v *SignupView) Route() string { return ui.RouteSignup }

// Mount acquires the token; failures are only logged.
func (v *SignupView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	_, _ = v.gateway.Acquire(ctx)
	return nil
}

// Submit registers an account.
func (v *SignupView) Submit(form models.SignupForm) error {
	return v.flow.Signup(v.context(), form)
}

// Render implements View.
func (v *SignupView) Render(w io.Writer) {
	fmt.Fprintln(w, "Signup")
	fmt.Fprintln(w, "Usage: signup <email> <password> <confirm> <accept-terms yes|no>")
}

// LogoutView asks for confirmation before logging out.
type LogoutView struct {
	authView
}

func newLogoutView(s *Shell) *LogoutView {
	return &LogoutView{authView: newAuthView(s)}
}

// Route implements View.
func (v *LogoutView) Route() string { return ui.RouteLogout }

// Mount acquires the token and opens the confirmation.
func (v *LogoutView) Mount(ctx context.Context) error {
	ctx = v.start(ctx)
	_, _ = v.gateway.Acquire(ctx)
	v.flow.RequestLogout()
	return nil
}

// Confirm logs out.
func (v *LogoutView) Confirm() error {
	return v.flow.ConfirmLogout(v.context())
}

// Cancel closes the confirmation and goes home.
func (v *LogoutView) Cancel() {
	v.flow.CancelLogout()
	v.shell.presenter.Navigate(ui.RouteHome)
}

// Render implements View.
func (v *LogoutView) Render(w io.Writer) {
	if v.flow.Confirming() {
		fmt.Fprintln(w, "Are you sure you want to log out? (yes/no)")
		return
	}
	fmt.Fprintln(w, "Logout")
}
