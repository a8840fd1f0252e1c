package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"github.com/ieraasyl/SavorViews/internal/views"
	"github.com/rs/zerolog/log"
)

const helpText = `Commands:
  open <route>                      open a route, e.g. open /restaurants/1
  home | login | signup | logout    open a top-level route
  login <email> <password>          log in (on the login page)
  signup <email> <password> <confirm> <yes|no>
  yes | no                          confirm or cancel logout
  post | reviews                    on a restaurant page
  submit <rating> <content>         on the new review page
  edit <id> | draft <rating> <content> | save | cancel | delete <id> | reload <id>
  render | whoami | help | quit
  close                             quit and drop the tab's stored login`

// repl drives the shell from text commands, one per line. Navigation
// requested by a command is applied after the command returns.
type repl struct {
	ctx     context.Context
	shell   *views.Shell
	console *ui.Console
	out     io.Writer
	pending string
	onClose func(ctx context.Context) error
}

func newREPL(ctx context.Context, shell *views.Shell, console *ui.Console, out io.Writer) *repl {
	r := &repl{ctx: ctx, shell: shell, console: console, out: out}
	console.OnNavigate(func(route string) { r.pending = route })
	return r
}

func (r *repl) run(in io.Reader) error {
	r.open(ui.RouteHome)

	scanner := bufio.NewScanner(in)
	r.prompt()
	for scanner.Scan() {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		quit, err := r.exec(scanner.Text())
		if err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
		r.follow()
		if quit {
			return nil
		}
		r.prompt()
	}
	return scanner.Err()
}

func (r *repl) prompt() {
	fmt.Fprintln(r.out, r.shell.Navbar())
	fmt.Fprintf(r.out, "%s> ", r.console.Route())
}

// follow opens the route a command navigated to, repeatedly, since mounting
// a view may navigate again.
func (r *repl) follow() {
	for r.pending != "" {
		route := r.pending
		r.pending = ""
		r.open(route)
	}
}

func (r *repl) open(route string) {
	view, err := r.shell.Open(r.ctx, route)
	if err != nil {
		log.Error().Err(err).Str("route", route).Msg("Failed to open view")
		fmt.Fprintf(r.out, "error: %v\n", err)
		if view == nil {
			return
		}
	}
	view.Render(r.out)
}

func (r *repl) exec(line string) (quit bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := fields[0], fields[1:]
	view := r.shell.Current()

	switch cmd {
	case "quit", "exit":
		return true, nil
	case "close":
		r.shell.Close()
		if r.onClose != nil {
			if err := r.onClose(r.ctx); err != nil {
				return true, fmt.Errorf("failed to purge tab storage: %w", err)
			}
		}
		return true, nil
	case "help":
		fmt.Fprintln(r.out, helpText)
	case "render":
		if view != nil {
			view.Render(r.out)
		}
	case "whoami":
		sess := r.shell.Session().Current()
		if !sess.Authenticated() {
			fmt.Fprintln(r.out, "anonymous")
			break
		}
		fmt.Fprintf(r.out, "%s (%s)\n", sess.UserEmail, sess.UserID)
	case "open":
		if len(args) != 1 {
			return false, fmt.Errorf("usage: open <route>")
		}
		r.console.Navigate(args[0])
	case "home":
		r.console.Navigate(ui.RouteHome)
	case "login":
		if len(args) == 0 {
			r.console.Navigate(ui.RouteLogin)
			break
		}
		v, ok := view.(*views.LoginView)
		if !ok || len(args) != 2 {
			return false, fmt.Errorf("usage: login <email> <password> on the login page")
		}
		return false, v.Submit(models.LoginForm{Email: args[0], Password: args[1]})
	case "signup":
		if len(args) == 0 {
			r.console.Navigate(ui.RouteSignup)
			break
		}
		v, ok := view.(*views.SignupView)
		if !ok || len(args) != 4 {
			return false, fmt.Errorf("usage: signup <email> <password> <confirm> <yes|no> on the signup page")
		}
		return false, v.Submit(models.SignupForm{
			Email:           args[0],
			Password:        args[1],
			ConfirmPassword: args[2],
			Terms:           args[3] == "yes",
		})
	case "logout":
		r.console.Navigate(ui.RouteLogout)
	case "yes", "no":
		v, ok := view.(*views.LogoutView)
		if !ok {
			return false, fmt.Errorf("nothing to confirm")
		}
		if cmd == "no" {
			v.Cancel()
			break
		}
		return false, v.Confirm()
	case "post", "reviews":
		v, ok := view.(*views.RestaurantDetail)
		if !ok {
			return false, fmt.Errorf("%s works on a restaurant page", cmd)
		}
		if cmd == "post" {
			v.PostReview()
		} else {
			v.PreviousReviews()
		}
	case "submit":
		v, ok := view.(*views.ReviewFormView)
		if !ok {
			return false, fmt.Errorf("submit works on the new review page")
		}
		rating, content, err := ratingAndContent(args)
		if err != nil {
			return false, err
		}
		_, err = v.Submit(models.ReviewForm{Content: content, Rating: rating})
		return false, err
	case "edit", "draft", "save", "cancel", "delete", "reload":
		v, ok := view.(*views.ReviewList)
		if !ok {
			return false, fmt.Errorf("%s works on the reviews page", cmd)
		}
		if err := r.reviewCommand(v, cmd, args); err != nil {
			return false, err
		}
		v.Render(r.out)
	default:
		return false, fmt.Errorf("unknown command %q, try help", cmd)
	}
	return false, nil
}

func (r *repl) reviewCommand(v *views.ReviewList, cmd string, args []string) error {
	switch cmd {
	case "draft":
		rating, content, err := ratingAndContent(args)
		if err != nil {
			return err
		}
		v.Draft(content, rating)
		return nil
	case "save":
		return v.Save()
	case "cancel":
		v.Cancel()
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("usage: %s <id>", cmd)
	}
	id := models.ID(args[0])
	switch cmd {
	case "edit":
		return v.Edit(id)
	case "delete":
		return v.Delete(id)
	default:
		return v.Refresh(id)
	}
}

func ratingAndContent(args []string) (models.Rating, string, error) {
	if len(args) < 2 {
		return 0, "", fmt.Errorf("usage: <rating> <content>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, "", fmt.Errorf("rating must be a number: %w", err)
	}
	return models.Rating(n), strings.Join(args[1:], " "), nil
}
