package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/session"
	"github.com/ieraasyl/SavorViews/internal/testutil"
	"github.com/ieraasyl/SavorViews/internal/ui"
	"github.com/ieraasyl/SavorViews/internal/validate"
	"github.com/ieraasyl/SavorViews/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupREPL(t *testing.T) (*repl, *testutil.FakeBackend, *bytes.Buffer) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	client, err := api.NewClient(fb.BackendConfig())
	require.NoError(t, err)

	store, err := session.NewStore(context.Background(), session.NewMemoryStorage())
	require.NoError(t, err)

	var out bytes.Buffer
	console := ui.NewConsole(&out)
	shell := views.NewShell(client, store, console, validate.New())
	t.Cleanup(shell.Close)

	return newREPL(context.Background(), shell, console, &out), fb, &out
}

func TestREPLSession(t *testing.T) {
	r, fb, out := setupREPL(t)

	script := strings.Join([]string{
		"open /restaurants/1",
		"post",
		"login",
		"login alice@example.com Secret1!",
		"whoami",
		"open /restaurants/1/reviews/new",
		"submit 5 Wonderful risotto and attentive staff.",
		"open /restaurants/1/reviews",
		"edit 100",
		"draft 3 Carbonara was fine this time around.",
		"save",
		"logout",
		"yes",
		"whoami",
		"quit",
	}, "\n")

	require.NoError(t, r.run(strings.NewReader(script)))

	output := out.String()
	assert.Contains(t, output, "Trattoria Roma")
	assert.Contains(t, output, "! You need to log in to post a review!")
	assert.Contains(t, output, "! Login successful!")
	assert.Contains(t, output, "alice@example.com (42)")
	assert.Contains(t, output, "! Review added successfully!")
	assert.Contains(t, output, "Hello, alice")
	assert.Contains(t, output, "Are you sure you want to log out?")
	assert.Contains(t, output, "anonymous")

	reviews := fb.Reviews("1")
	require.Len(t, reviews, 3)
	assert.Equal(t, "Carbonara was fine this time around.", reviews[0].Content)
	assert.False(t, r.shell.Session().Current().Authenticated())
}

func TestREPLErrors(t *testing.T) {
	r, _, out := setupREPL(t)

	require.NoError(t, r.run(strings.NewReader("submit 5 nope\nfrobnicate\nopen /nowhere\nquit\n")))

	output := out.String()
	assert.Contains(t, output, "error: submit works on the new review page")
	assert.Contains(t, output, `error: unknown command "frobnicate", try help`)
	assert.Contains(t, output, `error: unknown route "/nowhere"`)
}

func TestRatingAndContent(t *testing.T) {
	rating, content, err := ratingAndContent([]string{"4", "Good", "pasta"})
	require.NoError(t, err)
	assert.EqualValues(t, 4, rating)
	assert.Equal(t, "Good pasta", content)

	_, _, err = ratingAndContent([]string{"four", "Good"})
	assert.Error(t, err)

	_, _, err = ratingAndContent([]string{"4"})
	assert.Error(t, err)
}

func TestREPLClose(t *testing.T) {
	r, _, _ := setupREPL(t)

	purged := false
	r.onClose = func(context.Context) error {
		purged = true
		return nil
	}

	require.NoError(t, r.run(strings.NewReader("close\nhelp\n")))
	assert.True(t, purged)
	assert.Nil(t, r.shell.Current())
}
