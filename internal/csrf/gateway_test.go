package csrf

import (
	"context"
	"net/http"
	"testing"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupGateway(t *testing.T) (*Gateway, *testutil.FakeBackend) {
	t.Helper()
	fb := testutil.NewFakeBackend(t)
	client, err := api.NewClient(fb.BackendConfig())
	require.NoError(t, err)
	return NewGateway(client), fb
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()

	t.Run("holds the fetched token", func(t *testing.T) {
		g, fb := setupGateway(t)
		assert.False(t, g.Ready())

		token, err := g.Acquire(ctx)
		require.NoError(t, err)

		assert.Equal(t, testutil.FakeToken, token)
		assert.True(t, g.Ready())
		held, ok := g.Token()
		assert.True(t, ok)
		assert.Equal(t, testutil.FakeToken, held)
		assert.Equal(t, 1, fb.Calls(http.MethodGet, TokenPath))
	})

	t.Run("empty token is a failure", func(t *testing.T) {
		g, fb := setupGateway(t)
		fb.SetToken("")

		_, err := g.Acquire(ctx)

		assert.Error(t, err)
		assert.Equal(t, api.KindContract, api.KindOf(err))
		assert.False(t, g.Ready())
	})

	t.Run("failed reacquire drops the previous token", func(t *testing.T) {
		g, fb := setupGateway(t)
		_, err := g.Acquire(ctx)
		require.NoError(t, err)

		fb.Override(http.MethodGet, TokenPath, func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteHTML(w, http.StatusInternalServerError)
		})
		_, err = g.Acquire(ctx)

		assert.Error(t, err)
		assert.False(t, g.Ready())
	})

	t.Run("no automatic retry", func(t *testing.T) {
		g, fb := setupGateway(t)
		fb.Override(http.MethodGet, TokenPath, func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "down"})
		})

		_, err := g.Acquire(ctx)

		assert.Error(t, err)
		assert.Equal(t, 1, fb.Calls(http.MethodGet, TokenPath))
	})
}

func TestRequire(t *testing.T) {
	g, _ := setupGateway(t)

	_, err := g.Require("POST /auth")
	assert.ErrorIs(t, err, api.ErrTokenMissing)
	assert.Equal(t, api.KindPrecondition, api.KindOf(err))

	_, err = g.Acquire(context.Background())
	require.NoError(t, err)

	token, err := g.Require("POST /auth")
	require.NoError(t, err)
	assert.Equal(t, testutil.FakeToken, token)
}
