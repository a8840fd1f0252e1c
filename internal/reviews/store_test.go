package reviews

import (
	"context"
	"net/http"
	"sync"
	"testing"

	"github.com/ieraasyl/SavorViews/internal/api"
	"github.com/ieraasyl/SavorViews/internal/csrf"
	"github.com/ieraasyl/SavorViews/internal/models"
	"github.com/ieraasyl/SavorViews/internal/testutil"
	"github.com/ieraasyl/SavorViews/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store     *Store
	backend   *testutil.FakeBackend
	presenter *testutil.MockPresenter
}

type option struct {
	token    bool
	login    bool
	identify bool
	list     bool
}

// setupStore builds a store for restaurant 1. Options decide how far the
// owning view got: token acquired, logged in as alice, identity fetched,
// reviews listed.
func setupStore(t *testing.T, opt option) *fixture {
	t.Helper()
	ctx := context.Background()

	fb := testutil.NewFakeBackend(t)
	client, err := api.NewClient(fb.BackendConfig())
	require.NoError(t, err)

	if opt.login {
		resp, err := client.Send(ctx, http.MethodPost, "/auth", testutil.FakeToken,
			models.LoginForm{Email: testutil.TestEmail, Password: testutil.TestPassword})
		require.NoError(t, err)
		require.True(t, resp.OK())
	}

	gateway := csrf.NewGateway(client)
	if opt.token {
		_, err := gateway.Acquire(ctx)
		require.NoError(t, err)
	}

	presenter := testutil.NewMockPresenter()
	store := NewStore(client, gateway, presenter, validate.New(), "1")

	if opt.identify {
		require.NoError(t, store.IdentifyCurrentUser(ctx))
	}
	if opt.list {
		require.NoError(t, store.List(ctx))
	}

	return &fixture{store: store, backend: fb, presenter: presenter}
}

var ready = option{token: true, login: true, identify: true, list: true}

func find(list []models.Review, id models.ID) (models.Review, bool) {
	for _, r := range list {
		if r.ID == id {
			return r, true
		}
	}
	return models.Review{}, false
}

func TestList(t *testing.T) {
	ctx := context.Background()

	t.Run("loads the collection", func(t *testing.T) {
		f := setupStore(t, option{})

		require.NoError(t, f.store.List(ctx))

		assert.True(t, f.store.Loaded())
		assert.Len(t, f.store.Reviews(), 2)
	})

	t.Run("non-array payload leaves the collection unchanged", func(t *testing.T) {
		f := setupStore(t, option{list: true})
		before := f.store.Reviews()
		f.backend.Override(http.MethodGet, "/restaurants/1/reviews", func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, http.StatusOK, map[string]string{"message": "not a list"})
		})

		err := f.store.List(ctx)

		assert.ErrorIs(t, err, api.ErrNotArray)
		assert.Equal(t, api.KindContract, api.KindOf(err))
		assert.Equal(t, before, f.store.Reviews())
	})

	t.Run("empty restaurant", func(t *testing.T) {
		f := setupStore(t, option{})
		f.store = NewStore(f.store.client, f.store.gateway, f.presenter, validate.New(), "2")

		require.NoError(t, f.store.List(ctx))
		assert.Empty(t, f.store.Reviews())
		assert.True(t, f.store.Loaded())
	})
}

func TestOwnership(t *testing.T) {
	t.Run("controls only for the viewer's reviews", func(t *testing.T) {
		f := setupStore(t, ready)

		assert.Equal(t, testutil.TestUserID, f.store.CurrentUserID())

		mine, ok := find(f.store.Reviews(), "100")
		require.True(t, ok)
		theirs, ok := find(f.store.Reviews(), "101")
		require.True(t, ok)

		assert.Equal(t, models.ID("42"), mine.UserID)
		assert.Equal(t, models.ID("7"), theirs.UserID)
		assert.True(t, f.store.CanModify(mine))
		assert.False(t, f.store.CanModify(theirs))
	})

	t.Run("no controls before the token arrives", func(t *testing.T) {
		f := setupStore(t, option{login: true, identify: true, list: true})

		mine, ok := find(f.store.Reviews(), "100")
		require.True(t, ok)

		assert.True(t, f.store.Owns(mine))
		assert.False(t, f.store.CanModify(mine))

		_, err := f.store.gateway.Acquire(context.Background())
		require.NoError(t, err)
		assert.True(t, f.store.CanModify(mine))
	})

	t.Run("anonymous viewer owns nothing", func(t *testing.T) {
		f := setupStore(t, option{token: true, list: true})

		assert.Error(t, f.store.IdentifyCurrentUser(context.Background()))
		for _, r := range f.store.Reviews() {
			assert.False(t, f.store.CanModify(r))
		}
	})
}

func TestTokenGating(t *testing.T) {
	ctx := context.Background()
	f := setupStore(t, option{login: true, identify: true, list: true})
	mine, _ := find(f.store.Reviews(), "100")
	f.store.BeginEdit(mine)
	f.store.SetDraft("Changed my mind about it", 2)
	before := f.store.Reviews()

	_, err := f.store.Create(ctx, models.ReviewForm{Content: "Excellent risotto here", Rating: 5})
	assert.ErrorIs(t, err, api.ErrTokenMissing)
	assert.Equal(t, []string{MsgTokenMissing}, f.presenter.Alerts())

	err = f.store.Update(ctx, mine)
	assert.ErrorIs(t, err, api.ErrTokenMissing)
	assert.Equal(t, api.KindPrecondition, api.KindOf(err))

	err = f.store.Remove(ctx, mine.ID)
	assert.ErrorIs(t, err, api.ErrTokenMissing)

	// Only the login POST of the fixture reached the backend.
	assert.Equal(t, 1, f.backend.MutatingCalls())
	assert.Equal(t, before, f.store.Reviews())
}

func TestEditCursor(t *testing.T) {
	f := setupStore(t, ready)
	a, _ := find(f.store.Reviews(), "100")
	b, _ := find(f.store.Reviews(), "101")

	assert.False(t, f.store.Cursor().Active())

	f.store.BeginEdit(a)
	f.store.SetDraft("Unsaved draft for review A", 1)
	assert.Equal(t, a.ID, f.store.Cursor().ReviewID)

	f.store.BeginEdit(b)
	cursor := f.store.Cursor()
	assert.Equal(t, b.ID, cursor.ReviewID)
	assert.Equal(t, b.Content, cursor.DraftContent)
	assert.Equal(t, b.Rating, cursor.DraftRating)

	f.store.CancelEdit()
	assert.False(t, f.store.Cursor().Active())

	f.store.SetDraft("ignored without a cursor", 3)
	assert.Equal(t, models.EditCursor{}, f.store.Cursor())
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("success replaces the entry and clears the cursor", func(t *testing.T) {
		f := setupStore(t, ready)
		mine, _ := find(f.store.Reviews(), "100")

		f.store.BeginEdit(mine)
		f.store.SetDraft("Carbonara was even better the second time", 5)
		require.NoError(t, f.store.Update(ctx, mine))

		updated, ok := find(f.store.Reviews(), "100")
		require.True(t, ok)
		assert.Equal(t, "Carbonara was even better the second time", updated.Content)
		assert.Equal(t, models.Rating(5), updated.Rating)
		assert.Equal(t, testutil.TestEmail, updated.UserEmail, "email carried over from the previous entry")
		assert.False(t, f.store.Cursor().Active())
		assert.Len(t, f.store.Reviews(), 2)

		req, ok := f.backend.LastRequest(http.MethodPut, "/restaurants/1/reviews/100")
		require.True(t, ok)
		assert.Equal(t, testutil.FakeToken, req.Header.Get("X-CSRFToken"))
	})

	t.Run("failure leaves collection and cursor unchanged", func(t *testing.T) {
		f := setupStore(t, ready)
		theirs, _ := find(f.store.Reviews(), "101")
		before := f.store.Reviews()

		f.store.BeginEdit(theirs)
		f.store.SetDraft("Trying to edit someone else's review", 1)
		cursor := f.store.Cursor()

		err := f.store.Update(ctx, theirs)

		assert.Equal(t, api.KindApplication, api.KindOf(err))
		assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
		assert.Equal(t, before, f.store.Reviews())
		assert.Equal(t, cursor, f.store.Cursor())
		assert.Empty(t, f.presenter.Alerts(), "update failures are logged only")
	})

	t.Run("review not under the cursor", func(t *testing.T) {
		f := setupStore(t, ready)
		mine, _ := find(f.store.Reviews(), "100")
		calls := f.backend.MutatingCalls()

		err := f.store.Update(ctx, mine)

		assert.ErrorIs(t, err, ErrNotEditing)
		assert.Equal(t, calls, f.backend.MutatingCalls())
	})
}

func TestRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("success removes exactly one entry", func(t *testing.T) {
		f := setupStore(t, ready)

		require.NoError(t, f.store.Remove(ctx, "100"))

		after := f.store.Reviews()
		assert.Len(t, after, 1)
		_, found := find(after, "100")
		assert.False(t, found)
	})

	t.Run("failure keeps the collection", func(t *testing.T) {
		f := setupStore(t, ready)
		before := f.store.Reviews()

		err := f.store.Remove(ctx, "101")

		assert.Equal(t, http.StatusForbidden, api.StatusOf(err))
		assert.Equal(t, before, f.store.Reviews())
	})

	t.Run("concurrent deletes each apply their outcome", func(t *testing.T) {
		f := setupStore(t, ready)
		f.backend.AddReview(testutil.TestReview("102"))
		require.NoError(t, f.store.List(ctx))
		require.Len(t, f.store.Reviews(), 3)

		var wg sync.WaitGroup
		for _, id := range []models.ID{"100", "102"} {
			wg.Add(1)
			go func(id models.ID) {
				defer wg.Done()
				assert.NoError(t, f.store.Remove(ctx, id))
			}(id)
		}
		wg.Wait()

		after := f.store.Reviews()
		require.Len(t, after, 1)
		assert.Equal(t, models.ID("101"), after[0].ID)
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns and appends the review", func(t *testing.T) {
		f := setupStore(t, ready)

		created, err := f.store.Create(ctx, models.ReviewForm{Content: "Excellent risotto here", Rating: 5})
		require.NoError(t, err)

		assert.False(t, created.ID.IsZero())
		assert.Equal(t, testutil.TestUserID, created.UserID)
		assert.Equal(t, testutil.TestEmail, created.UserEmail)
		assert.Equal(t, []string{MsgReviewAdded}, f.presenter.Alerts())
		assert.Len(t, f.store.Reviews(), 3)
		assert.Len(t, f.backend.Reviews("1"), 3)
	})

	t.Run("invalid form is not sent", func(t *testing.T) {
		f := setupStore(t, ready)
		calls := f.backend.MutatingCalls()

		_, err := f.store.Create(ctx, models.ReviewForm{Content: "short", Rating: 9})

		assert.Equal(t, api.KindValidation, api.KindOf(err))
		assert.Equal(t, calls, f.backend.MutatingCalls())
	})

	t.Run("rejection is logged without alert", func(t *testing.T) {
		f := setupStore(t, option{token: true, list: true})

		_, err := f.store.Create(ctx, models.ReviewForm{Content: "Excellent risotto here", Rating: 5})

		assert.Equal(t, http.StatusUnauthorized, api.StatusOf(err))
		assert.Empty(t, f.presenter.Alerts())
		assert.Len(t, f.store.Reviews(), 2)
	})
}

func TestReload(t *testing.T) {
	ctx := context.Background()

	t.Run("restores server truth after a failed update", func(t *testing.T) {
		f := setupStore(t, ready)
		mine, _ := find(f.store.Reviews(), "100")
		f.backend.Override(http.MethodPut, "/restaurants/1/reviews/100", func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, http.StatusInternalServerError, map[string]string{"message": "boom"})
		})

		f.store.BeginEdit(mine)
		f.store.SetDraft("This draft never reaches the server", 1)
		require.Error(t, f.store.Update(ctx, mine))

		require.NoError(t, f.store.Reload(ctx, "100"))

		fresh, ok := find(f.store.Reviews(), "100")
		require.True(t, ok)
		assert.Equal(t, mine, fresh)
	})

	t.Run("drops a review the server no longer has", func(t *testing.T) {
		f := setupStore(t, ready)
		f.backend.Override(http.MethodGet, "/restaurants/1/reviews/101", func(w http.ResponseWriter, r *http.Request) {
			testutil.WriteJSON(w, http.StatusNotFound, map[string]string{"message": "Review not found!"})
		})

		require.NoError(t, f.store.Reload(ctx, "101"))

		_, found := find(f.store.Reviews(), "101")
		assert.False(t, found)
		assert.Len(t, f.store.Reviews(), 1)
	})
}
