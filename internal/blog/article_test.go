package blog

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/articles/internal/record"
	"github.com/roach88/articles/internal/store"
)

type countingProvider struct {
	record.Provider
	conns int
}

func (p *countingProvider) Conn(ctx context.Context) (*sqlx.Conn, error) {
	p.conns++
	return p.Provider.Conn(ctx)
}

// fixedClock returns a clock that reports t on every call.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNew_DefaultsDateToConstructionTime(t *testing.T) {
	before := time.Now()
	a := New(newTestStore(t))
	after := time.Now()

	assert.Equal(t, record.Unsaved, a.PK())
	assert.False(t, a.Date.Before(before))
	assert.False(t, a.Date.After(after))
}

func TestNew_WithClock(t *testing.T) {
	published := time.Date(2023, 11, 5, 9, 0, 0, 0, time.UTC)
	a := New(newTestStore(t), WithClock(fixedClock(published)))
	assert.True(t, a.Date.Equal(published))
}

func TestNew_WithNilClockKeepsDefault(t *testing.T) {
	a := New(newTestStore(t), WithClock(nil))
	assert.False(t, a.Date.IsZero())
}

func TestSave_InsertRoundTripsDate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a := New(st)
	a.Title = "launch"
	a.Context = "we shipped"
	saved := a.Date
	require.NoError(t, a.Save(ctx))

	pk, ok := a.PK().ID()
	require.True(t, ok)

	// Look the row up with a clock far from the save time, so a default
	// date leaking through would be caught.
	later := time.Date(2099, 1, 1, 0, 0, 0, 0, time.UTC)
	got, found, err := New(st, WithClock(fixedClock(later))).Get(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)

	assert.Equal(t, record.Persisted(pk), got.PK())
	assert.Equal(t, "launch", got.Title)
	assert.Equal(t, "we shipped", got.Context)
	assert.True(t, got.Date.Equal(saved), "date = %v, want the saved %v", got.Date, saved)
	assert.Equal(t, time.UTC, got.Date.Location())
}

func TestSave_PreservesNonUTCDate(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	tokyo := time.FixedZone("JST", 9*60*60)
	published := time.Date(2024, 2, 29, 23, 59, 59, 500, tokyo)

	a := New(st, WithClock(fixedClock(published)))
	require.NoError(t, a.Save(ctx))
	pk, _ := a.PK().ID()

	got, found, err := a.Get(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, got.Date.Equal(published))
}

func TestSave_UpdateResetsKey(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a := New(st)
	a.Title = "v1"
	require.NoError(t, a.Save(ctx))
	pk, ok := a.PK().ID()
	require.True(t, ok)

	a.Title = "v2"
	a.Date = time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, a.Save(ctx))
	assert.Equal(t, record.Unsaved, a.PK(), "a successful update resets the key")

	got, found, err := New(st).Get(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "v2", got.Title)
	assert.True(t, got.Date.Equal(a.Date))
}

func TestSave_SecondSaveAfterUpdateInserts(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a := New(st)
	a.Title = "post"
	require.NoError(t, a.Save(ctx)) // insert
	require.NoError(t, a.Save(ctx)) // update, key reset
	require.NoError(t, a.Save(ctx)) // insert again

	all, err := New(st).All(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.True(t, a.PK().IsPersisted())
}

func TestSave_UpdateAfterReload(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a := New(st)
	a.Title = "first"
	require.NoError(t, a.Save(ctx))
	pk, _ := a.PK().ID()
	require.NoError(t, a.Save(ctx))

	reloaded, found, err := a.Get(ctx, pk)
	require.NoError(t, err)
	require.True(t, found)

	reloaded.Title = "second"
	require.NoError(t, reloaded.Save(ctx))

	all, err := a.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "reloading restores the key so the save updates")
	assert.Equal(t, "second", all[0].Title)
}

func TestSave_StatementError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.DB().Exec("DROP TABLE blog_article")
	require.NoError(t, err)

	a := New(st)
	err = a.Save(ctx)
	assert.True(t, record.IsStatementError(err))
	assert.Equal(t, record.Unsaved, a.PK())
}

func TestSave_FailedUpdateKeepsKey(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a := New(st)
	require.NoError(t, a.Save(ctx))
	key := a.PK()

	_, err := st.DB().Exec("DROP TABLE blog_article")
	require.NoError(t, err)

	err = a.Save(ctx)
	assert.True(t, record.IsStatementError(err))
	assert.Equal(t, key, a.PK(), "only a successful update resets the key")
}

func TestDelete_UnsavedReturnsFalseWithoutStatement(t *testing.T) {
	p := &countingProvider{Provider: newTestStore(t)}

	deleted, err := New(p).Delete(context.Background())
	require.NoError(t, err)
	assert.False(t, deleted)
	assert.Zero(t, p.conns)
}

func TestDelete_PersistedResetsKey(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a := New(st)
	a.Title = "short-lived"
	require.NoError(t, a.Save(ctx))
	pk, _ := a.PK().ID()

	deleted, err := a.Delete(ctx)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, record.Unsaved, a.PK())

	_, found, err := a.Get(ctx, pk)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestGet_NotFound(t *testing.T) {
	got, found, err := New(newTestStore(t)).Get(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestGet_InheritsClock(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	clock := fixedClock(time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))

	a := New(st, WithClock(clock))
	require.NoError(t, a.Save(ctx))
	pk, _ := a.PK().ID()

	got, _, err := a.Get(ctx, pk)
	require.NoError(t, err)

	fresh := New(st, WithClock(got.now))
	assert.True(t, fresh.Date.Equal(clock()))
}

func TestAll_Empty(t *testing.T) {
	all, err := New(newTestStore(t)).All(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}

func TestAll_ReturnsEveryRowWithDates(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	base := time.Date(2022, 7, 1, 8, 0, 0, 0, time.UTC)
	want := map[string]time.Time{}
	for i, title := range []string{"monday", "tuesday", "wednesday"} {
		date := base.Add(time.Duration(i) * 24 * time.Hour)
		a := New(st, WithClock(fixedClock(date)))
		a.Title = title
		require.NoError(t, a.Save(ctx))
		want[title] = date
	}

	all, err := New(st).All(ctx)
	require.NoError(t, err)
	require.Len(t, all, len(want))

	for _, a := range all {
		date, ok := want[a.Title]
		require.True(t, ok, "unexpected title %q", a.Title)
		assert.True(t, a.Date.Equal(date), "%s: date = %v, want %v", a.Title, a.Date, date)
		assert.True(t, a.PK().IsPersisted())
	}
}

func TestTables_AreIndependent(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.DB().Exec("INSERT INTO article (title, context) VALUES ('plain', 'body')")
	require.NoError(t, err)

	all, err := New(st).All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "rows of the article table must not show up as blog articles")
}

func TestGet_NullColumnsReadAsZeroValues(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.DB().Exec("INSERT INTO blog_article (title, context, date) VALUES (NULL, NULL, NULL)")
	require.NoError(t, err)

	got, found, err := New(st).Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, record.Persisted(1), got.PK())
	assert.Empty(t, got.Title)
	assert.Empty(t, got.Context)
	assert.True(t, got.Date.IsZero(), "a NULL date is not replaced by the lookup time")
}

func TestAll_NullDateDoesNotFailTheTable(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.DB().Exec("INSERT INTO blog_article (title, context, date) VALUES ('undated', NULL, NULL)")
	require.NoError(t, err)
	date := time.Date(2023, 3, 4, 5, 6, 7, 0, time.UTC)
	a := New(st, WithClock(fixedClock(date)))
	a.Title = "dated"
	require.NoError(t, a.Save(ctx))

	all, err := New(st).All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	for _, got := range all {
		switch got.Title {
		case "undated":
			assert.True(t, got.Date.IsZero())
		case "dated":
			assert.True(t, got.Date.Equal(date))
		default:
			t.Fatalf("unexpected title %q", got.Title)
		}
	}
}

func TestZeroArticleHasNoProvider(t *testing.T) {
	ctx := context.Background()
	var a Article

	_, _, err := a.Get(ctx, 1)
	assert.ErrorIs(t, err, record.ErrNoProvider)

	_, err = a.All(ctx)
	assert.ErrorIs(t, err, record.ErrNoProvider)

	assert.ErrorIs(t, a.Save(ctx), record.ErrNoProvider)
}
