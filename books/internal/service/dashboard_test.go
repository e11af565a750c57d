package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/books/internal/errs"
	"github.com/Astemirdum/booktracker/books/internal/model"
)

func newTestDashboard(store *memStore, cache StatsCache) *Dashboard {
	d := NewDashboard(store, cache, zap.NewNop())
	d.now = func() time.Time { return fixedNow }
	return d
}

func seedBook(title, author, genre string, year int, status model.Status, rating *int, created, updated time.Time) model.Book {
	return model.Book{
		OwnerID: alice.ID, Title: title, Author: author, Genre: genre, Year: year,
		Status: status, Rating: rating, CreatedAt: created, UpdatedAt: updated,
	}
}

func TestDashboard_Stats(t *testing.T) {
	t.Parallel()
	day := func(m time.Month, d int) time.Time { return time.Date(2024, m, d, 10, 0, 0, 0, time.UTC) }
	store := newMemStore(
		seedBook("Dune", "Frank Herbert", "Sci-Fi", 2020, model.StatusCompleted, ptr(5), day(1, 1), day(1, 1)),
		seedBook("Emma", "Jane Austen", "Classic", 1815, model.StatusReading, ptr(4), day(2, 1), day(2, 1)),
		seedBook("Persuasion", "Jane Austen", "Classic", 1817, model.StatusCompleted, ptr(5), day(3, 1), day(3, 1)),
		seedBook("Hyperion", "Dan Simmons", "Sci-Fi", 2015, model.StatusWishlist, nil, day(4, 1), day(4, 1)),
		seedBook("Old One", "Someone", "History", 2010, model.StatusWishlist, nil, day(4, 2), day(4, 2)),
		model.Book{OwnerID: bob.ID, Title: "Not mine", Genre: "Sci-Fi", Status: model.StatusReading},
	)
	cache := newMemCache()
	d := newTestDashboard(store, cache)

	stats, err := d.Stats(context.Background(), alice)
	require.NoError(t, err)

	require.Equal(t, 5, stats.TotalBooks)
	require.Equal(t, model.BooksByStatus{Reading: 1, Completed: 2, Wishlist: 2}, stats.BooksByStatus)
	require.Equal(t, stats.TotalBooks, stats.BooksByStatus.Total())
	require.Equal(t, []model.GenreCount{
		{Genre: "Classic", Count: 2},
		{Genre: "Sci-Fi", Count: 2},
		{Genre: "History", Count: 1},
	}, stats.TopGenres)
	// 2015..2024 only
	require.Equal(t, []model.YearCount{{Year: 2015, Count: 1}, {Year: 2020, Count: 1}}, stats.BooksByYear)
	require.Len(t, stats.RecentBooks, 5)
	require.Equal(t, "Old One", stats.RecentBooks[0].Title)
	require.Equal(t, model.ReadingProgress{AverageRating: 4.7, TotalRated: 3}, stats.ReadingProgress)
	require.Equal(t, []model.RatingCount{{Rating: 4, Count: 1}, {Rating: 5, Count: 2}}, stats.RatingDistribution)

	cached, ok, err := cache.Get(context.Background(), alice.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, stats, cached)
}

func TestDashboard_Stats_empty(t *testing.T) {
	t.Parallel()
	d := newTestDashboard(newMemStore(), newMemCache())

	stats, err := d.Stats(context.Background(), alice)
	require.NoError(t, err)
	require.Zero(t, stats.TotalBooks)
	require.Equal(t, model.BooksByStatus{}, stats.BooksByStatus)
	require.Equal(t, model.ReadingProgress{}, stats.ReadingProgress)
	require.NotNil(t, stats.TopGenres)
	require.NotNil(t, stats.BooksByYear)
	require.NotNil(t, stats.RecentBooks)
	require.NotNil(t, stats.RatingDistribution)
}

func TestDashboard_Stats_cacheHitAndFailure(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.failWith = errors.New("db down")
	cache := newMemCache()
	d := newTestDashboard(store, cache)

	_, err := d.Stats(context.Background(), alice)
	require.ErrorIs(t, err, store.failWith)

	want := model.Stats{TotalBooks: 42}
	require.NoError(t, cache.Set(context.Background(), alice.ID, want))
	got, err := d.Stats(context.Background(), alice)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestDashboard_Analytics(t *testing.T) {
	t.Parallel()
	at := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 8, 0, 0, 0, time.UTC) }
	store := newMemStore(
		seedBook("A1", "Jane Austen", "Classic", 1811, model.StatusCompleted, ptr(4), at(2024, 3, 2), at(2024, 3, 20)),
		seedBook("A2", "Jane Austen", "Classic", 1813, model.StatusCompleted, ptr(5), at(2024, 3, 5), at(2024, 5, 14)),
		seedBook("A3", "Jane Austen", "Classic", 1815, model.StatusReading, nil, at(2024, 4, 1), at(2024, 4, 1)),
		seedBook("B1", "Dan Simmons", "Sci-Fi", 1989, model.StatusWishlist, nil, at(2024, 5, 10), at(2024, 5, 10)),
		seedBook("C1", "Old Author", "History", 1950, model.StatusCompleted, nil, at(2023, 12, 30), at(2023, 12, 31)),
	)
	d := newTestDashboard(store, newMemCache())

	tests := []struct {
		period    model.Period
		wantAdded int
	}{
		{period: model.PeriodWeek, wantAdded: 1},
		{period: model.PeriodMonth, wantAdded: 1},
		{period: model.PeriodYear, wantAdded: 4},
		{period: "", wantAdded: 4},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.period), func(t *testing.T) {
			t.Parallel()
			res, err := d.Analytics(context.Background(), alice, tt.period)
			require.NoError(t, err)
			require.Equal(t, tt.wantAdded, res.BooksAddedInPeriod)
			// completions are counted from January 1 for every period
			require.Equal(t, 2, res.BooksCompletedInPeriod)
			if tt.period == "" {
				require.Equal(t, model.PeriodYear, res.Period)
			} else {
				require.Equal(t, tt.period, res.Period)
			}
		})
	}

	res, err := d.Analytics(context.Background(), alice, model.PeriodYear)
	require.NoError(t, err)
	require.Equal(t, []model.MonthlyActivity{
		{ID: model.MonthKey{Year: 2023, Month: 12}, Count: 1, Completed: 1},
		{ID: model.MonthKey{Year: 2024, Month: 3}, Count: 2, Completed: 2},
		{ID: model.MonthKey{Year: 2024, Month: 4}, Count: 1, Completed: 0},
		{ID: model.MonthKey{Year: 2024, Month: 5}, Count: 1, Completed: 0},
	}, res.MonthlyActivity)
	require.Equal(t, []model.AuthorStats{
		{Author: "Jane Austen", Count: 3, Completed: 2, CompletionRate: 67},
		{Author: "Dan Simmons", Count: 1, Completed: 0, CompletionRate: 0},
		{Author: "Old Author", Count: 1, Completed: 1, CompletionRate: 100},
	}, res.TopAuthors)

	require.Len(t, res.GenrePreferences, 3)
	require.Equal(t, "Classic", res.GenrePreferences[0].Genre)
	require.Equal(t, 4.5, *res.GenrePreferences[0].AvgRating)
	require.Nil(t, res.GenrePreferences[1].AvgRating)
}

func TestDashboard_Analytics_threeMonths(t *testing.T) {
	t.Parallel()
	var seed []model.Book
	for i, m := range []time.Month{time.May, time.March, time.April, time.March} {
		created := time.Date(2024, m, 3, 0, 0, 0, 0, time.UTC)
		seed = append(seed, seedBook(string(rune('a'+i)), "X", "Y", 2000, model.StatusWishlist, nil, created, created))
	}
	d := newTestDashboard(newMemStore(seed...), newMemCache())

	res, err := d.Analytics(context.Background(), alice, model.PeriodMonth)
	require.NoError(t, err)
	require.Len(t, res.MonthlyActivity, 3)
	require.Equal(t, 3, res.MonthlyActivity[0].ID.Month)
	require.Equal(t, 2, res.MonthlyActivity[0].Count)
	require.Equal(t, 4, res.MonthlyActivity[1].ID.Month)
	require.Equal(t, 5, res.MonthlyActivity[2].ID.Month)
}

func TestDashboard_Analytics_invalidPeriod(t *testing.T) {
	t.Parallel()
	d := newTestDashboard(newMemStore(), newMemCache())

	_, err := d.Analytics(context.Background(), alice, "decade")
	var verr *errs.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "period", verr.Errors[0].Field)
}

func Test_round1(t *testing.T) {
	t.Parallel()
	require.Equal(t, 4.7, round1(14.0/3))
	require.Equal(t, 4.3, round1(4.25))
	require.Equal(t, 0.0, round1(0))
	require.Equal(t, 0, completionRate(0, 0))
	require.Equal(t, 100, completionRate(3, 3))
	require.Equal(t, 33, completionRate(1, 3))
}
