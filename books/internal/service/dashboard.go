package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Astemirdum/booktracker/books/internal/errs"
	"github.com/Astemirdum/booktracker/books/internal/model"
	"github.com/Astemirdum/booktracker/books/internal/repository"
	"github.com/Astemirdum/booktracker/pkg/auth"
	"github.com/Astemirdum/booktracker/pkg/metrics"
)

const (
	topGenresLimit     = 10
	yearSpan           = 10
	recentBooksLimit   = 5
	monthlyGroupsLimit = 12
	topAuthorsLimit    = 10
	genrePrefsLimit    = 10
)

type Dashboard struct {
	log   *zap.Logger
	repo  repository.StatsRepository
	cache StatsCache
	now   func() time.Time
}

func NewDashboard(repo repository.StatsRepository, cache StatsCache, log *zap.Logger) *Dashboard {
	return &Dashboard{
		log:   log.Named("dashboard"),
		repo:  repo,
		cache: cache,
		now:   time.Now,
	}
}

func (d *Dashboard) Stats(ctx context.Context, owner auth.Owner) (model.Stats, error) {
	cached, ok, err := d.cache.Get(ctx, owner.ID)
	switch {
	case err != nil:
		metrics.StatsCache.WithLabelValues("error").Inc()
		d.log.Warn("stats cache get", zap.String("owner", owner.ID), zap.Error(err))
	case ok:
		metrics.StatsCache.WithLabelValues("hit").Inc()
		return cached, nil
	default:
		metrics.StatsCache.WithLabelValues("miss").Inc()
	}

	stats, err := d.computeStats(ctx, owner.ID)
	if err != nil {
		return model.Stats{}, err
	}
	if err = d.cache.Set(ctx, owner.ID, stats); err != nil {
		d.log.Warn("stats cache set", zap.String("owner", owner.ID), zap.Error(err))
	}
	return stats, nil
}

func (d *Dashboard) computeStats(ctx context.Context, ownerID string) (model.Stats, error) {
	var (
		stats    model.Stats
		statuses []repository.StatusCount
		rating   repository.RatingSummary
	)
	currentYear := d.now().UTC().Year()

	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() (err error) {
		stats.TotalBooks, err = d.repo.CountBooks(ctx, ownerID)
		return err
	})
	gg.Go(func() (err error) {
		statuses, err = d.repo.CountByStatus(ctx, ownerID)
		return err
	})
	gg.Go(func() (err error) {
		stats.TopGenres, err = d.repo.TopGenres(ctx, ownerID, topGenresLimit)
		return err
	})
	gg.Go(func() (err error) {
		stats.BooksByYear, err = d.repo.BooksByYear(ctx, ownerID, currentYear-(yearSpan-1), currentYear)
		return err
	})
	gg.Go(func() (err error) {
		stats.RecentBooks, err = d.repo.RecentBooks(ctx, ownerID, recentBooksLimit)
		return err
	})
	gg.Go(func() (err error) {
		rating, err = d.repo.RatingSummary(ctx, ownerID)
		return err
	})
	gg.Go(func() (err error) {
		stats.RatingDistribution, err = d.repo.RatingDistribution(ctx, ownerID)
		return err
	})
	if err := gg.Wait(); err != nil {
		return model.Stats{}, err
	}

	for _, sc := range statuses {
		stats.BooksByStatus.Set(sc.Status, sc.Count)
	}
	if rating.Rated > 0 {
		stats.ReadingProgress = model.ReadingProgress{
			AverageRating: round1(rating.Average),
			TotalRated:    rating.Rated,
		}
	}
	stats.TopGenres = nonNil(stats.TopGenres)
	stats.BooksByYear = nonNil(stats.BooksByYear)
	stats.RecentBooks = nonNil(stats.RecentBooks)
	stats.RatingDistribution = nonNil(stats.RatingDistribution)
	return stats, nil
}

func (d *Dashboard) Analytics(ctx context.Context, owner auth.Owner, period model.Period) (model.Analytics, error) {
	if period == "" {
		period = model.PeriodYear
	}
	if !period.Valid() {
		return model.Analytics{}, errs.NewValidationError("period", "must be one of: week, month, year")
	}
	now := d.now()
	periodCutoff := period.Cutoff(now)
	// completions are always counted from the start of the year, whatever the period
	yearCutoff := model.PeriodYear.Cutoff(now)

	var (
		out     = model.Analytics{Period: period}
		months  []repository.MonthCount
		authors []repository.AuthorCount
		genres  []repository.GenreRating
	)
	gg, ctx := errgroup.WithContext(ctx)
	gg.Go(func() (err error) {
		out.BooksAddedInPeriod, err = d.repo.CountAddedSince(ctx, owner.ID, periodCutoff)
		return err
	})
	gg.Go(func() (err error) {
		out.BooksCompletedInPeriod, err = d.repo.CountCompletedSince(ctx, owner.ID, yearCutoff)
		return err
	})
	gg.Go(func() (err error) {
		months, err = d.repo.MonthlyActivity(ctx, owner.ID, monthlyGroupsLimit)
		return err
	})
	gg.Go(func() (err error) {
		authors, err = d.repo.TopAuthors(ctx, owner.ID, topAuthorsLimit)
		return err
	})
	gg.Go(func() (err error) {
		genres, err = d.repo.GenreRatings(ctx, owner.ID, genrePrefsLimit)
		return err
	})
	if err := gg.Wait(); err != nil {
		return model.Analytics{}, err
	}

	out.MonthlyActivity = make([]model.MonthlyActivity, 0, len(months))
	for _, m := range months {
		out.MonthlyActivity = append(out.MonthlyActivity, model.MonthlyActivity{
			ID:        model.MonthKey{Year: m.Year, Month: m.Month},
			Count:     m.Count,
			Completed: m.Completed,
		})
	}
	out.TopAuthors = make([]model.AuthorStats, 0, len(authors))
	for _, a := range authors {
		out.TopAuthors = append(out.TopAuthors, model.AuthorStats{
			Author:         a.Author,
			Count:          a.Count,
			Completed:      a.Completed,
			CompletionRate: completionRate(a.Completed, a.Count),
		})
	}
	out.GenrePreferences = make([]model.GenrePreference, 0, len(genres))
	for _, g := range genres {
		pref := model.GenrePreference{Genre: g.Genre, Count: g.Count}
		if g.AvgRating != nil {
			avg := round1(*g.AvgRating)
			pref.AvgRating = &avg
		}
		out.GenrePreferences = append(out.GenrePreferences, pref)
	}
	return out, nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
