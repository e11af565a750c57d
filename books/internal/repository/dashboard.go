package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/books/internal/model"
)

type StatusCount struct {
	Status model.Status `db:"status"`
	Count  int          `db:"count"`
}

type RatingSummary struct {
	Average float64 `db:"average"`
	Rated   int     `db:"rated"`
}

type MonthCount struct {
	Year      int `db:"year"`
	Month     int `db:"month"`
	Count     int `db:"count"`
	Completed int `db:"completed"`
}

type AuthorCount struct {
	Author    string `db:"author"`
	Count     int    `db:"count"`
	Completed int    `db:"completed"`
}

type GenreRating struct {
	Genre     string   `db:"genre"`
	Count     int      `db:"count"`
	AvgRating *float64 `db:"avg_rating"`
}

// StatsRepository holds the per-owner aggregates behind the dashboard.
type StatsRepository interface {
	CountBooks(ctx context.Context, ownerID string) (int, error)
	CountByStatus(ctx context.Context, ownerID string) ([]StatusCount, error)
	TopGenres(ctx context.Context, ownerID string, limit int) ([]model.GenreCount, error)
	BooksByYear(ctx context.Context, ownerID string, from, to int) ([]model.YearCount, error)
	RecentBooks(ctx context.Context, ownerID string, limit int) ([]model.RecentBook, error)
	RatingSummary(ctx context.Context, ownerID string) (RatingSummary, error)
	RatingDistribution(ctx context.Context, ownerID string) ([]model.RatingCount, error)

	CountAddedSince(ctx context.Context, ownerID string, since time.Time) (int, error)
	CountCompletedSince(ctx context.Context, ownerID string, since time.Time) (int, error)
	MonthlyActivity(ctx context.Context, ownerID string, limit int) ([]MonthCount, error)
	TopAuthors(ctx context.Context, ownerID string, limit int) ([]AuthorCount, error)
	GenreRatings(ctx context.Context, ownerID string, limit int) ([]GenreRating, error)
}

type statsRepository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewStatsRepository(db *pgxpool.Pool, log *zap.Logger) *statsRepository {
	return &statsRepository{
		db:  db,
		log: log.Named("stats_repo"),
	}
}

func (r *statsRepository) count(ctx context.Context, q string, args pgx.NamedArgs) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, q, args).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func collect[T any](ctx context.Context, db *pgxpool.Pool, q string, args pgx.NamedArgs) ([]T, error) {
	rows, err := db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[T])
}

func (r *statsRepository) CountBooks(ctx context.Context, ownerID string) (int, error) {
	n, err := r.count(ctx, `select count(*) from books where owner_id = @owner_id`,
		pgx.NamedArgs{"owner_id": ownerID})
	return n, errors.Wrap(err, "count books")
}

func (r *statsRepository) CountByStatus(ctx context.Context, ownerID string) ([]StatusCount, error) {
	q := `
select status, count(*) as count
from books
where owner_id = @owner_id
group by status`
	res, err := collect[StatusCount](ctx, r.db, q, pgx.NamedArgs{"owner_id": ownerID})
	return res, errors.Wrap(err, "count by status")
}

func (r *statsRepository) TopGenres(ctx context.Context, ownerID string, limit int) ([]model.GenreCount, error) {
	q := `
select genre, count(*) as count
from books
where owner_id = @owner_id
group by genre
order by count desc, genre asc
limit @limit`
	res, err := collect[model.GenreCount](ctx, r.db, q, pgx.NamedArgs{"owner_id": ownerID, "limit": limit})
	return res, errors.Wrap(err, "top genres")
}

func (r *statsRepository) BooksByYear(ctx context.Context, ownerID string, from, to int) ([]model.YearCount, error) {
	q := `
select year, count(*) as count
from books
where owner_id = @owner_id and year between @from and @to
group by year
order by year asc`
	res, err := collect[model.YearCount](ctx, r.db, q, pgx.NamedArgs{"owner_id": ownerID, "from": from, "to": to})
	return res, errors.Wrap(err, "books by year")
}

func (r *statsRepository) RecentBooks(ctx context.Context, ownerID string, limit int) ([]model.RecentBook, error) {
	q := `
select id, title, author, status, created_at
from books
where owner_id = @owner_id
order by created_at desc, id desc
limit @limit`
	res, err := collect[model.RecentBook](ctx, r.db, q, pgx.NamedArgs{"owner_id": ownerID, "limit": limit})
	return res, errors.Wrap(err, "recent books")
}

func (r *statsRepository) RatingSummary(ctx context.Context, ownerID string) (RatingSummary, error) {
	q := `
select coalesce(avg(rating), 0)::float8 as average, count(rating) as rated
from books
where owner_id = @owner_id and rating is not null`
	var s RatingSummary
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"owner_id": ownerID}).Scan(&s.Average, &s.Rated); err != nil {
		return RatingSummary{}, errors.Wrap(err, "rating summary")
	}
	return s, nil
}

func (r *statsRepository) RatingDistribution(ctx context.Context, ownerID string) ([]model.RatingCount, error) {
	q := `
select rating, count(*) as count
from books
where owner_id = @owner_id and rating is not null
group by rating
order by rating asc`
	res, err := collect[model.RatingCount](ctx, r.db, q, pgx.NamedArgs{"owner_id": ownerID})
	return res, errors.Wrap(err, "rating distribution")
}

func (r *statsRepository) CountAddedSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	n, err := r.count(ctx, `select count(*) from books where owner_id = @owner_id and created_at >= @since`,
		pgx.NamedArgs{"owner_id": ownerID, "since": since})
	return n, errors.Wrap(err, "count added since")
}

func (r *statsRepository) CountCompletedSince(ctx context.Context, ownerID string, since time.Time) (int, error) {
	q := `
select count(*)
from books
where owner_id = @owner_id and status = @status and updated_at >= @since`
	n, err := r.count(ctx, q, pgx.NamedArgs{"owner_id": ownerID, "status": string(model.StatusCompleted), "since": since})
	return n, errors.Wrap(err, "count completed since")
}

func (r *statsRepository) MonthlyActivity(ctx context.Context, ownerID string, limit int) ([]MonthCount, error) {
	q := `
select extract(year from created_at at time zone 'UTC')::int  as year,
       extract(month from created_at at time zone 'UTC')::int as month,
       count(*)                                                as count,
       count(*) filter (where status = @status)                as completed
from books
where owner_id = @owner_id
group by 1, 2
order by 1 asc, 2 asc
limit @limit`
	res, err := collect[MonthCount](ctx, r.db, q,
		pgx.NamedArgs{"owner_id": ownerID, "status": string(model.StatusCompleted), "limit": limit})
	return res, errors.Wrap(err, "monthly activity")
}

func (r *statsRepository) TopAuthors(ctx context.Context, ownerID string, limit int) ([]AuthorCount, error) {
	q := `
select author,
       count(*)                                 as count,
       count(*) filter (where status = @status) as completed
from books
where owner_id = @owner_id
group by author
order by count desc, author asc
limit @limit`
	res, err := collect[AuthorCount](ctx, r.db, q,
		pgx.NamedArgs{"owner_id": ownerID, "status": string(model.StatusCompleted), "limit": limit})
	return res, errors.Wrap(err, "top authors")
}

func (r *statsRepository) GenreRatings(ctx context.Context, ownerID string, limit int) ([]GenreRating, error) {
	q := `
select genre, count(*) as count, avg(rating)::float8 as avg_rating
from books
where owner_id = @owner_id
group by genre
order by count desc, genre asc
limit @limit`
	res, err := collect[GenreRating](ctx, r.db, q, pgx.NamedArgs{"owner_id": ownerID, "limit": limit})
	return res, errors.Wrap(err, "genre ratings")
}
