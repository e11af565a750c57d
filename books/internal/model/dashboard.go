package model

import (
	"time"

	"github.com/google/uuid"
)

type BooksByStatus struct {
	Reading   int `json:"Reading"`
	Completed int `json:"Completed"`
	Wishlist  int `json:"Wishlist"`
}

func (b BooksByStatus) Total() int {
	return b.Reading + b.Completed + b.Wishlist
}

func (b *BooksByStatus) Set(status Status, count int) {
	switch status {
	case StatusReading:
		b.Reading = count
	case StatusCompleted:
		b.Completed = count
	case StatusWishlist:
		b.Wishlist = count
	}
}

type GenreCount struct {
	Genre string `json:"_id" db:"genre"`
	Count int    `json:"count" db:"count"`
}

type YearCount struct {
	Year  int `json:"_id" db:"year"`
	Count int `json:"count" db:"count"`
}

type RatingCount struct {
	Rating int `json:"_id" db:"rating"`
	Count  int `json:"count" db:"count"`
}

type RecentBook struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Author    string    `json:"author" db:"author"`
	Status    Status    `json:"status" db:"status"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type ReadingProgress struct {
	AverageRating float64 `json:"averageRating"`
	TotalRated    int     `json:"totalRated"`
}

type Stats struct {
	TotalBooks         int             `json:"totalBooks"`
	BooksByStatus      BooksByStatus   `json:"booksByStatus"`
	TopGenres          []GenreCount    `json:"topGenres"`
	BooksByYear        []YearCount     `json:"booksByYear"`
	RecentBooks        []RecentBook    `json:"recentBooks"`
	ReadingProgress    ReadingProgress `json:"readingProgress"`
	RatingDistribution []RatingCount   `json:"ratingDistribution"`
}

type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

func (p Period) Valid() bool {
	switch p {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return true
	}
	return false
}

// Cutoff is the inclusive start of the period that contains now, in UTC.
func (p Period) Cutoff(now time.Time) time.Time {
	now = now.UTC()
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodMonth:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	}
}

type MonthKey struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

type MonthlyActivity struct {
	ID        MonthKey `json:"_id"`
	Count     int      `json:"count"`
	Completed int      `json:"completed"`
}

type AuthorStats struct {
	Author         string `json:"_id"`
	Count          int    `json:"count"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completionRate"`
}

type GenrePreference struct {
	Genre     string   `json:"_id"`
	Count     int      `json:"count"`
	AvgRating *float64 `json:"avgRating"`
}

type Analytics struct {
	Period                 Period            `json:"period"`
	BooksAddedInPeriod     int               `json:"booksAddedInPeriod"`
	BooksCompletedInPeriod int               `json:"booksCompletedInPeriod"`
	MonthlyActivity        []MonthlyActivity `json:"monthlyActivity"`
	TopAuthors             []AuthorStats     `json:"topAuthors"`
	GenrePreferences       []GenrePreference `json:"genrePreferences"`
}
