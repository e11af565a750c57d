package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusReading   Status = "Reading"
	StatusCompleted Status = "Completed"
	StatusWishlist  Status = "Wishlist"
)

type Book struct {
	ID        uuid.UUID `json:"id" db:"id"`
	OwnerID   string    `json:"ownerId" db:"owner_id" validate:"required"`
	Title     string    `json:"title" db:"title" validate:"required,min=1,max=200"`
	Author    string    `json:"author" db:"author" validate:"required,min=1,max=100"`
	Genre     string    `json:"genre" db:"genre" validate:"required,min=1,max=50"`
	Year      int       `json:"year" db:"year" validate:"required,min=1000,notfuture"`
	Status    Status    `json:"status" db:"status" validate:"required,oneof=Reading Completed Wishlist"`
	Rating    *int      `json:"rating" db:"rating" validate:"omitempty,min=1,max=5"`
	Notes     string    `json:"notes" db:"notes" validate:"max=1000"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type CreateBookRequest struct {
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Genre  string  `json:"genre"`
	Year   int     `json:"year"`
	Status *Status `json:"status"`
	Rating *int    `json:"rating"`
	Notes  *string `json:"notes"`
}

func (r *CreateBookRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Author = strings.TrimSpace(r.Author)
	r.Genre = strings.TrimSpace(r.Genre)
}

// UpdateBookRequest is a partial update: nil fields keep their stored value.
type UpdateBookRequest struct {
	Title  *string `json:"title"`
	Author *string `json:"author"`
	Genre  *string `json:"genre"`
	Year   *int    `json:"year"`
	Status *Status `json:"status"`
	Rating *int    `json:"rating"`
	Notes  *string `json:"notes"`
}

func (r *UpdateBookRequest) Normalize() {
	for _, s := range []*string{r.Title, r.Author, r.Genre} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
}

// Apply copies the present fields onto b.
func (r UpdateBookRequest) Apply(b *Book) {
	if r.Title != nil {
		b.Title = *r.Title
	}
	if r.Author != nil {
		b.Author = *r.Author
	}
	if r.Genre != nil {
		b.Genre = *r.Genre
	}
	if r.Year != nil {
		b.Year = *r.Year
	}
	if r.Status != nil {
		b.Status = *r.Status
	}
	if r.Rating != nil {
		rating := *r.Rating
		b.Rating = &rating
	}
	if r.Notes != nil {
		b.Notes = *r.Notes
	}
}

type DeletedBook struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Title string    `json:"title" db:"title"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

type ListBooksQuery struct {
	Page      int    `query:"page" validate:"min=1"`
	Limit     int    `query:"limit" validate:"min=1,max=100"`
	Search    string `query:"search"`
	Genre     string `query:"genre"`
	Status    Status `query:"status" validate:"omitempty,oneof=Reading Completed Wishlist"`
	SortBy    string `query:"sortBy" validate:"oneof=createdAt updatedAt title author genre year status rating"`
	SortOrder string `query:"sortOrder" validate:"oneof=asc desc"`
}

func NewListBooksQuery() ListBooksQuery {
	return ListBooksQuery{
		Page:      DefaultPage,
		Limit:     DefaultLimit,
		SortBy:    "createdAt",
		SortOrder: "desc",
	}
}

func (q ListBooksQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type ListBooks struct {
	Items      []Book
	Pagination Pagination
}

type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalBooks  int  `json:"totalBooks"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}

func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalBooks:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
