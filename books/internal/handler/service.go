package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/Astemirdum/booktracker/books/internal/model"
	"github.com/Astemirdum/booktracker/books/internal/service"
	"github.com/Astemirdum/booktracker/pkg/auth"
)

//go:generate go run github.com/golang/mock/mockgen -source=service.go -destination=mocks/mock.go

type BookService interface {
	ListBooks(ctx context.Context, owner auth.Owner, q model.ListBooksQuery) (model.ListBooks, error)
	GetBook(ctx context.Context, owner auth.Owner, id uuid.UUID) (model.Book, error)
	CreateBook(ctx context.Context, owner auth.Owner, req model.CreateBookRequest) (model.Book, error)
	UpdateBook(ctx context.Context, owner auth.Owner, id uuid.UUID, req model.UpdateBookRequest) (model.Book, error)
	DeleteBook(ctx context.Context, owner auth.Owner, id uuid.UUID) (model.DeletedBook, error)
}

type DashboardService interface {
	Stats(ctx context.Context, owner auth.Owner) (model.Stats, error)
	Analytics(ctx context.Context, owner auth.Owner, period model.Period) (model.Analytics, error)
}

var (
	_ BookService      = (*service.Service)(nil)
	_ DashboardService = (*service.Dashboard)(nil)
)
