package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/books/internal/errs"
	"github.com/Astemirdum/booktracker/books/internal/model"
	"github.com/Astemirdum/booktracker/books/internal/repository"
	"github.com/Astemirdum/booktracker/pkg/auth"
	"github.com/Astemirdum/booktracker/pkg/kafka"
	"github.com/Astemirdum/booktracker/pkg/metrics"
	"github.com/Astemirdum/booktracker/pkg/validate"
)

// Notifier delivers book-added events. Implementations live in the notify package.
type Notifier interface {
	NotifyBookAdded(ctx context.Context, event kafka.BookAddedEvent) error
}

type StatsCache interface {
	Get(ctx context.Context, ownerID string) (model.Stats, bool, error)
	Set(ctx context.Context, ownerID string, stats model.Stats) error
	Invalidate(ctx context.Context, ownerID string) error
}

type Service struct {
	log      *zap.Logger
	repo     repository.Repository
	notifier Notifier
	cache    StatsCache
	validate *validate.CustomValidator
	now      func() time.Time
}

func NewService(repo repository.Repository, notifier Notifier, cache StatsCache, log *zap.Logger) *Service {
	return &Service{
		log:      log.Named("books"),
		repo:     repo,
		notifier: notifier,
		cache:    cache,
		validate: validate.NewCustomValidator(),
		now:      time.Now,
	}
}

func (s *Service) ListBooks(ctx context.Context, owner auth.Owner, q model.ListBooksQuery) (model.ListBooks, error) {
	if err := s.validate.Validate(q); err != nil {
		return model.ListBooks{}, errs.FromValidation(err)
	}
	books, total, err := s.repo.ListBooks(ctx, owner.ID, q)
	if err != nil {
		return model.ListBooks{}, err
	}
	if books == nil {
		books = []model.Book{}
	}
	return model.ListBooks{
		Items:      books,
		Pagination: model.NewPagination(q.Page, q.Limit, total),
	}, nil
}

func (s *Service) GetBook(ctx context.Context, owner auth.Owner, id uuid.UUID) (model.Book, error) {
	return s.repo.GetBook(ctx, owner.ID, id)
}

func (s *Service) CreateBook(ctx context.Context, owner auth.Owner, req model.CreateBookRequest) (model.Book, error) {
	req.Normalize()
	now := s.timestamp()
	book := model.Book{
		ID:        uuid.New(),
		OwnerID:   owner.ID,
		Title:     req.Title,
		Author:    req.Author,
		Genre:     req.Genre,
		Year:      req.Year,
		Status:    model.StatusWishlist,
		Rating:    req.Rating,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Status != nil {
		book.Status = *req.Status
	}
	if req.Notes != nil {
		book.Notes = *req.Notes
	}
	if err := s.validate.Validate(book); err != nil {
		return model.Book{}, errs.FromValidation(err)
	}

	exists, err := s.repo.ExistsByTitleAuthor(ctx, owner.ID, book.Title, book.Author, uuid.Nil)
	if err != nil {
		return model.Book{}, err
	}
	if exists {
		return model.Book{}, errs.ErrConflict
	}

	created, err := s.repo.CreateBook(ctx, book)
	if err != nil {
		return model.Book{}, err
	}
	metrics.BookMutations.WithLabelValues("create").Inc()
	s.invalidateStats(ctx, owner.ID)
	s.notifyBookAdded(owner, created)
	return created, nil
}

func (s *Service) UpdateBook(ctx context.Context, owner auth.Owner, id uuid.UUID, req model.UpdateBookRequest) (model.Book, error) {
	existing, err := s.repo.GetBook(ctx, owner.ID, id)
	if err != nil {
		return model.Book{}, err
	}
	req.Normalize()
	book := existing
	req.Apply(&book)
	if err = s.validate.Validate(book); err != nil {
		return model.Book{}, errs.FromValidation(err)
	}

	if !strings.EqualFold(book.Title, existing.Title) || !strings.EqualFold(book.Author, existing.Author) {
		exists, err := s.repo.ExistsByTitleAuthor(ctx, owner.ID, book.Title, book.Author, id)
		if err != nil {
			return model.Book{}, err
		}
		if exists {
			return model.Book{}, errs.ErrConflict
		}
	}

	book.UpdatedAt = s.timestamp()
	if !book.UpdatedAt.After(existing.UpdatedAt) {
		book.UpdatedAt = existing.UpdatedAt.Add(time.Microsecond)
	}
	updated, err := s.repo.UpdateBook(ctx, book)
	if err != nil {
		return model.Book{}, err
	}
	metrics.BookMutations.WithLabelValues("update").Inc()
	s.invalidateStats(ctx, owner.ID)
	return updated, nil
}

func (s *Service) DeleteBook(ctx context.Context, owner auth.Owner, id uuid.UUID) (model.DeletedBook, error) {
	deleted, err := s.repo.DeleteBook(ctx, owner.ID, id)
	if err != nil {
		return model.DeletedBook{}, err
	}
	metrics.BookMutations.WithLabelValues("delete").Inc()
	s.invalidateStats(ctx, owner.ID)
	return deleted, nil
}

// timestamp matches the microsecond precision of timestamptz.
func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *Service) invalidateStats(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn("stats cache invalidate", zap.String("owner", ownerID), zap.Error(err))
	}
}

// notifyBookAdded does not wait for delivery and never reports failure to the caller.
func (s *Service) notifyBookAdded(owner auth.Owner, book model.Book) {
	event := kafka.BookAddedEvent{
		BookID:    book.ID.String(),
		OwnerID:   owner.ID,
		Email:     owner.Email,
		Name:      owner.Name,
		Title:     book.Title,
		Timestamp: book.CreatedAt,
	}
	go func() {
		if err := s.notifier.NotifyBookAdded(context.Background(), event); err != nil {
			metrics.NotificationsFailed.WithLabelValues("submit").Inc()
			s.log.Error("notify book added",
				zap.String("book_id", event.BookID),
				zap.String("owner", event.OwnerID),
				zap.Error(err))
		}
	}()
}
