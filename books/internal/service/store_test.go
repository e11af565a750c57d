package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Astemirdum/booktracker/books/internal/errs"
	"github.com/Astemirdum/booktracker/books/internal/model"
	"github.com/Astemirdum/booktracker/books/internal/repository"
	"github.com/Astemirdum/booktracker/pkg/kafka"
)

// memStore is an in-memory Repository and StatsRepository keyed by owner.
type memStore struct {
	mu    sync.Mutex
	books map[uuid.UUID]model.Book
	// failWith makes every stats query fail
	failWith error
}

var (
	_ repository.Repository      = (*memStore)(nil)
	_ repository.StatsRepository = (*memStore)(nil)
)

func newMemStore(books ...model.Book) *memStore {
	s := &memStore{books: map[uuid.UUID]model.Book{}}
	for _, b := range books {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		s.books[b.ID] = b
	}
	return s
}

func (s *memStore) owned(ownerID string) []model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Book, 0)
	for _, b := range s.books {
		if b.OwnerID == ownerID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *memStore) ListBooks(_ context.Context, ownerID string, q model.ListBooksQuery) ([]model.Book, int, error) {
	var match []model.Book
	for _, b := range s.owned(ownerID) {
		if q.Status != "" && b.Status != q.Status {
			continue
		}
		if q.Genre != "" && !strings.Contains(strings.ToLower(b.Genre), strings.ToLower(q.Genre)) {
			continue
		}
		match = append(match, b)
	}
	from := q.Offset()
	if from > len(match) {
		from = len(match)
	}
	to := from + q.Limit
	if to > len(match) {
		to = len(match)
	}
	return match[from:to], len(match), nil
}

func (s *memStore) GetBook(_ context.Context, ownerID string, id uuid.UUID) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok || b.OwnerID != ownerID {
		return model.Book{}, errs.ErrNotFound
	}
	return b, nil
}

func (s *memStore) ExistsByTitleAuthor(_ context.Context, ownerID, title, author string, excludeID uuid.UUID) (bool, error) {
	for _, b := range s.owned(ownerID) {
		if b.ID != excludeID && strings.EqualFold(b.Title, title) && strings.EqualFold(b.Author, author) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateBook(_ context.Context, book model.Book) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[book.ID] = book
	return book, nil
}

func (s *memStore) UpdateBook(_ context.Context, book model.Book) (model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[book.ID]
	if !ok || b.OwnerID != book.OwnerID {
		return model.Book{}, errs.ErrNotFound
	}
	s.books[book.ID] = book
	return book, nil
}

func (s *memStore) DeleteBook(_ context.Context, ownerID string, id uuid.UUID) (model.DeletedBook, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok || b.OwnerID != ownerID {
		return model.DeletedBook{}, errs.ErrNotFound
	}
	delete(s.books, id)
	return model.DeletedBook{ID: b.ID, Title: b.Title}, nil
}

func (s *memStore) CountBooks(_ context.Context, ownerID string) (int, error) {
	if s.failWith != nil {
		return 0, s.failWith
	}
	return len(s.owned(ownerID)), nil
}

func (s *memStore) CountByStatus(_ context.Context, ownerID string) ([]repository.StatusCount, error) {
	counts := map[model.Status]int{}
	for _, b := range s.owned(ownerID) {
		counts[b.Status]++
	}
	out := make([]repository.StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, repository.StatusCount{Status: st, Count: n})
	}
	return out, nil
}

type keyCount struct {
	key   string
	count int
}

func rank(counts map[string]int, limit int) []keyCount {
	out := make([]keyCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, keyCount{k, n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].count != out[j].count {
			return out[i].count > out[j].count
		}
		return out[i].key < out[j].key
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) TopGenres(_ context.Context, ownerID string, limit int) ([]model.GenreCount, error) {
	counts := map[string]int{}
	for _, b := range s.owned(ownerID) {
		counts[b.Genre]++
	}
	var out []model.GenreCount
	for _, kc := range rank(counts, limit) {
		out = append(out, model.GenreCount{Genre: kc.key, Count: kc.count})
	}
	return out, nil
}

func (s *memStore) BooksByYear(_ context.Context, ownerID string, from, to int) ([]model.YearCount, error) {
	counts := map[int]int{}
	for _, b := range s.owned(ownerID) {
		if b.Year >= from && b.Year <= to {
			counts[b.Year]++
		}
	}
	var out []model.YearCount
	for y, n := range counts {
		out = append(out, model.YearCount{Year: y, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out, nil
}

func (s *memStore) RecentBooks(_ context.Context, ownerID string, limit int) ([]model.RecentBook, error) {
	var out []model.RecentBook
	for _, b := range s.owned(ownerID) {
		if len(out) == limit {
			break
		}
		out = append(out, model.RecentBook{ID: b.ID, Title: b.Title, Author: b.Author, Status: b.Status, CreatedAt: b.CreatedAt})
	}
	return out, nil
}

func (s *memStore) RatingSummary(_ context.Context, ownerID string) (repository.RatingSummary, error) {
	var sum, n int
	for _, b := range s.owned(ownerID) {
		if b.Rating != nil {
			sum += *b.Rating
			n++
		}
	}
	if n == 0 {
		return repository.RatingSummary{}, nil
	}
	return repository.RatingSummary{Average: float64(sum) / float64(n), Rated: n}, nil
}

func (s *memStore) RatingDistribution(_ context.Context, ownerID string) ([]model.RatingCount, error) {
	counts := map[int]int{}
	for _, b := range s.owned(ownerID) {
		if b.Rating != nil {
			counts[*b.Rating]++
		}
	}
	var out []model.RatingCount
	for r, n := range counts {
		out = append(out, model.RatingCount{Rating: r, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Rating < out[j].Rating })
	return out, nil
}

func (s *memStore) CountAddedSince(_ context.Context, ownerID string, since time.Time) (int, error) {
	n := 0
	for _, b := range s.owned(ownerID) {
		if !b.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CountCompletedSince(_ context.Context, ownerID string, since time.Time) (int, error) {
	n := 0
	for _, b := range s.owned(ownerID) {
		if b.Status == model.StatusCompleted && !b.UpdatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) MonthlyActivity(_ context.Context, ownerID string, limit int) ([]repository.MonthCount, error) {
	groups := map[[2]int]*repository.MonthCount{}
	for _, b := range s.owned(ownerID) {
		at := b.CreatedAt.UTC()
		key := [2]int{at.Year(), int(at.Month())}
		g, ok := groups[key]
		if !ok {
			g = &repository.MonthCount{Year: key[0], Month: key[1]}
			groups[key] = g
		}
		g.Count++
		if b.Status == model.StatusCompleted {
			g.Completed++
		}
	}
	out := make([]repository.MonthCount, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) TopAuthors(_ context.Context, ownerID string, limit int) ([]repository.AuthorCount, error) {
	counts, completed := map[string]int{}, map[string]int{}
	for _, b := range s.owned(ownerID) {
		counts[b.Author]++
		if b.Status == model.StatusCompleted {
			completed[b.Author]++
		}
	}
	var out []repository.AuthorCount
	for _, kc := range rank(counts, limit) {
		out = append(out, repository.AuthorCount{Author: kc.key, Count: kc.count, Completed: completed[kc.key]})
	}
	return out, nil
}

func (s *memStore) GenreRatings(_ context.Context, ownerID string, limit int) ([]repository.GenreRating, error) {
	counts, sums, rated := map[string]int{}, map[string]int{}, map[string]int{}
	for _, b := range s.owned(ownerID) {
		counts[b.Genre]++
		if b.Rating != nil {
			sums[b.Genre] += *b.Rating
			rated[b.Genre]++
		}
	}
	var out []repository.GenreRating
	for _, kc := range rank(counts, limit) {
		g := repository.GenreRating{Genre: kc.key, Count: kc.count}
		if rated[kc.key] > 0 {
			avg := float64(sums[kc.key]) / float64(rated[kc.key])
			g.AvgRating = &avg
		}
		out = append(out, g)
	}
	return out, nil
}

type memCache struct {
	mu            sync.Mutex
	stats         map[string]model.Stats
	invalidations []string
}

func newMemCache() *memCache {
	return &memCache{stats: map[string]model.Stats{}}
}

func (c *memCache) Get(_ context.Context, ownerID string) (model.Stats, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.stats[ownerID]
	return st, ok, nil
}

func (c *memCache) Set(_ context.Context, ownerID string, stats model.Stats) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats[ownerID] = stats
	return nil
}

func (c *memCache) Invalidate(_ context.Context, ownerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.stats, ownerID)
	c.invalidations = append(c.invalidations, ownerID)
	return nil
}

type notification struct {
	event  kafka.BookAddedEvent
	ctxErr error
}

type chanNotifier struct {
	ch  chan notification
	err error
}

func newChanNotifier(err error) *chanNotifier {
	return &chanNotifier{ch: make(chan notification, 8), err: err}
}

func (n *chanNotifier) NotifyBookAdded(ctx context.Context, event kafka.BookAddedEvent) error {
	n.ch <- notification{event: event, ctxErr: ctx.Err()}
	return n.err
}
