package repository

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Astemirdum/booktracker/books/internal/errs"
	"github.com/Astemirdum/booktracker/books/internal/model"
)

type Repository interface {
	ListBooks(ctx context.Context, ownerID string, q model.ListBooksQuery) ([]model.Book, int, error)
	GetBook(ctx context.Context, ownerID string, id uuid.UUID) (model.Book, error)
	ExistsByTitleAuthor(ctx context.Context, ownerID, title, author string, excludeID uuid.UUID) (bool, error)
	CreateBook(ctx context.Context, book model.Book) (model.Book, error)
	UpdateBook(ctx context.Context, book model.Book) (model.Book, error)
	DeleteBook(ctx context.Context, ownerID string, id uuid.UUID) (model.DeletedBook, error)
}

type repository struct {
	db  *pgxpool.Pool
	log *zap.Logger
}

func NewRepository(db *pgxpool.Pool, log *zap.Logger) *repository {
	return &repository{
		db:  db,
		log: log.Named("repo"),
	}
}

const booksTableName = `books`

var (
	qb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	bookColumns = []string{
		"id", "owner_id", "title", "author", "genre", "year",
		"status", "rating", "notes", "created_at", "updated_at",
	}
	returningBook = "RETURNING " + strings.Join(bookColumns, ", ")

	// sortColumns maps the public sortBy values to columns; nothing else reaches ORDER BY.
	sortColumns = map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"title":     "title",
		"author":    "author",
		"genre":     "genre",
		"year":      "year",
		"status":    "status",
		"rating":    "rating",
	}
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func listFilter(ownerID string, q model.ListBooksQuery) sq.And {
	where := sq.And{sq.Eq{"owner_id": ownerID}}
	if search := strings.TrimSpace(q.Search); search != "" {
		p := containsPattern(search)
		where = append(where, sq.Or{
			sq.ILike{"title": p},
			sq.ILike{"author": p},
			sq.ILike{"genre": p},
		})
	}
	if genre := strings.TrimSpace(q.Genre); genre != "" {
		where = append(where, sq.ILike{"genre": containsPattern(genre)})
	}
	if q.Status != "" {
		where = append(where, sq.Eq{"status": q.Status})
	}
	return where
}

func orderBy(q model.ListBooksQuery) (string, string, error) {
	col, ok := sortColumns[q.SortBy]
	if !ok {
		return "", "", fmt.Errorf("unsupported sort field %q", q.SortBy)
	}
	// missing ratings sort lowest in both directions
	if strings.EqualFold(q.SortOrder, "asc") {
		return col + " ASC NULLS FIRST", "id ASC", nil
	}
	return col + " DESC NULLS LAST", "id DESC", nil
}

func listBooksQuery(ownerID string, q model.ListBooksQuery) (string, []interface{}, error) {
	primary, tiebreak, err := orderBy(q)
	if err != nil {
		return "", nil, err
	}
	return qb.Select(bookColumns...).
		From(booksTableName).
		Where(listFilter(ownerID, q)).
		OrderBy(primary, tiebreak).
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset())).
		ToSql()
}

func countBooksQuery(ownerID string, q model.ListBooksQuery) (string, []interface{}, error) {
	return qb.Select("count(*)").
		From(booksTableName).
		Where(listFilter(ownerID, q)).
		ToSql()
}

func (r *repository) ListBooks(ctx context.Context, ownerID string, q model.ListBooksQuery) ([]model.Book, int, error) {
	query, args, err := listBooksQuery(ownerID, q)
	if err != nil {
		return nil, 0, err
	}
	r.log.Debug("ListBooks", zap.String("query", query), zap.Any("args", args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "list books")
	}
	books, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return nil, 0, fmt.Errorf("pgx.CollectRows: %w", err)
	}

	query, args, err = countBooksQuery(ownerID, q)
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err = r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count books")
	}
	return books, total, nil
}

func (r *repository) GetBook(ctx context.Context, ownerID string, id uuid.UUID) (model.Book, error) {
	query, args, err := qb.Select(bookColumns...).
		From(booksTableName).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		Limit(1).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.collectBook(ctx, query, args)
}

func (r *repository) ExistsByTitleAuthor(ctx context.Context, ownerID, title, author string, excludeID uuid.UUID) (bool, error) {
	sub := qb.Select("1").
		From(booksTableName).
		Where(sq.Eq{"owner_id": ownerID}).
		Where("lower(title) = lower(?)", title).
		Where("lower(author) = lower(?)", author)
	if excludeID != uuid.Nil {
		sub = sub.Where(sq.NotEq{"id": excludeID})
	}
	subQuery, args, err := sub.ToSql()
	if err != nil {
		return false, err
	}
	var exists bool
	if err = r.db.QueryRow(ctx, "SELECT EXISTS ("+subQuery+")", args...).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "exists by title author")
	}
	return exists, nil
}

func (r *repository) CreateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Insert(booksTableName).
		Columns(bookColumns...).
		Values(book.ID, book.OwnerID, book.Title, book.Author, book.Genre, book.Year,
			book.Status, book.Rating, book.Notes, book.CreatedAt, book.UpdatedAt).
		Suffix(returningBook).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.collectBook(ctx, query, args)
}

func (r *repository) UpdateBook(ctx context.Context, book model.Book) (model.Book, error) {
	query, args, err := qb.Update(booksTableName).
		SetMap(map[string]interface{}{
			"title":      book.Title,
			"author":     book.Author,
			"genre":      book.Genre,
			"year":       book.Year,
			"status":     book.Status,
			"rating":     book.Rating,
			"notes":      book.Notes,
			"updated_at": book.UpdatedAt,
		}).
		Where(sq.Eq{"id": book.ID, "owner_id": book.OwnerID}).
		Suffix(returningBook).
		ToSql()
	if err != nil {
		return model.Book{}, err
	}
	return r.collectBook(ctx, query, args)
}

func (r *repository) DeleteBook(ctx context.Context, ownerID string, id uuid.UUID) (model.DeletedBook, error) {
	query, args, err := qb.Delete(booksTableName).
		Where(sq.Eq{"id": id, "owner_id": ownerID}).
		Suffix("RETURNING id, title").
		ToSql()
	if err != nil {
		return model.DeletedBook{}, err
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.DeletedBook{}, errors.Wrap(err, "delete book")
	}
	deleted, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.DeletedBook])
	if err != nil {
		return model.DeletedBook{}, mapError(err)
	}
	return deleted, nil
}

func (r *repository) collectBook(ctx context.Context, query string, args []interface{}) (model.Book, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return model.Book{}, mapError(err)
	}
	book, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Book])
	if err != nil {
		return model.Book{}, mapError(err)
	}
	return book, nil
}

func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return errs.ErrConflict
	}
	return err
}
