package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/booktracker/books/internal/errs"
	"github.com/Astemirdum/booktracker/books/internal/model"
	"github.com/Astemirdum/booktracker/pkg/auth"
)

func owner(c echo.Context) (auth.Owner, error) {
	o, err := auth.GetOwner(c.Request().Context())
	if err != nil {
		return auth.Owner{}, echo.NewHTTPError(http.StatusUnauthorized, "Not authorized").SetInternal(err)
	}
	return o, nil
}

// bookID treats a malformed id like an unknown one.
func bookID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errs.ErrNotFound
	}
	return id, nil
}

func bindListQuery(c echo.Context) (model.ListBooksQuery, error) {
	q := model.NewListBooksQuery()
	err := echo.QueryParamsBinder(c).
		Int("page", &q.Page).
		Int("limit", &q.Limit).
		String("search", &q.Search).
		String("genre", &q.Genre).
		String("status", (*string)(&q.Status)).
		String("sortBy", &q.SortBy).
		String("sortOrder", &q.SortOrder).
		BindError()
	if err != nil {
		var be *echo.BindingError
		if errors.As(err, &be) {
			return q, errs.NewValidationError(be.Field, "must be an integer")
		}
		return q, err
	}
	return q, nil
}

// ListBooks godoc
// @Summary List the caller's books
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param page query int false "page number" default(1)
// @Param limit query int false "page size" default(10)
// @Param search query string false "substring of title, author or genre"
// @Param genre query string false "genre substring"
// @Param status query string false "Reading, Completed or Wishlist"
// @Param sortBy query string false "sort field" default(createdAt)
// @Param sortOrder query string false "asc or desc" default(desc)
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Router /books [get]
func (h *Handler) ListBooks(c echo.Context) error {
	o, err := owner(c)
	if err != nil {
		return err
	}
	q, err := bindListQuery(c)
	if err != nil {
		return err
	}
	res, err := h.bookSvc.ListBooks(c.Request().Context(), o, q)
	if err != nil {
		return failure(err, "Server error while fetching books")
	}
	return c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       res.Items,
		Pagination: &res.Pagination,
	})
}

// GetBook godoc
// @Summary Get one book
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param id path string true "book id"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /books/{id} [get]
func (h *Handler) GetBook(c echo.Context) error {
	o, err := owner(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	book, err := h.bookSvc.GetBook(c.Request().Context(), o, id)
	if err != nil {
		return failure(err, "Server error while fetching book")
	}
	return c.JSON(http.StatusOK, Response{Success: true, Data: book})
}

// CreateBook godoc
// @Summary Add a book
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param book body model.CreateBookRequest true "new book"
// @Success 201 {object} Response
// @Failure 400 {object} Response
// @Router /books [post]
func (h *Handler) CreateBook(c echo.Context) error {
	o, err := owner(c)
	if err != nil {
		return err
	}
	var req model.CreateBookRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	book, err := h.bookSvc.CreateBook(c.Request().Context(), o, req)
	if err != nil {
		return failure(err, "Server error while adding book")
	}
	return c.JSON(http.StatusCreated, Response{
		Success: true,
		Message: "Book added successfully",
		Data:    book,
	})
}

// UpdateBook godoc
// @Summary Partially update a book
// @Tags books
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "book id"
// @Param book body model.UpdateBookRequest true "fields to change"
// @Success 200 {object} Response
// @Failure 400 {object} Response
// @Failure 404 {object} Response
// @Router /books/{id} [put]
func (h *Handler) UpdateBook(c echo.Context) error {
	o, err := owner(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	var req model.UpdateBookRequest
	if err = c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body").SetInternal(err)
	}
	book, err := h.bookSvc.UpdateBook(c.Request().Context(), o, id, req)
	if err != nil {
		return failure(err, "Server error while updating book")
	}
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Book updated successfully",
		Data:    book,
	})
}

// DeleteBook godoc
// @Summary Delete a book
// @Tags books
// @Security BearerAuth
// @Produce json
// @Param id path string true "book id"
// @Success 200 {object} Response
// @Failure 404 {object} Response
// @Router /books/{id} [delete]
func (h *Handler) DeleteBook(c echo.Context) error {
	o, err := owner(c)
	if err != nil {
		return err
	}
	id, err := bookID(c)
	if err != nil {
		return err
	}
	deleted, err := h.bookSvc.DeleteBook(c.Request().Context(), o, id)
	if err != nil {
		return failure(err, "Server error while deleting book")
	}
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Message: "Book deleted successfully",
		Data:    deleted,
	})
}
