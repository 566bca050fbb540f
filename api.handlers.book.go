package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// CreatedBook is the payload sent back after a book creation.
type CreatedBook struct {
	Book  Book   `json:"book"`
	Books []Book `json:"books,omitempty"`
}

// Index provides same details like `Status` handler by redirecting the request.
func (api *APIHandler) Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/status", http.StatusSeeOther)
}

// Status provides basics details about the application to the public users.
func (api *APIHandler) Status(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	if err := json.NewEncoder(w).Encode(
		StatusResponse{
			RequestID: requestID,
			Status:    fmt.Sprintf("up & running since %.0f mins", api.clock.Now().Sub(api.stats.started).Minutes()),
			Message:   "Hello. Book catalog api is available. Enjoy :)",
		},
	); err != nil {
		api.logger.Error("failed to send status response", zap.String("request.id", requestID), zap.Error(err))
	}
}

// StatusResponse is the data model sent when status endpoint is called.
type StatusResponse struct {
	RequestID string `json:"requestid"`
	Status    string `json:"status"`
	Message   string `json:"message"`
}

// CreateBook godoc
//
//	@Summary	Validate and add a new book to the catalog
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		book	body		BookInput	true	"raw book form values"
//	@Success	201		{object}	APIResponse
//	@Failure	400		{object}	APIError
//	@Router		/v1/books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input BookInput
	if err := DecodeBookInputRequestBody(w, r, &input); err != nil {
		api.sendError(r.Context(), w, http.StatusBadRequest, "failed to create the book", input, err)
		return
	}

	book, books, err := api.bookService.Add(r.Context(), input)
	if err != nil {
		var ferrs FieldErrors
		if errors.As(err, &ferrs) {
			observeValidationFailures(ferrs)
			api.sendError(r.Context(), w, http.StatusBadRequest, "failed to create the book", ferrs, err)
			return
		}
		api.sendError(r.Context(), w, statusFromError(err), "failed to create the book", EmptyData, err)
		return
	}

	api.logger.Info("success to create book", zap.String("book.id", book.ID), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	var total *int
	if books != nil {
		n := len(books)
		total = &n
	}
	api.sendResponse(r.Context(), w, http.StatusCreated, "Book created successfully.", total, CreatedBook{Book: book, Books: books})
}

// GetAllBooks godoc
//
//	@Summary	List all books of the catalog
//	@Tags		books
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/v1/books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	// listing may take longer than other calls so the write deadline is extended.
	if d := api.config.Server.LongRequestWriteTimeout; d > 0 {
		rc := http.NewResponseController(w)
		if err := rc.SetWriteDeadline(time.Now().Add(d)); err != nil && !errors.Is(err, http.ErrNotSupported) {
			api.logger.Error("http: failed to update the write deadline", zap.String("request.id", requestID), zap.Error(err))
		}
	}

	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.sendError(r.Context(), w, statusFromError(err), "failed to get all books", []Book{}, err)
		return
	}
	api.logger.Info("success to get all books", zap.String("request.id", requestID))
	total := len(books)
	api.sendResponse(r.Context(), w, http.StatusOK, "All books fetched successfully.", &total, books)
}

// GetOneBook godoc
//
//	@Summary	Fetch a single book
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"book id"
//	@Success	200	{object}	APIResponse
//	@Failure	404	{object}	APIError
//	@Router		/v1/books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if ok := api.idsHandler.IsValid(id, BookIDPrefix); !ok {
		api.sendError(r.Context(), w, http.StatusBadRequest, "book id provided is not valid", EmptyData, nil, zap.String("book.id", id))
		return
	}
	book, err := api.bookService.GetOne(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.sendError(r.Context(), w, http.StatusNotFound, "book does not exist", EmptyData, err, zap.String("book.id", id))
		return
	}
	if err != nil {
		api.sendError(r.Context(), w, statusFromError(err), "failed to get the book", EmptyData, err, zap.String("book.id", id))
		return
	}
	api.logger.Info("success to get book", zap.String("book.id", id), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	api.sendResponse(r.Context(), w, http.StatusOK, "Book fetched successfully.", nil, book)
}

// DeleteOneBook godoc
//
//	@Summary	Remove a book from the catalog
//	@Tags		books
//	@Produce	json
//	@Param		id	path		string	true	"book id"
//	@Success	200	{object}	APIResponse
//	@Failure	404	{object}	APIError
//	@Router		/v1/books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if ok := api.idsHandler.IsValid(id, BookIDPrefix); !ok {
		api.sendError(r.Context(), w, http.StatusBadRequest, "book id provided is not valid", EmptyData, nil, zap.String("book.id", id))
		return
	}
	book, err := api.bookService.Delete(r.Context(), id)
	if errors.Is(err, ErrBookNotFound) {
		api.sendError(r.Context(), w, http.StatusNotFound, "book does not exist", EmptyData, err, zap.String("book.id", id))
		return
	}
	if err != nil {
		api.sendError(r.Context(), w, statusFromError(err), "failed to delete the book", EmptyData, err, zap.String("book.id", id))
		return
	}
	api.logger.Info("success to delete book", zap.String("book.id", id), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	api.sendResponse(r.Context(), w, http.StatusOK, "Book deleted successfully.", nil, book)
}

// UpdateBook godoc
//
//	@Summary	Validate and replace an existing book
//	@Tags		books
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string		true	"book id"
//	@Param		book	body		BookInput	true	"raw book form values"
//	@Success	200		{object}	APIResponse
//	@Failure	400		{object}	APIError
//	@Failure	404		{object}	APIError
//	@Router		/v1/books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")
	if ok := api.idsHandler.IsValid(id, BookIDPrefix); !ok {
		api.sendError(r.Context(), w, http.StatusBadRequest, "book id provided is not valid", EmptyData, nil, zap.String("book.id", id))
		return
	}

	var input BookInput
	if err := DecodeBookInputRequestBody(w, r, &input); err != nil {
		api.sendError(r.Context(), w, http.StatusBadRequest, "failed to update the book", input, err, zap.String("book.id", id))
		return
	}

	book, err := api.bookService.Update(r.Context(), id, input)
	if err != nil {
		var ferrs FieldErrors
		switch {
		case errors.As(err, &ferrs):
			observeValidationFailures(ferrs)
			api.sendError(r.Context(), w, http.StatusBadRequest, "failed to update the book", ferrs, err, zap.String("book.id", id))
		case errors.Is(err, ErrBookNotFound):
			api.sendError(r.Context(), w, http.StatusNotFound, "book does not exist", EmptyData, err, zap.String("book.id", id))
		default:
			api.sendError(r.Context(), w, statusFromError(err), "failed to update the book", EmptyData, err, zap.String("book.id", id))
		}
		return
	}
	api.logger.Info("success to update book", zap.String("book.id", book.ID), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	api.sendResponse(r.Context(), w, http.StatusOK, "Book updated successfully.", nil, book)
}
