package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// GroupsQuery holds the query parameters of the grouping endpoints.
type GroupsQuery struct {
	By string `json:"by" validate:"omitempty,oneof=publicationYear rating"`
}

// ISBNCheck is the payload of the identifier check endpoint.
type ISBNCheck struct {
	ISBN  string `json:"isbn"`
	Valid bool   `json:"valid"`
}

// groupFieldFromQuery reads and checks the `by` query parameter. The
// configured default applies when it is missing.
func (api *APIHandler) groupFieldFromQuery(r *http.Request) (GroupField, error) {
	q := GroupsQuery{By: r.URL.Query().Get("by")}
	if err := api.rules.Check(q); err != nil {
		return "", err
	}
	if q.By == "" {
		q.By = api.config.Catalog.DefaultGroupBy
	}
	field, err := ParseGroupField(q.By)
	if err != nil {
		return "", FieldErrors{"by": err.Error()}
	}
	return field, nil
}

// GetBookGroups godoc
//
//	@Summary	Group books by publication year or rating
//	@Tags		catalog
//	@Produce	json
//	@Param		by	query		string	false	"publicationYear (default) or rating"
//	@Success	200	{object}	APIResponse
//	@Failure	400	{object}	APIError
//	@Router		/v1/catalog/groups [get]
func (api *APIHandler) GetBookGroups(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	field, err := api.groupFieldFromQuery(r)
	if err != nil {
		api.sendError(r.Context(), w, http.StatusBadRequest, "invalid group field", err, err)
		return
	}
	view, err := api.bookService.Groups(r.Context(), field)
	if err != nil {
		api.sendError(r.Context(), w, statusFromError(err), "failed to group books", EmptyData, err, zap.String("group.field", string(field)))
		return
	}
	total := len(view.Groups)
	api.sendResponse(r.Context(), w, http.StatusOK, "Books grouped successfully.", &total, view)
}

// GetRecommendation godoc
//
//	@Summary	Recommend a good book
//	@Tags		catalog
//	@Produce	json
//	@Success	200	{object}	APIResponse
//	@Router		/v1/catalog/recommendation [get]
func (api *APIHandler) GetRecommendation(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	book, ok, err := api.bookService.Recommend(r.Context())
	if err != nil {
		api.sendError(r.Context(), w, statusFromError(err), "failed to recommend a book", EmptyData, err)
		return
	}
	observeRecommendation(ok)
	if !ok {
		api.sendResponse(r.Context(), w, http.StatusOK, "No book to recommend.", nil, nil)
		return
	}
	api.logger.Info("success to recommend book", zap.String("book.id", book.ID), zap.String("request.id", GetValueFromContext(r.Context(), RequestIDContextKey)))
	api.sendResponse(r.Context(), w, http.StatusOK, "Book recommended successfully.", nil, book)
}

// GetCatalog godoc
//
//	@Summary	Fetch the whole catalog view
//	@Tags		catalog
//	@Produce	json
//	@Param		by	query		string	false	"publicationYear (default) or rating"
//	@Success	200	{object}	APIResponse
//	@Failure	400	{object}	APIError
//	@Router		/v1/catalog [get]
func (api *APIHandler) GetCatalog(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	field, err := api.groupFieldFromQuery(r)
	if err != nil {
		api.sendError(r.Context(), w, http.StatusBadRequest, "invalid group field", err, err)
		return
	}
	view, err := api.bookService.Catalog(r.Context(), field)
	if err != nil {
		api.sendError(r.Context(), w, statusFromError(err), "failed to build the catalog", EmptyData, err, zap.String("group.field", string(field)))
		return
	}
	observeRecommendation(view.Recommended != nil)
	api.sendResponse(r.Context(), w, http.StatusOK, "Catalog fetched successfully.", &view.Total, view)
}

// CheckISBN godoc
//
//	@Summary	Check an ISBN-10 or ISBN-13 checksum
//	@Tags		catalog
//	@Produce	json
//	@Param		isbn	path		string	true	"identifier to check"
//	@Success	200		{object}	APIResponse
//	@Router		/v1/isbn/{isbn} [get]
func (api *APIHandler) CheckISBN(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	isbn := ps.ByName("isbn")
	api.sendResponse(r.Context(), w, http.StatusOK, "ISBN checked.", nil, ISBNCheck{ISBN: isbn, Valid: ValidateISBN(isbn)})
}
