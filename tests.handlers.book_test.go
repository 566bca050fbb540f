package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestAPIHandler builds an api handler on top of the given storage.
func newTestAPIHandler(storage BookStorage, validID bool) *APIHandler {
	clock := NewMockClocker()
	bs := NewBookService(zap.NewNop(), &Config{}, clock, NewMockUIDHandler("123", true), &MockRandomizer{}, storage, nil)
	return NewAPIHandler(zap.NewNop(), nil, &Statistics{started: clock.Now()}, clock, NewMockUIDHandler("123", validID), bs)
}

// decodeBody reads the response body into a generic map.
func decodeBody(t *testing.T, res *http.Response) map[string]interface{} {
	t.Helper()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	m := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(data, &m), string(data))
	return m
}

// TestStatusHandler ensures api handler can provides its status.
func TestStatusHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	api := newTestAPIHandler(nil, true)
	api.Status(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json; charset=UTF-8", res.Header.Get("Content-Type"))
	m := decodeBody(t, res)

	_, ok := m["requestid"]
	assert.True(t, ok)
	assert.Equal(t, "up & running since 0 mins", m["status"])
	assert.Equal(t, "Hello. Book catalog api is available. Enjoy :)", m["message"])
}

func TestIndexHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	newTestAPIHandler(nil, true).Index(w, req, httprouter.Params{})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/status", w.Header().Get("Location"))
}

// TestCreateBookHandler ensures api handler can create a book.
//
//nolint:funlen
func TestCreateBookHandler(t *testing.T) {
	var stored []Book
	mockRepo := &MockBookStorage{
		AddFunc: func(ctx context.Context, id string, book Book) error {
			stored = append(stored, book)
			return nil
		},
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return stored, nil
		},
	}
	api := newTestAPIHandler(mockRepo, true)

	t.Run("should pass: valid payload", func(t *testing.T) {
		body, err := json.Marshal(BookInput{Name: "Book", Authors: "A, B", PublicationYear: "2001", Rating: "8", ISBN: "0306406152"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/v1/books", bytes.NewReader(body))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		m := decodeBody(t, res)
		assert.Equal(t, "Book created successfully.", m["message"])
		assert.Equal(t, float64(1), m["total"])
		data, ok := m["data"].(map[string]interface{})
		require.True(t, ok)
		book, ok := data["book"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "b:123", book["id"])
		assert.Equal(t, float64(2001), book["publicationYear"])
		assert.Equal(t, []interface{}{"A", "B"}, book["authors"])
	})

	t.Run("should fail: invalid fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{"name":"","authors":"A","publicationYear":"1799","rating":"11"}`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		m := decodeBody(t, res)
		assert.Equal(t, "failed to create the book", m["message"])
		data, ok := m["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, MsgNameRequired, data["name"])
		assert.Equal(t, MsgYearTooOld, data["publicationYear"])
		assert.Equal(t, MsgRatingOutOfRange, data["rating"])
	})

	t.Run("should fail: malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{"name":`))
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should fail: empty body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/books", nil)
		w := httptest.NewRecorder()
		api.CreateBook(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should fail: storage unavailable", func(t *testing.T) {
		failing := newTestAPIHandler(&MockBookStorage{
			AddFunc: func(ctx context.Context, id string, book Book) error {
				return ErrStorageUnavailable
			},
		}, true)
		req := httptest.NewRequest(http.MethodPost, "/v1/books", strings.NewReader(`{"name":"Book","authors":"A"}`))
		w := httptest.NewRecorder()
		failing.CreateBook(w, req, httprouter.Params{})
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestGetAllBooksHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return []Book{{ID: "b:1", Name: "One", Authors: []string{"A"}}, {ID: "b:2", Name: "Two", Authors: []string{"B"}}}, nil
		},
	}
	api := newTestAPIHandler(mockRepo, true)
	req := httptest.NewRequest(http.MethodGet, "/v1/books", nil)
	w := httptest.NewRecorder()
	api.GetAllBooks(w, req, httprouter.Params{})
	res := w.Result()
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	m := decodeBody(t, res)
	assert.Equal(t, float64(2), m["total"])
	data, ok := m["data"].([]interface{})
	require.True(t, ok)
	assert.Len(t, data, 2)
}

func TestGetOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			if id == "b:1" {
				return Book{ID: "b:1", Name: "One", Authors: []string{"A"}}, nil
			}
			return Book{}, ErrBookNotFound
		},
	}

	testCases := []struct {
		name    string
		id      string
		validID bool
		status  int
		message string
	}{
		{"existing book", "b:1", true, http.StatusOK, "Book fetched successfully."},
		{"missing book", "b:2", true, http.StatusNotFound, "book does not exist"},
		{"invalid id", "1", false, http.StatusBadRequest, "book id provided is not valid"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestAPIHandler(mockRepo, tc.validID)
			req := httptest.NewRequest(http.MethodGet, "/v1/books/"+tc.id, nil)
			w := httptest.NewRecorder()
			api.GetOneBook(w, req, httprouter.Params{{Key: "id", Value: tc.id}})
			res := w.Result()
			defer res.Body.Close()
			assert.Equal(t, tc.status, res.StatusCode)
			assert.Equal(t, tc.message, decodeBody(t, res)["message"])
		})
	}
}

func TestDeleteOneBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			if id == "b:1" {
				return Book{ID: "b:1", Name: "One", Authors: []string{"A"}}, nil
			}
			return Book{}, ErrBookNotFound
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			return nil
		},
	}
	api := newTestAPIHandler(mockRepo, true)

	req := httptest.NewRequest(http.MethodDelete, "/v1/books/b:1", nil)
	w := httptest.NewRecorder()
	api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "b:1"}})
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/books/b:2", nil)
	w = httptest.NewRecorder()
	api.DeleteOneBook(w, req, httprouter.Params{{Key: "id", Value: "b:2"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateBookHandler(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			if id == "b:1" {
				return Book{ID: "b:1", Name: "One", Authors: []string{"A"}, CreatedAt: "2023-07-01 00:00:00 +0000 UTC"}, nil
			}
			return Book{}, ErrBookNotFound
		},
		UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
			return book, nil
		},
	}
	api := newTestAPIHandler(mockRepo, true)

	t.Run("should pass: valid payload", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/books/b:1", strings.NewReader(`{"name":"Renamed","authors":"A","rating":"4"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "b:1"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusOK, res.StatusCode)
		m := decodeBody(t, res)
		data, ok := m["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "b:1", data["id"])
		assert.Equal(t, "Renamed", data["name"])
		assert.Equal(t, "2023-07-01 00:00:00 +0000 UTC", data["createdAt"])
		assert.Equal(t, "2023-07-02 00:00:00 +0000 UTC", data["updatedAt"])
	})

	t.Run("should fail: missing book", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/books/b:2", strings.NewReader(`{"name":"Renamed","authors":"A"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "b:2"}})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("should fail: invalid fields", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPut, "/v1/books/b:1", strings.NewReader(`{"name":"Renamed","authors":"","isbn":"123"}`))
		w := httptest.NewRecorder()
		api.UpdateBook(w, req, httprouter.Params{{Key: "id", Value: "b:1"}})
		res := w.Result()
		defer res.Body.Close()
		assert.Equal(t, http.StatusBadRequest, res.StatusCode)
		data, ok := decodeBody(t, res)["data"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, MsgAuthorsRequired, data["authors"])
		assert.Equal(t, MsgISBNInvalid, data["isbn"])
	})
}

// TestCancelledRequest ensures a timed out request gets 504 and no body.
func TestCancelledRequest(t *testing.T) {
	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return []Book{}, nil
		},
	}
	api := newTestAPIHandler(mockRepo, true)
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	req := httptest.NewRequest(http.MethodGet, "/v1/books", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	api.GetAllBooks(w, req, httprouter.Params{})
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Empty(t, w.Body.String())
}
