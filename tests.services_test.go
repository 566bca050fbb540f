package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBookService builds a service with predictable clock, ids and randomness.
func newTestBookService(storage BookStorage, queue Queuer) BookServiceProvider {
	return NewBookService(zap.NewNop(), &Config{}, NewMockClocker(), NewMockUIDHandler("123", true), &MockRandomizer{}, storage, queue)
}

// recordingQueue keeps pushed books per queue id.
type recordingQueue struct {
	mu     sync.Mutex
	pushed map[string][]Book
}

func newRecordingQueue() *recordingQueue {
	return &recordingQueue{pushed: map[string][]Book{}}
}

func (rq *recordingQueue) Push(_ context.Context, qid string, book Book) error {
	rq.mu.Lock()
	defer rq.mu.Unlock()
	rq.pushed[qid] = append(rq.pushed[qid], book)
	return nil
}

func (rq *recordingQueue) Pop(ctx context.Context, _ ...string) (string, Book, error) {
	<-ctx.Done()
	return "", Book{}, ctx.Err()
}

func TestBookService_Add(t *testing.T) {
	t.Run("valid input", func(t *testing.T) {
		var stored Book
		mockRepo := &MockBookStorage{
			AddFunc: func(ctx context.Context, id string, book Book) error {
				stored = book
				return nil
			},
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return []Book{stored}, nil
			},
		}
		q := newRecordingQueue()
		bs := newTestBookService(mockRepo, q)
		book, books, err := bs.Add(context.Background(), BookInput{Name: " Book ", Authors: "A, B", Rating: "5"})
		require.NoError(t, err)
		assert.Equal(t, "b:123", book.ID)
		assert.Equal(t, "Book", book.Name)
		assert.Equal(t, "2023-07-02 00:00:00 +0000 UTC", book.CreatedAt)
		assert.Equal(t, book.CreatedAt, book.UpdatedAt)
		assert.Equal(t, []Book{book}, books)
		assert.Equal(t, []Book{book}, q.pushed[CreateQueue])
	})

	t.Run("invalid input never reaches storage", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			AddFunc: func(ctx context.Context, id string, book Book) error {
				t.Fatal("storage must not be called")
				return nil
			},
		}
		bs := newTestBookService(mockRepo, nil)
		_, _, err := bs.Add(context.Background(), BookInput{Name: "", Authors: "A", Rating: "11"})
		var errs FieldErrors
		require.ErrorAs(t, err, &errs)
		assert.Contains(t, errs, "name")
		assert.Contains(t, errs, "rating")
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			AddFunc: func(ctx context.Context, id string, book Book) error {
				return ErrStorageUnavailable
			},
		}
		q := newRecordingQueue()
		bs := newTestBookService(mockRepo, q)
		_, _, err := bs.Add(context.Background(), BookInput{Name: "Book", Authors: "A"})
		assert.True(t, errors.Is(err, ErrStorageUnavailable))
		assert.Empty(t, q.pushed)
	})

	t.Run("refresh failure keeps the created book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			AddFunc: func(ctx context.Context, id string, book Book) error {
				return nil
			},
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, errors.New("timeout")
			},
		}
		bs := newTestBookService(mockRepo, nil)
		book, books, err := bs.Add(context.Background(), BookInput{Name: "Book", Authors: "A"})
		assert.NoError(t, err)
		assert.Equal(t, "b:123", book.ID)
		assert.Nil(t, books)
	})
}

func TestBookService_Update(t *testing.T) {
	existing := Book{
		ID:        "b:1",
		Name:      "Old",
		Authors:   []string{"A"},
		CreatedAt: "2023-07-01 00:00:00 +0000 UTC",
		UpdatedAt: "2023-07-01 00:00:00 +0000 UTC",
	}

	t.Run("valid input", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return existing, nil
			},
			UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
				assert.Equal(t, "b:1", id)
				return book, nil
			},
		}
		q := newRecordingQueue()
		bs := newTestBookService(mockRepo, q)
		book, err := bs.Update(context.Background(), "b:1", BookInput{Name: "New", Authors: "B", PublicationYear: "2001"})
		require.NoError(t, err)
		assert.Equal(t, "b:1", book.ID)
		assert.Equal(t, "New", book.Name)
		assert.Equal(t, existing.CreatedAt, book.CreatedAt)
		assert.Equal(t, "2023-07-02 00:00:00 +0000 UTC", book.UpdatedAt)
		assert.Equal(t, 2001, book.Year())
		assert.Equal(t, []Book{book}, q.pushed[UpdateQueue])
	})

	t.Run("missing book", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return Book{}, ErrBookNotFound
			},
		}
		bs := newTestBookService(mockRepo, nil)
		_, err := bs.Update(context.Background(), "b:1", BookInput{Name: "New", Authors: "B"})
		assert.True(t, errors.Is(err, ErrBookNotFound))
	})

	t.Run("invalid input", func(t *testing.T) {
		mockRepo := &MockBookStorage{
			GetOneFunc: func(ctx context.Context, id string) (Book, error) {
				return existing, nil
			},
		}
		bs := newTestBookService(mockRepo, nil)
		book, err := bs.Update(context.Background(), "b:1", BookInput{Name: "New", Authors: ""})
		var errs FieldErrors
		require.ErrorAs(t, err, &errs)
		assert.Equal(t, MsgAuthorsRequired, errs["authors"])
		assert.Equal(t, existing, book)
	})
}

func TestBookService_Delete(t *testing.T) {
	deleted := false
	mockRepo := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			if deleted {
				return Book{}, ErrBookNotFound
			}
			return Book{ID: id, Name: "Gone"}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			deleted = true
			return nil
		},
	}
	q := newRecordingQueue()
	bs := newTestBookService(mockRepo, q)

	book, err := bs.Delete(context.Background(), "b:1")
	assert.NoError(t, err)
	assert.Equal(t, "Gone", book.Name)
	assert.Equal(t, []Book{{ID: "b:1"}}, q.pushed[DeleteQueue])

	_, err = bs.Delete(context.Background(), "b:1")
	assert.True(t, errors.Is(err, ErrBookNotFound))
}

func TestBookService_Views(t *testing.T) {
	books := []Book{
		{ID: "a", Name: "A", PublicationYear: IntPtr(2015), Rating: 6},
		{ID: "b", Name: "B", PublicationYear: IntPtr(2022), Rating: 9},
		{ID: "c", Name: "C", Rating: 2},
	}
	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return books, nil
		},
	}
	bs := newTestBookService(mockRepo, nil)

	t.Run("groups", func(t *testing.T) {
		view, err := bs.Groups(context.Background(), GroupByYear)
		require.NoError(t, err)
		require.Len(t, view.Groups, 2)
		assert.Equal(t, 2022, view.Groups[0].Key)
		assert.Equal(t, []string{"C"}, namesOf(view.Without))
	})

	t.Run("recommend uses clock year", func(t *testing.T) {
		// 2023 minus 3 years leaves only the 2015 book eligible.
		book, ok, err := bs.Recommend(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "a", book.ID)
	})

	t.Run("catalog", func(t *testing.T) {
		view, err := bs.Catalog(context.Background(), GroupByRating)
		require.NoError(t, err)
		assert.Equal(t, 3, view.Total)
		assert.Len(t, view.Groups, 3)
		require.NotNil(t, view.Recommended)
		assert.Equal(t, "a", view.Recommended.ID)
	})

	t.Run("configured minimum age", func(t *testing.T) {
		custom := NewBookService(zap.NewNop(), &Config{Catalog: CatalogConfig{RecommendMinAge: 1}}, NewMockClocker(), NewMockUIDHandler("123", true), &MockRandomizer{}, mockRepo, nil)
		book, ok, err := custom.Recommend(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "b", book.ID)
	})

	t.Run("default randomizer breaks ties", func(t *testing.T) {
		tied := &MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return []Book{
					{ID: "x", Name: "X", Authors: []string{"A"}, PublicationYear: IntPtr(2015), Rating: 8},
					{ID: "y", Name: "Y", Authors: []string{"A"}, PublicationYear: IntPtr(2016), Rating: 8},
				}, nil
			},
		}
		for _, config := range []*Config{nil, {Catalog: CatalogConfig{RandomSeed: 42}}} {
			svc := NewBookService(zap.NewNop(), config, NewMockClocker(), NewMockUIDHandler("123", true), nil, tied, nil)
			book, ok, err := svc.Recommend(context.Background())
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Contains(t, []string{"x", "y"}, book.ID)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		failing := newTestBookService(&MockBookStorage{
			GetAllFunc: func(ctx context.Context) ([]Book, error) {
				return nil, ErrStorageUnavailable
			},
		}, nil)
		_, _, err := failing.Recommend(context.Background())
		assert.True(t, errors.Is(err, ErrStorageUnavailable))
	})
}

func TestBoltDBConsumer(t *testing.T) {
	replica := newTestBoltStore(t)
	require.NoError(t, replica.Add(context.Background(), "b:2", Book{ID: "b:2", Name: "Stale", Authors: []string{"A"}}))

	items := []struct {
		qid  string
		book Book
	}{
		{CreateQueue, Book{ID: "b:1", Name: "Created", Authors: []string{"A"}}},
		{UpdateQueue, Book{ID: "b:1", Name: "Updated", Authors: []string{"A"}}},
		{DeleteQueue, Book{ID: "b:2"}},
		{DeleteQueue, Book{ID: "b:404"}},
		{"unknown", Book{ID: "b:3"}},
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var mu sync.Mutex
	next := 0
	q := &MockQueuer{
		PopFunc: func(ctx context.Context, qids ...string) (string, Book, error) {
			mu.Lock()
			defer mu.Unlock()
			if next < len(items) {
				item := items[next]
				next++
				return item.qid, item.book, nil
			}
			if next == len(items) {
				next++
				return "", Book{}, ErrQueueEmpty
			}
			cancel()
			return "", Book{}, ctx.Err()
		},
	}

	done := make(chan error, 1)
	go func() { done <- NewBoltDBConsumer(zap.NewNop(), q, replica).Consume(ctx, CreateQueue, UpdateQueue, DeleteQueue) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}

	book, err := replica.GetOne(context.Background(), "b:1")
	assert.NoError(t, err)
	assert.Equal(t, "Updated", book.Name)
	_, err = replica.GetOne(context.Background(), "b:2")
	assert.True(t, errors.Is(err, ErrBookNotFound))
	_, err = replica.GetOne(context.Background(), "b:3")
	assert.True(t, errors.Is(err, ErrBookNotFound))
}
