package main

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Predefinied Queue IDs.
const (
	CreateQueue = "creation"
	UpdateQueue = "updating"
	DeleteQueue = "deletion"
)

// popTimeout bounds each blocking pop so consumers notice shutdown.
const popTimeout = time.Second

// ErrQueueEmpty is returned by Pop when nothing was queued in time.
var ErrQueueEmpty = errors.New("queue: no item available")

// Ensure *redisQueue implements Queuer.
var _ Queuer = (*redisQueue)(nil)

// Queuer describes a queue of book mutations.
type Queuer interface {
	Push(ctx context.Context, qid string, book Book) error
	Pop(ctx context.Context, qids ...string) (string, Book, error)
}

// redisQueue represents a queue which implements the Queuer interface.
type redisQueue struct {
	client *redis.Client
}

func NewRedisQueue(client *redis.Client) Queuer {
	return &redisQueue{client: client}
}

// Push enqueues a book document onto the queue identified by qid.
func (q *redisQueue) Push(ctx context.Context, qid string, book Book) error {
	bookBytes, err := EncodeBook(book)
	if err != nil {
		return err
	}
	return q.client.RPush(ctx, qid, bookBytes).Err()
}

// Pop returns the first dequeued book from the list of queue ids.
// It blocks up to popTimeout then returns ErrQueueEmpty.
func (q *redisQueue) Pop(ctx context.Context, qids ...string) (string, Book, error) {
	infos, err := q.client.BLPop(ctx, popTimeout, qids...).Result()
	if errors.Is(err, redis.Nil) {
		return "", Book{}, ErrQueueEmpty
	}
	if err != nil {
		return "", Book{}, err
	}

	book, err := DecodeBook([]byte(infos[1]))
	if err != nil {
		return "", Book{}, err
	}
	return infos[0], book, nil
}

// noopQueue is used when the primary storage is not redis-based and
// there is no replica to feed.
type noopQueue struct{}

func (noopQueue) Push(context.Context, string, Book) error { return nil }

func (noopQueue) Pop(ctx context.Context, _ ...string) (string, Book, error) {
	<-ctx.Done()
	return "", Book{}, ctx.Err()
}
