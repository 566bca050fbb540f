package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HBooks is the redis hash holding one document per book id.
const HBooks string = "books"

const redisPingGrace = 5 * time.Second

type redisBookStorage struct {
	logger *zap.Logger
	client *redis.Client
}

// NewRedisBookStorage provides an instance of redis-based book storage.
func NewRedisBookStorage(logger *zap.Logger, client *redis.Client) BookStorage {
	return &redisBookStorage{
		logger: logger,
		client: client,
	}
}

// GetRedisClient provides a ready to use redis client.
func GetRedisClient(config *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         net.JoinHostPort(config.Redis.Host, config.Redis.Port),
		DialTimeout:  config.Redis.DialTimeout,
		ReadTimeout:  config.Redis.ReadTimeout,
		WriteTimeout: config.Redis.WriteTimeout,
		PoolSize:     config.Redis.PoolSize,
		PoolTimeout:  config.Redis.PoolTimeout,
		Password:     config.Redis.Password,
		Username:     config.Redis.Username,
		DB:           config.Redis.DatabaseIndex,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.Redis.DialTimeout+config.Redis.ReadTimeout+redisPingGrace)
	defer cancel()
	if pong, err := client.Ping(ctx).Result(); pong != "PONG" || err != nil {
		return client, fmt.Errorf("test connection failed: %v", err)
	}
	return client, nil
}

// redisError flags network failures and a closed client as unavailable storage so
// the breaker and the handlers can tell them apart from bad documents.
func redisError(op, id string, err error) error {
	var nerr net.Error
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, redis.ErrClosed), errors.As(err, &nerr):
		return fmt.Errorf("redis: %s %s: %w: %v", op, id, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("redis: %s %s: %w", op, id, err)
}

func (rs *redisBookStorage) put(ctx context.Context, op, id string, book Book) error {
	doc, err := EncodeBook(book)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", id, err)
	}
	return redisError(op, id, rs.client.HSet(ctx, HBooks, id, doc).Err())
}

// Add inserts a new book document.
func (rs *redisBookStorage) Add(ctx context.Context, id string, book Book) error {
	return rs.put(ctx, "add", id, book)
}

// GetOne retrieves a book document based on its ID.
func (rs *redisBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	doc, err := rs.client.HGet(ctx, HBooks, id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Book{}, ErrBookNotFound
	}
	if err != nil {
		return Book{}, redisError("get", id, err)
	}
	book, err := DecodeBook(doc)
	if err != nil {
		return Book{}, fmt.Errorf("redis: decode %s: %w", id, err)
	}
	return book, nil
}

// Delete removes a book document. HDEL reports the number of removed
// fields so a missing book is detected without a prior read.
func (rs *redisBookStorage) Delete(ctx context.Context, id string) error {
	n, err := rs.client.HDel(ctx, HBooks, id).Result()
	if err != nil {
		return redisError("delete", id, err)
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// Update replaces the book document, inserting it when missing.
func (rs *redisBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	return book, rs.put(ctx, "update", id, book)
}

// GetAll lists every book document. Redis gives no order guarantee.
func (rs *redisBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	docs, err := rs.client.HGetAll(ctx, HBooks).Result()
	if err != nil {
		return nil, redisError("list", HBooks, err)
	}
	books := make([]Book, 0, len(docs))
	for id, doc := range docs {
		book, err := DecodeBook([]byte(doc))
		if err != nil {
			return nil, fmt.Errorf("redis: decode %s: %w", id, err)
		}
		books = append(books, book)
	}
	rs.logger.Debug("redis: listed books", zap.Int("books.count", len(books)))
	return books, nil
}
