package main

import (
	"context"
	"errors"

	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// breakerBookStorage guards a BookStorage with a circuit breaker. Once the
// breaker opens, calls fail fast with ErrStorageUnavailable. A missing
// book is a normal answer and never counts as a failure.
type breakerBookStorage struct {
	logger *zap.Logger
	next   BookStorage
	cb     *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerBookStorage wraps storage with a breaker configured from config.
func NewBreakerBookStorage(logger *zap.Logger, config *BreakerConfig, storage BookStorage) BookStorage {
	settings := gobreaker.Settings{
		Name:        "storage",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrBookNotFound) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("storage: circuit breaker state changed",
				zap.String("breaker.name", name),
				zap.String("breaker.from", from.String()),
				zap.String("breaker.to", to.String()),
			)
		},
	}
	return &breakerBookStorage{
		logger: logger,
		next:   storage,
		cb:     gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

func (bbs *breakerBookStorage) execute(fn func() (interface{}, error)) (interface{}, error) {
	res, err := bbs.cb.Execute(fn)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return res, ErrStorageUnavailable
	}
	return res, err
}

func (bbs *breakerBookStorage) Add(ctx context.Context, id string, book Book) error {
	_, err := bbs.execute(func() (interface{}, error) {
		return nil, bbs.next.Add(ctx, id, book)
	})
	return err
}

func (bbs *breakerBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	res, err := bbs.execute(func() (interface{}, error) {
		return bbs.next.GetOne(ctx, id)
	})
	book, _ := res.(Book)
	return book, err
}

func (bbs *breakerBookStorage) Delete(ctx context.Context, id string) error {
	_, err := bbs.execute(func() (interface{}, error) {
		return nil, bbs.next.Delete(ctx, id)
	})
	return err
}

func (bbs *breakerBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	res, err := bbs.execute(func() (interface{}, error) {
		return bbs.next.Update(ctx, id, book)
	})
	if updated, ok := res.(Book); ok {
		return updated, err
	}
	return book, err
}

func (bbs *breakerBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	res, err := bbs.execute(func() (interface{}, error) {
		return bbs.next.GetAll(ctx)
	})
	books, _ := res.([]Book)
	return books, err
}
