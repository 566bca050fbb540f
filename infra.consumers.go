package main

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// retryDelay is the pause after a failed pop call.
const retryDelay = time.Second

type Consumer interface {
	Consume(ctx context.Context, qids ...string) error
}

// boltDBConsumer replays the mutations queued by the book service into
// the bolt replica.
type boltDBConsumer struct {
	logger *zap.Logger
	queue  Queuer
	repo   BookStorage
}

func NewBoltDBConsumer(logger *zap.Logger, q Queuer, repo BookStorage) Consumer {
	return &boltDBConsumer{logger, q, repo}
}

func (bc *boltDBConsumer) Consume(ctx context.Context, qids ...string) error {
	for ctx.Err() == nil {
		qid, book, err := bc.queue.Pop(ctx, qids...)
		if err != nil && ctx.Err() != nil {
			break
		}

		if errors.Is(err, ErrQueueEmpty) {
			continue
		}

		if err != nil {
			bc.logger.Error("consumer: error on queue pop call", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(retryDelay):
			}
			continue
		}

		bc.apply(ctx, qid, book)
	}
	bc.logger.Info("consumer: queue pop call: context is done: exit", zap.String("reason", ctx.Err().Error()))
	return nil
}

func (bc *boltDBConsumer) apply(ctx context.Context, qid string, book Book) {
	switch qid {
	case CreateQueue:
		if err := bc.repo.Add(ctx, book.ID, book); err != nil {
			bc.logger.Error("consumer: failed to create", zap.String("book.id", book.ID), zap.Error(err))
		}
	case UpdateQueue:
		if _, err := bc.repo.Update(ctx, book.ID, book); err != nil {
			bc.logger.Error("consumer: failed to update", zap.String("book.id", book.ID), zap.Error(err))
		}
	case DeleteQueue:
		if err := bc.repo.Delete(ctx, book.ID); err != nil && !errors.Is(err, ErrBookNotFound) {
			bc.logger.Error("consumer: failed to delete", zap.String("book.id", book.ID), zap.Error(err))
		}
	default:
		bc.logger.Warn("consumer: received book on unknow queue id", zap.String("qid", qid), zap.String("book.id", book.ID))
	}
}
