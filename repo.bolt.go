package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/boltdb/bolt"
	"go.uber.org/zap"
)

// boltBookStorage keeps one document per book inside a single bucket,
// keyed by the book id. It serves as embedded primary store and as the
// replica fed by the redis queues.
type boltBookStorage struct {
	logger *zap.Logger
	client *bolt.DB
	bucket []byte
}

// GetBoltDBClient opens the database file and ensures the books bucket exists.
func GetBoltDBClient(config *Config) (*bolt.DB, error) {
	db, err := bolt.Open(config.BoltDB.FilePath, 0o600, &bolt.Options{Timeout: config.BoltDB.Timeout})
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, errB := tx.CreateBucketIfNotExists([]byte(config.BoltDB.BucketName))
		return errB
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create %s bucket: %v", config.BoltDB.BucketName, err)
	}
	return db, nil
}

// NewBoltBookStorage provides an instance of bolt-based book storage.
func NewBoltBookStorage(logger *zap.Logger, boltConfig *BoltDBConfig, client *bolt.DB) *boltBookStorage {
	return &boltBookStorage{
		logger: logger,
		client: client,
		bucket: []byte(boltConfig.BucketName),
	}
}

// Close shuts down the bolt-based book storage.
func (bs *boltBookStorage) Close() error {
	return bs.client.Close()
}

// boltError flags a closed or locked database as unavailable storage.
func boltError(op, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBookNotFound), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, bolt.ErrDatabaseNotOpen), errors.Is(err, bolt.ErrTimeout):
		return fmt.Errorf("boltdb: %s %s: %w: %v", op, id, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("boltdb: %s %s: %w", op, id, err)
}

func (bs *boltBookStorage) put(ctx context.Context, op, id string, book Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := EncodeBook(book)
	if err != nil {
		return fmt.Errorf("boltdb: encode %s: %w", id, err)
	}
	err = bs.client.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bs.bucket).Put([]byte(id), doc)
	})
	return boltError(op, id, err)
}

// Add inserts a new book document.
func (bs *boltBookStorage) Add(ctx context.Context, id string, book Book) error {
	return bs.put(ctx, "add", id, book)
}

// GetOne retrieves a book document based on its ID.
func (bs *boltBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	var book Book
	err := bs.client.View(func(tx *bolt.Tx) error {
		doc := tx.Bucket(bs.bucket).Get([]byte(id))
		if doc == nil {
			return ErrBookNotFound
		}
		// doc is only valid during the transaction.
		b, err := DecodeBook(doc)
		book = b
		return err
	})
	if err != nil {
		return Book{}, boltError("get", id, err)
	}
	return book, nil
}

// Delete removes a book document. A missing book is reported.
func (bs *boltBookStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := bs.client.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bs.bucket)
		if b.Get([]byte(id)) == nil {
			return ErrBookNotFound
		}
		return b.Delete([]byte(id))
	})
	return boltError("delete", id, err)
}

// Update replaces the book document, inserting it when missing.
func (bs *boltBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	return book, bs.put(ctx, "update", id, book)
}

// GetAll lists every book document in key order.
func (bs *boltBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	books := []Book{}
	err := bs.client.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bs.bucket).ForEach(func(k, v []byte) error {
			book, err := DecodeBook(v)
			if err != nil {
				return fmt.Errorf("decode %s: %w", k, err)
			}
			books = append(books, book)
			return nil
		})
	})
	if err != nil {
		return nil, boltError("list", "books", err)
	}
	bs.logger.Debug("boltdb: listed books", zap.Int("books.count", len(books)))
	return books, nil
}
