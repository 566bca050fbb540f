package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const badgerBookPrefix = "book:"

type badgerBookStorage struct {
	logger *zap.Logger
	client *badger.DB
}

// GetBadgerDBClient opens the badger database directory.
func GetBadgerDBClient(config *Config) (*badger.DB, error) {
	opts := badger.DefaultOptions(config.Badger.Dir).
		WithInMemory(config.Badger.InMemory).
		WithLogger(nil)
	if config.Badger.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open the database, %v", err)
	}
	return db, nil
}

// NewBadgerBookStorage provides an instance of badger-based book storage.
func NewBadgerBookStorage(logger *zap.Logger, client *badger.DB) *badgerBookStorage {
	return &badgerBookStorage{logger: logger, client: client}
}

// Close shuts down the badger-based book storage.
func (bs *badgerBookStorage) Close() error {
	return bs.client.Close()
}

func badgerKey(id string) []byte {
	return []byte(badgerBookPrefix + id)
}

// badgerError flags a closed database as unavailable storage and adds
// the engine and book id to anything else.
func badgerError(op, id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBookNotFound), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, badger.ErrKeyNotFound):
		return ErrBookNotFound
	case errors.Is(err, badger.ErrDBClosed):
		return fmt.Errorf("badger: %s %s: %w: %v", op, id, ErrStorageUnavailable, err)
	}
	return fmt.Errorf("badger: %s %s: %w", op, id, err)
}

// Add inserts a new book record into badger store.
func (bs *badgerBookStorage) Add(ctx context.Context, id string, book Book) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bookBytes, err := EncodeBook(book)
	if err != nil {
		return fmt.Errorf("badger: encode %s: %w", id, err)
	}
	err = bs.client.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(id), bookBytes)
	})
	return badgerError("add", id, err)
}

// GetOne retrieves a book record based on its ID from badger store.
func (bs *badgerBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	if err := ctx.Err(); err != nil {
		return Book{}, err
	}
	var book Book
	err := bs.client.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			b, err := DecodeBook(val)
			book = b
			return err
		})
	})
	if err != nil {
		return Book{}, badgerError("get", id, err)
	}
	return book, nil
}

// Delete removes a book record based on its ID from badger store.
func (bs *badgerBookStorage) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := bs.client.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(badgerKey(id)); err != nil {
			return err
		}
		return txn.Delete(badgerKey(id))
	})
	return badgerError("delete", id, err)
}

// Update replaces existing book record data or inserts a new book if does not exist.
func (bs *badgerBookStorage) Update(ctx context.Context, id string, book Book) (Book, error) {
	return book, bs.Add(ctx, id, book)
}

// GetAll retrieves a list of all books stored in the badger database.
func (bs *badgerBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	books := []Book{}
	err := bs.client.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(badgerBookPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				book, err := DecodeBook(val)
				if err != nil {
					return fmt.Errorf("decode %s: %w", item.Key(), err)
				}
				books = append(books, book)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, badgerError("list", "books", err)
	}
	bs.logger.Debug("badger: listed books", zap.Int("books.count", len(books)))
	return books, nil
}
