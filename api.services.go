package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// BookServiceProvider is the catalog controller: it validates user input,
// talks to the storage and derives the catalog views. Outcomes are
// returned as values; validation failures come back as FieldErrors.
type BookServiceProvider interface {
	Add(ctx context.Context, input BookInput) (Book, []Book, error)
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) (Book, error)
	Update(ctx context.Context, id string, input BookInput) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
	Groups(ctx context.Context, field GroupField) (GroupsView, error)
	Recommend(ctx context.Context) (Book, bool, error)
	Catalog(ctx context.Context, field GroupField) (CatalogView, error)
}

// GroupsView holds the buckets of a grouping and the books left aside.
type GroupsView struct {
	Field   GroupField  `json:"field"`
	Groups  []BookGroup `json:"groups"`
	Without []Book      `json:"without"`
}

type BookService struct {
	logger  *zap.Logger
	config  *Config
	clock   Clocker
	ids     UIDHandler
	rnd     Randomizer
	rules   *RulesChecker
	storage BookStorage
	queue   Queuer
}

func NewBookService(logger *zap.Logger, config *Config, clock Clocker, ids UIDHandler, rnd Randomizer, storage BookStorage, queue Queuer) BookServiceProvider {
	if queue == nil {
		queue = noopQueue{}
	}
	if rnd == nil {
		rnd = NewLockedRand(randomSeed(config, clock))
	}
	return &BookService{
		logger:  logger,
		config:  config,
		clock:   clock,
		ids:     ids,
		rnd:     rnd,
		rules:   NewRulesChecker(),
		storage: storage,
		queue:   queue,
	}
}

// randomSeed prefers the configured seed so tie breaks can be replayed.
func randomSeed(config *Config, clock Clocker) int64 {
	if config != nil && config.Catalog.RandomSeed != 0 {
		return config.Catalog.RandomSeed
	}
	return clock.Now().UnixNano()
}

func (bs *BookService) minAge() int {
	if bs.config == nil || bs.config.Catalog.RecommendMinAge <= 0 {
		return DefaultRecommendMinAge
	}
	return bs.config.Catalog.RecommendMinAge
}

// replicate pushes the mutation to the replication queue. A failure
// there must not fail the request, so it is only logged.
func (bs *BookService) replicate(ctx context.Context, qid string, book Book) {
	if err := bs.queue.Push(ctx, qid, book); err != nil {
		bs.logger.Error("service: failed to push book to queue", zap.String("qid", qid), zap.String("book.id", book.ID), zap.Error(err))
	}
}

// Add validates the form, stores the new book and returns it along with
// the refreshed list of books. A failed refresh only yields a nil list.
func (bs *BookService) Add(ctx context.Context, input BookInput) (Book, []Book, error) {
	book, errs := ValidateBookInput(input, nil)
	if !errs.Valid() {
		return Book{}, nil, errs
	}

	now := Timestamp(bs.clock)
	book.ID = bs.ids.Generate(BookIDPrefix)
	book.CreatedAt = now
	book.UpdatedAt = now
	if err := bs.rules.CheckBook(book); err != nil {
		return Book{}, nil, err
	}

	if err := bs.storage.Add(ctx, book.ID, book); err != nil {
		return book, nil, fmt.Errorf("service: add book: %w", err)
	}
	bs.replicate(ctx, CreateQueue, book)

	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		bs.logger.Warn("service: failed to refresh books after insertion", zap.String("book.id", book.ID), zap.Error(err))
		return book, nil, nil
	}
	return book, books, nil
}

func (bs *BookService) GetOne(ctx context.Context, id string) (Book, error) {
	return bs.storage.GetOne(ctx, id)
}

// Delete removes the book and returns its last stored version.
func (bs *BookService) Delete(ctx context.Context, id string) (Book, error) {
	book, err := bs.storage.GetOne(ctx, id)
	if err != nil {
		return book, err
	}
	if err = bs.storage.Delete(ctx, id); err != nil {
		return book, err
	}
	bs.replicate(ctx, DeleteQueue, Book{ID: id})
	return book, nil
}

// Update validates the form against the stored book identified by id
// and replaces it. The id and the creation time never change.
func (bs *BookService) Update(ctx context.Context, id string, input BookInput) (Book, error) {
	existing, err := bs.storage.GetOne(ctx, id)
	if err != nil {
		return Book{}, err
	}

	book, errs := ValidateBookInput(input, &existing)
	if !errs.Valid() {
		return existing, errs
	}
	book.UpdatedAt = Timestamp(bs.clock)
	if err = bs.rules.CheckBook(book); err != nil {
		return existing, err
	}

	book, err = bs.storage.Update(ctx, id, book)
	if err != nil {
		return existing, fmt.Errorf("service: update book: %w", err)
	}
	bs.replicate(ctx, UpdateQueue, book)
	return book, nil
}

func (bs *BookService) GetAll(ctx context.Context) ([]Book, error) {
	return bs.storage.GetAll(ctx)
}

func (bs *BookService) Groups(ctx context.Context, field GroupField) (GroupsView, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return GroupsView{}, err
	}
	return GroupsView{
		Field:   field,
		Groups:  GroupAndSortBooks(books, field),
		Without: BooksWithoutField(books, field),
	}, nil
}

// Recommend returns a good book. The boolean is false when no book is
// eligible, which is not an error.
func (bs *BookService) Recommend(ctx context.Context) (Book, bool, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return Book{}, false, err
	}
	book, ok := RecommendBookWithMinAge(books, CurrentYear(bs.clock), bs.minAge(), bs.rnd)
	return book, ok, nil
}

func (bs *BookService) Catalog(ctx context.Context, field GroupField) (CatalogView, error) {
	books, err := bs.storage.GetAll(ctx)
	if err != nil {
		return CatalogView{}, err
	}
	return BuildCatalogView(books, field, CurrentYear(bs.clock), bs.minAge(), bs.rnd), nil
}
