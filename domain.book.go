package main

import "context"

// Book represents a book entity of the catalog.
type Book struct {
	ID              string   `json:"id"`
	Name            string   `json:"name" validate:"required,max=100"`
	Authors         []string `json:"authors" validate:"min=1,dive,required"`
	PublicationYear *int     `json:"publicationYear,omitempty" validate:"omitempty,gt=1800"`
	Rating          int      `json:"rating" validate:"gte=0,lte=10"`
	ISBN            string   `json:"isbn,omitempty" validate:"omitempty,isbn"`
	CreatedAt       string   `json:"createdAt"`
	UpdatedAt       string   `json:"updatedAt"`
}

// BookInput holds the raw user-entered values of a book form.
// Authors are expected as a comma separated list.
type BookInput struct {
	Name            string `json:"name"`
	Authors         string `json:"authors"`
	PublicationYear string `json:"publicationYear"`
	Rating          string `json:"rating"`
	ISBN            string `json:"isbn"`
}

// HasYear tells if the book has a usable publication year.
func (b Book) HasYear() bool {
	return b.PublicationYear != nil && *b.PublicationYear != 0
}

// Year returns the publication year or 0 when absent.
func (b Book) Year() int {
	if b.PublicationYear == nil {
		return 0
	}
	return *b.PublicationYear
}

// BookStorage defines possible operations on book entity.
type BookStorage interface {
	Add(ctx context.Context, id string, book Book) error
	GetOne(ctx context.Context, id string) (Book, error)
	Delete(ctx context.Context, id string) error
	Update(ctx context.Context, id string, book Book) (Book, error)
	GetAll(ctx context.Context) ([]Book, error)
}

// IntPtr is a small helper to build optional years.
func IntPtr(v int) *int {
	return &v
}
