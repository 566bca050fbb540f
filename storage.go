package main

import (
	"errors"

	"github.com/goccy/go-json"
)

var (
	ErrBookNotFound       = errors.New("book not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// bookDocument is the stored representation of a book. The publication
// year uses its historical snake-case name on the wire, the rest of the
// fields map one to one with Book.
type bookDocument struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Authors         []string `json:"authors"`
	PublicationYear *int     `json:"publication_year,omitempty"`
	Rating          int      `json:"rating"`
	ISBN            string   `json:"isbn,omitempty"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	UpdatedAt       string   `json:"updatedAt,omitempty"`
}

func toDocument(book Book) bookDocument {
	return bookDocument{
		ID:              book.ID,
		Name:            book.Name,
		Authors:         book.Authors,
		PublicationYear: book.PublicationYear,
		Rating:          book.Rating,
		ISBN:            book.ISBN,
		CreatedAt:       book.CreatedAt,
		UpdatedAt:       book.UpdatedAt,
	}
}

// fromDocument converts a stored document into a book. A zero year is
// treated as absent and an out of range rating falls back to 0.
func fromDocument(doc bookDocument) Book {
	book := Book{
		ID:        doc.ID,
		Name:      doc.Name,
		Authors:   doc.Authors,
		Rating:    doc.Rating,
		ISBN:      doc.ISBN,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
	if doc.PublicationYear != nil && *doc.PublicationYear != 0 {
		book.PublicationYear = IntPtr(*doc.PublicationYear)
	}
	if book.Rating < MinRating || book.Rating > MaxRating {
		book.Rating = 0
	}
	if book.Authors == nil {
		book.Authors = []string{}
	}
	return book
}

// EncodeBook serializes a book into its stored document form.
func EncodeBook(book Book) ([]byte, error) {
	return json.Marshal(toDocument(book))
}

// DecodeBook parses a stored document into a book.
func DecodeBook(data []byte) (Book, error) {
	var doc bookDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Book{}, err
	}
	return fromDocument(doc), nil
}
