package main

import (
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Validation messages reported per field of a book form.
const (
	MsgNameRequired     = "Name is required"
	MsgNameTooLong      = "Name can not be longer than 100 characters"
	MsgAuthorsRequired  = "Book should have at least one author"
	MsgYearNotInteger   = "Publication year must be an integer"
	MsgYearTooOld       = "Publication year must be greater than 1800"
	MsgRatingNotInteger = "Rating must be an integer"
	MsgRatingOutOfRange = "Rating must be from 0 to 10"
	MsgISBNInvalid      = "ISBN is invalid"
)

const (
	MaxNameLength  = 100
	MinYearAllowed = 1800
	MinRating      = 0
	MaxRating      = 10
)

// FieldErrors maps a book field name to its validation message.
// An empty FieldErrors means the input is valid.
type FieldErrors map[string]string

// Add records the message for key unless the field already failed.
func (fe FieldErrors) Add(key, message string) {
	if _, exists := fe[key]; !exists {
		fe[key] = message
	}
}

// Check adds an error for key only when ok is false.
func (fe FieldErrors) Check(ok bool, key, message string) {
	if !ok {
		fe.Add(key, message)
	}
}

// Valid returns true if no field failed.
func (fe FieldErrors) Valid() bool {
	return len(fe) == 0
}

// Error implements the error interface so FieldErrors can travel through
// the service layer like any other error.
func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "invalid book: " + strings.Join(parts, "; ")
}

// ValidateBookInput checks every field of a raw book form and builds the
// normalized book. All failing fields are reported together and in that
// case the returned book must be ignored. When editing, existing is the
// stored version of the book and its identity is carried forward.
func ValidateBookInput(input BookInput, existing *Book) (Book, FieldErrors) {
	errs := FieldErrors{}

	name := strings.TrimSpace(input.Name)
	errs.Check(name != "", "name", MsgNameRequired)
	errs.Check(utf8.RuneCountInString(name) <= MaxNameLength, "name", MsgNameTooLong)

	authors := SplitAuthors(input.Authors)
	errs.Check(len(authors) > 0, "authors", MsgAuthorsRequired)

	var year *int
	if raw := strings.TrimSpace(input.PublicationYear); raw != "" {
		v, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.Add("publicationYear", MsgYearNotInteger)
		case v <= MinYearAllowed:
			errs.Add("publicationYear", MsgYearTooOld)
		default:
			year = &v
		}
	}

	rating := 0
	if raw := strings.TrimSpace(input.Rating); raw != "" {
		v, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			errs.Add("rating", MsgRatingNotInteger)
		case v < MinRating || v > MaxRating:
			errs.Add("rating", MsgRatingOutOfRange)
		default:
			rating = v
		}
	}

	isbn := strings.TrimSpace(input.ISBN)
	if isbn != "" {
		errs.Check(ValidateISBN(isbn), "isbn", MsgISBNInvalid)
	}

	if !errs.Valid() {
		return Book{}, errs
	}

	book := Book{
		Name:            name,
		Authors:         authors,
		PublicationYear: year,
		Rating:          rating,
		ISBN:            isbn,
	}
	if existing != nil {
		book.ID = existing.ID
		book.CreatedAt = existing.CreatedAt
	}
	return book, nil
}

// SplitAuthors splits a comma separated list of authors. Each name is
// trimmed and blank entries are dropped.
func SplitAuthors(raw string) []string {
	authors := []string{}
	for _, part := range strings.Split(raw, ",") {
		if author := strings.TrimSpace(part); author != "" {
			authors = append(authors, author)
		}
	}
	return authors
}
