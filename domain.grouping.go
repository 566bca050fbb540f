package main

import (
	"fmt"
	"sort"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// GroupField names the book attribute used to build catalog buckets.
type GroupField string

const (
	GroupByYear   GroupField = "publicationYear"
	GroupByRating GroupField = "rating"
)

// ParseGroupField converts a query value into a GroupField. An empty
// value falls back to grouping by publication year.
func ParseGroupField(s string) (GroupField, error) {
	switch GroupField(s) {
	case "", GroupByYear:
		return GroupByYear, nil
	case GroupByRating:
		return GroupByRating, nil
	}
	return "", fmt.Errorf("unsupported group field %q", s)
}

// value returns the grouping key of a book for this field. Zero means the
// book does not carry the field.
func (f GroupField) value(b Book) int {
	switch f {
	case GroupByYear:
		return b.Year()
	case GroupByRating:
		return b.Rating
	}
	return 0
}

// BookGroup is a bucket of books sharing the same field value.
type BookGroup struct {
	Key   int    `json:"key"`
	Books []Book `json:"books"`
}

// GroupAndSortBooks partitions books by the exact value of field. Books
// without that field are left out (see BooksWithoutField). Buckets are
// ordered by key descending and their members by name, case-insensitive
// and ascending. Books with equal names keep their input order.
func GroupAndSortBooks(books []Book, field GroupField) []BookGroup {
	index := map[int]int{}
	groups := []BookGroup{}
	for _, b := range books {
		key := field.value(b)
		if key == 0 {
			continue
		}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, BookGroup{Key: key})
		}
		groups[pos].Books = append(groups[pos].Books, b)
	}

	for i := range groups {
		sortBooksByName(groups[i].Books)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Key > groups[j].Key
	})
	return groups
}

// BooksWithoutField returns, in input order, the books that do not carry
// the given field and therefore do not appear in any group.
func BooksWithoutField(books []Book, field GroupField) []Book {
	without := []Book{}
	for _, b := range books {
		if field.value(b) == 0 {
			without = append(without, b)
		}
	}
	return without
}

func sortBooksByName(books []Book) {
	caser := cases.Lower(language.Und)
	keys := make(map[string]string, len(books))
	for _, b := range books {
		if _, ok := keys[b.Name]; !ok {
			keys[b.Name] = caser.String(b.Name)
		}
	}
	sort.SliceStable(books, func(i, j int) bool {
		return keys[books[i].Name] < keys[books[j].Name]
	})
}
