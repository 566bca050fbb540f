package main

// CatalogView is everything a client needs to render the catalog page in
// a single payload: the raw list, the buckets for the selected field, the
// books left out of the buckets and the current recommendation.
type CatalogView struct {
	Field       GroupField  `json:"field"`
	Total       int         `json:"total"`
	Groups      []BookGroup `json:"groups"`
	Without     []Book      `json:"without"`
	Recommended *Book       `json:"recommended"`
}

// BuildCatalogView derives the catalog view from the stored books. It
// never mutates books.
func BuildCatalogView(books []Book, field GroupField, currentYear, minAge int, rnd Randomizer) CatalogView {
	view := CatalogView{
		Field:   field,
		Total:   len(books),
		Groups:  GroupAndSortBooks(books, field),
		Without: BooksWithoutField(books, field),
	}
	if b, ok := RecommendBookWithMinAge(books, currentYear, minAge, rnd); ok {
		view.Recommended = &b
	}
	return view
}
