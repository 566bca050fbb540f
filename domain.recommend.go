package main

import (
	"math/rand"
	"sync"
)

// DefaultRecommendMinAge is the minimum age in years of a book before it
// can be recommended.
const DefaultRecommendMinAge = 3

var _ Randomizer = (*LockedRand)(nil) // ensure LockedRand implements Randomizer.

// Randomizer provides the random index used to break ties between
// equally rated books.
type Randomizer interface {
	// Intn returns a number in [0,n).
	Intn(n int) int
}

// LockedRand is a Randomizer safe for concurrent use.
type LockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewLockedRand returns a ready to use LockedRand seeded with seed.
func NewLockedRand(seed int64) *LockedRand {
	return &LockedRand{rnd: rand.New(rand.NewSource(seed))}
}

// Intn implements Randomizer.
func (lr *LockedRand) Intn(n int) int {
	lr.mu.Lock()
	defer lr.mu.Unlock()
	return lr.rnd.Intn(n)
}

// RecommendBook picks a good book: among books published at least
// DefaultRecommendMinAge years before currentYear, the ones with the
// highest rating are kept and one of them is chosen through rnd. It
// returns false when no book is eligible.
func RecommendBook(books []Book, currentYear int, rnd Randomizer) (Book, bool) {
	return RecommendBookWithMinAge(books, currentYear, DefaultRecommendMinAge, rnd)
}

// RecommendBookWithMinAge is like RecommendBook with a custom minimum age.
func RecommendBookWithMinAge(books []Book, currentYear, minAge int, rnd Randomizer) (Book, bool) {
	var candidates []Book
	maxRating := 0
	for _, b := range books {
		if !b.HasYear() || currentYear-b.Year() < minAge {
			continue
		}
		switch {
		case len(candidates) == 0 || b.Rating > maxRating:
			maxRating = b.Rating
			candidates = []Book{b}
		case b.Rating == maxRating:
			candidates = append(candidates, b)
		}
	}

	switch len(candidates) {
	case 0:
		return Book{}, false
	case 1:
		return candidates[0], true
	}
	return candidates[rnd.Intn(len(candidates))], true
}
