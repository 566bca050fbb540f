package main

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	isbn10Pattern = regexp.MustCompile(`^[0-9]{9}[0-9X]$`)
	isbn13Pattern = regexp.MustCompile(`^[0-9]{13}$`)
)

// ValidateISBN checks a book identifier against the ISBN-10 or ISBN-13
// checksum rules. Whitespaces and hyphens are ignored.
func ValidateISBN(raw string) bool {
	value := strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)

	switch len(value) {
	case 10:
		return validateISBN10(value)
	case 13:
		return validateISBN13(value)
	default:
		return false
	}
}

func validateISBN10(value string) bool {
	if !isbn10Pattern.MatchString(value) {
		return false
	}

	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(value[i]-'0') * (10 - i)
	}

	if value[9] == 'X' {
		sum += 10
	} else {
		sum += int(value[9] - '0')
	}

	return sum%11 == 0
}

func validateISBN13(value string) bool {
	if !isbn13Pattern.MatchString(value) {
		return false
	}

	sum := 0
	for i := 0; i < 12; i++ {
		digit := int(value[i] - '0')
		if i%2 == 0 {
			sum += digit
		} else {
			sum += digit * 3
		}
	}

	checksum := (10 - sum%10) % 10
	return checksum == int(value[12]-'0')
}
