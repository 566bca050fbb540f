package main

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RulesChecker wraps go-playground/validator to enforce the persisted
// book invariants and to check query parameters. Field errors are keyed
// by their json names.
type RulesChecker struct {
	v *validator.Validate
}

// NewRulesChecker provides a checker with the custom `isbn` tag.
func NewRulesChecker() *RulesChecker {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("isbn", func(fl validator.FieldLevel) bool {
		return ValidateISBN(fl.Field().String())
	})
	return &RulesChecker{v: v}
}

// CheckBook ensures a book satisfies the catalog invariants before it
// reaches any storage.
func (rc *RulesChecker) CheckBook(book Book) error {
	return rc.Check(book)
}

// Check validates any tagged struct and converts failures into FieldErrors.
func (rc *RulesChecker) Check(s interface{}) error {
	err := rc.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := FieldErrors{}
	for _, fe := range verrs {
		errs.Add(rootField(fe.Field()), ruleMessage(fe))
	}
	return errs
}

// rootField strips the index suffix of slice elements like `authors[0]`.
func rootField(field string) string {
	if i := strings.IndexByte(field, '['); i > 0 {
		return field[:i]
	}
	return field
}

func ruleMessage(fe validator.FieldError) string {
	switch rootField(fe.Field()) {
	case "name":
		if fe.Tag() == "max" {
			return MsgNameTooLong
		}
		return MsgNameRequired
	case "authors":
		return MsgAuthorsRequired
	case "publicationYear":
		return MsgYearTooOld
	case "rating":
		return MsgRatingOutOfRange
	case "isbn":
		return MsgISBNInvalid
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}
