package main

import (
	"strings"

	"github.com/gofrs/uuid"
)

var _ UIDHandler = (*IDsHandler)(nil) // ensure IDsHandler implements UIDHandler.

// UIDHandler is an interface for getting and checking prefixed uids.
type UIDHandler interface {
	Generate(prefix string) string
	IsValid(id, prefix string) bool
}

// IDsHandler builds `<prefix>:<uuid-v4>` identifiers for books and requests.
type IDsHandler struct {
	gen func() (uuid.UUID, error)
}

// NewIDsHandler returns a ready to use IDsHandler.
func NewIDsHandler() *IDsHandler {
	return &IDsHandler{gen: uuid.NewV4}
}

// Generate provides a random unique identifier like `b:<uuid>`. It panics
// only when the system random source is broken.
func (idh *IDsHandler) Generate(prefix string) string {
	return prefix + ":" + uuid.Must(idh.gen()).String()
}

// IsValid reports whether id carries the prefix followed by a non nil uuid.
func (idh *IDsHandler) IsValid(id, prefix string) bool {
	raw, found := strings.CutPrefix(id, prefix+":")
	if !found {
		return false
	}
	u, err := uuid.FromString(raw)
	return err == nil && u != uuid.Nil
}
