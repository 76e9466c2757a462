package author

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when an author is not found.
	ErrNotFound = errors.New("author not found")
	// ErrNameTaken is returned when another author already has the name,
	// compared case-insensitively.
	ErrNameTaken = errors.New("author name already taken")
)

// Author is shared by every book that references it.
type Author struct {
	ID   string
	Name string
}

// Input is the payload of explicit author creation and rename.
type Input struct {
	Name string `json:"name" label:"Author name" validate:"notblank,min=2"`
}

// NameKey is the case-insensitive identity of an author name.
func NameKey(name string) string {
	return strings.ToLower(name)
}
