package coder

import "errors"

// Mode selects how many non-default categories a value may belong to.
type Mode string

const (
	// ModeSingle allows a value at most one category; assigning it removes
	// it from Uncategorized.
	ModeSingle Mode = "Single"
	// ModeMulti allows a value any number of categories.
	ModeMulti Mode = "Multi"
)

// Valid reports whether the mode is one of the two known modes.
func (m Mode) Valid() bool {
	return m == ModeSingle || m == ModeMulti
}

// Uncategorized is the protected default category that initially holds
// every non-missing value.
const Uncategorized = "Uncategorized"

// Recoverable validation errors. All of these leave state unchanged and
// are meant to be rendered back to the user.
var (
	ErrEmptyName     = errors.New("category name is empty")
	ErrAlreadyExists = errors.New("category already exists")
	ErrProtected     = errors.New("category is protected")
	ErrEmptyDataset  = errors.New("imported dataset is empty")
	ErrTooFewColumns = errors.New("imported dataset needs an id column and at least one response column")
	ErrShapeMismatch = errors.New("imported dataset does not match the column count of the current project")
	ErrNoDataset     = errors.New("there is no dataset in the current project")
)

// Membership is the tri-state cell of the derived membership table. A row
// whose underlying value is missing is neither categorized nor
// uncategorized; it is inapplicable.
type Membership int8

const (
	NotMember    Membership = 0
	Member       Membership = 1
	Inapplicable Membership = 2
)
