package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// EntityKey is the normalized identity of a habit name. Two names refer to the
// same habit exactly when their keys are equal.
type EntityKey string

// NewEntityKey folds name into its canonical key: NFKC-normalized, case-folded,
// trimmed, with inner whitespace collapsed to single spaces.
func NewEntityKey(name string) EntityKey {
	s := norm.NFKC.String(name)
	s = cases.Fold().String(s)
	return EntityKey(strings.Join(strings.Fields(s), " "))
}

func (k EntityKey) IsZero() bool { return k == "" }

func (k EntityKey) String() string { return string(k) }
