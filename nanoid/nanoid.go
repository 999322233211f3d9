package nanoid

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	Number    = "0123456789"
	Lowercase = "abcdefghijklmnopqrstuvwxyz"
	Uppercase = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	NumLower      = Number + Lowercase
	NumLowerUpper = Number + Lowercase + Uppercase

	defaultSize = 16
)

func getSize(l ...int) int {
	size := defaultSize
	if len(l) > 0 && l[0] > 0 {
		size = l[0]
	}
	return size
}

// Must generate optional length nanoid
func Must(l ...int) string {
	return gonanoid.Must(getSize(l...))
}

// String generate optional length nanoid from numbers and letters
func String(l ...int) string {
	return gonanoid.MustGenerate(NumLowerUpper, getSize(l...))
}

// Lower generate optional length nanoid from numbers and lowercase letters
func Lower(l ...int) string {
	return gonanoid.MustGenerate(NumLower, getSize(l...))
}

// IsValid reports whether id could have been produced by String with the given size
func IsValid(id string, l ...int) bool {
	if len(id) != getSize(l...) {
		return false
	}
	for _, r := range id {
		if !strings.ContainsRune(NumLowerUpper, r) {
			return false
		}
	}
	return true
}
