package pkguid

import "strconv"

// StringID generates unique string identifiers.
type StringID interface {
	// Generate generates a unique identifier as a string.
	Generate() string
}

// NumberID generates unique numeric identifiers.
type NumberID interface {
	// Generate generates a unique identifier as an int64 number.
	Generate() int64
}

// AsString adapts a NumberID into a StringID by formatting ids in base 10.
func AsString(n NumberID) StringID {
	return numberString{n: n}
}

type numberString struct {
	n NumberID
}

func (s numberString) Generate() string {
	return strconv.FormatInt(s.n.Generate(), 10)
}
