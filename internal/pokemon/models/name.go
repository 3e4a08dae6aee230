package models

import dErrors "pokegate/pkg/domain-errors"

// Name is a validated lookup key. It is used verbatim as the cache key: no
// trimming, no case folding.
type Name string

// ParseName validates raw input before any I/O happens.
func ParseName(raw string) (Name, error) {
	if raw == "" {
		return "", dErrors.New(dErrors.CodeValidation, "Name cannot be null")
	}
	return Name(raw), nil
}

func (n Name) String() string {
	return string(n)
}
