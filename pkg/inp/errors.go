package inp

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched through errors.Is by the typed errors below.
var (
	ErrUnknownSection        = errors.New("unknown section kind")
	ErrInvalidDiscriminator  = errors.New("invalid discriminator value")
	ErrInvalidStorageType    = errors.New("invalid storage type")
	ErrInvalidDateTimeFormat = errors.New("invalid date/time format")
)

// UnknownSectionKindError is returned for a section or table kind that has
// no schema.
type UnknownSectionKindError struct {
	Name  string
	Known []string
}

func (e *UnknownSectionKindError) Error() string {
	return fmt.Sprintf("unknown section kind %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Is matches ErrUnknownSection.
func (e *UnknownSectionKindError) Is(target error) bool { return target == ErrUnknownSection }

// InvalidDiscriminatorValueError names every offending discriminator value
// found in a source, together with the legal set.
type InvalidDiscriminatorValueError struct {
	Source  string
	Section string
	Field   string
	Values  []string
	Legal   []string
}

func (e *InvalidDiscriminatorValueError) Error() string {
	what := "type"
	if e.Section == "STORAGE" {
		what = "storage type"
	}
	src := e.Source
	if src == "" {
		src = e.Section
	}
	return fmt.Sprintf("%s: unknown %s in column %s: %s (legal values: %s)",
		src, what, e.Field, strings.Join(e.Values, ", "), strings.Join(e.Legal, ", "))
}

// Is matches ErrInvalidDiscriminator, and ErrInvalidStorageType for storage.
func (e *InvalidDiscriminatorValueError) Is(target error) bool {
	if target == ErrInvalidDiscriminator {
		return true
	}
	return target == ErrInvalidStorageType && e.Section == "STORAGE"
}

// DateTimeFormatError is returned when no known format parses every date or
// time of a time series.
type DateTimeFormatError struct {
	Series  string
	Column  string
	Formats []string
}

func (e *DateTimeFormatError) Error() string {
	return fmt.Sprintf("time series %s: column %s could not be converted (tested formats: %s)",
		e.Series, e.Column, strings.Join(e.Formats, ", "))
}

// Is matches ErrInvalidDateTimeFormat.
func (e *DateTimeFormatError) Is(target error) bool { return target == ErrInvalidDateTimeFormat }
