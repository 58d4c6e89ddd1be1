package rpt

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors matched through errors.Is.
var (
	ErrMalformedHeader = errors.New("malformed report header")
	ErrUnknownTopic    = errors.New("unknown report topic")
	ErrUndecodable     = errors.New("report text could not be decoded")
)

// MalformedReportHeaderError is returned when the header block of a section
// does not have the shape SWMM writes: a dash line is missing or a unit
// lies outside its header line.
type MalformedReportHeaderError struct {
	Topic  string
	Line   int
	Reason string
}

func (e *MalformedReportHeaderError) Error() string {
	if e.Line < 0 {
		return fmt.Sprintf("report section %s: %s", e.Topic, e.Reason)
	}
	return fmt.Sprintf("report section %s, header line %d: %s", e.Topic, e.Line, e.Reason)
}

// Is matches ErrMalformedHeader.
func (e *MalformedReportHeaderError) Is(target error) bool { return target == ErrMalformedHeader }

// UnknownTopicError names a topic that is not in the registry.
type UnknownTopicError struct {
	Name  string
	Known []string
}

func (e *UnknownTopicError) Error() string {
	return fmt.Sprintf("unknown report topic %q (known: %s)", e.Name, strings.Join(e.Known, ", "))
}

// Is matches ErrUnknownTopic.
func (e *UnknownTopicError) Is(target error) bool { return target == ErrUnknownTopic }
