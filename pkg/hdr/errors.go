package hdr

import "errors"

var (
	// ErrConfiguration is returned when a histogram is constructed with an
	// invalid lowest/highest/significant figures combination.
	ErrConfiguration = errors.New("hdr: invalid configuration")

	// ErrArgument is returned when a query receives an argument outside its
	// accepted range.
	ErrArgument = errors.New("hdr: invalid argument")

	// ErrTypeMismatch is returned by Add and Equals when the other operand is
	// not a usable histogram.
	ErrTypeMismatch = errors.New("hdr: histogram expected")

	// ErrDecode is returned when an encoded histogram is malformed.
	ErrDecode = errors.New("hdr: malformed encoding")
)
