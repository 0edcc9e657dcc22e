package model

import "errors"

var (
	// ErrSourceUnreadable is returned when the source cannot be parsed as a
	// PDF: corrupted, truncated or not a PDF at all.
	ErrSourceUnreadable = errors.New("source document is unreadable")

	// ErrEncrypted is returned for password-protected documents. It wraps
	// ErrSourceUnreadable so callers can treat both alike.
	ErrEncrypted = encryptedError{}
)

type encryptedError struct{}

func (encryptedError) Error() string { return "source document is encrypted" }

func (encryptedError) Unwrap() error { return ErrSourceUnreadable }
