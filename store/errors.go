package store

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is returned for empty ids, empty locales and contexts
// containing the context separator, whatever the strictness mode.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// Kind says what could not be found.
type Kind int

const (
	KindLocale Kind = iota + 1
	KindCatalog
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindLocale:
		return "locale"
	case KindCatalog:
		return "catalog"
	case KindMessage:
		return "message"
	default:
		return "unknown"
	}
}

// NotFoundError is returned in strict mode when a locale directory, a
// catalog file or a message is missing.
type NotFoundError struct {
	Kind Kind
	// Name is the locale or the message key.
	Name string
	// Path is the file or directory probed, if any.
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s not found: %s (%s)", e.Kind, e.Name, e.Path)
	}
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// IsNotFound reports whether err is a *NotFoundError of the given kind.
// A zero kind matches any.
func IsNotFound(err error, kind Kind) bool {
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		return false
	}
	return kind == 0 || nf.Kind == kind
}
