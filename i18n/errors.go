package i18n

import (
	"fmt"

	"github.com/minios-linux/transx/store"
)

// ErrInvalidArgument is returned for an empty message id, an empty locale
// or a context containing the context separator. It is returned in both
// graceful and strict mode.
var ErrInvalidArgument = store.ErrInvalidArgument

// NotFoundError reports a missing locale, catalog or message. Only strict
// translators return it.
type NotFoundError = store.NotFoundError

// Kind classifies a NotFoundError.
type Kind = store.Kind

const (
	KindLocale  = store.KindLocale
	KindCatalog = store.KindCatalog
	KindMessage = store.KindMessage
)

// IsNotFound reports whether err is a NotFoundError of kind (any kind if
// kind is zero).
func IsNotFound(err error, kind Kind) bool {
	return store.IsNotFound(err, kind)
}

// MissingParamError is returned by strict formatting when a placeholder
// has no matching parameter.
type MissingParamError struct {
	Key string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("missing parameter %q", e.Key)
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
