package notion

import (
	"errors"
	"fmt"

	"notionsqlite/internal/jsonpath"
)

var (
	// ErrUnexpectedObjectKind is matched by *ObjectKindError.
	ErrUnexpectedObjectKind = errors.New("notion: unexpected object kind")
	// ErrMalformedSchema reports a database document without a usable
	// "properties" object.
	ErrMalformedSchema = errors.New("notion: malformed database schema")
	// ErrMalformedPage reports a list document without a "results" array.
	ErrMalformedPage = errors.New("notion: malformed page list")
	// ErrItemRejected reports a page item missing a required field.
	ErrItemRejected = errors.New("notion: item rejected")
	// ErrPropertyUnreadable reports a property whose value path did not resolve.
	ErrPropertyUnreadable = errors.New("notion: property unreadable")
	// ErrTransport wraps failures of the injected fetch capability.
	ErrTransport = errors.New("notion: transport failure")
	// ErrPageLimit is returned when pagination exceeds the configured ceiling.
	ErrPageLimit = errors.New("notion: page limit exceeded")
)

// ObjectKindError reports a document whose "object" discriminator is missing
// or differs from the expected literal. Got is empty when the field is
// absent or not a string.
type ObjectKindError struct {
	Want string
	Got  string
}

func (e *ObjectKindError) Error() string {
	if e.Got == "" {
		return fmt.Sprintf(`notion: document must have "object": %q`, e.Want)
	}
	return fmt.Sprintf(`notion: document must have "object": %q, but was %q`, e.Want, e.Got)
}

func (e *ObjectKindError) Unwrap() error { return ErrUnexpectedObjectKind }

func checkObjectKind(doc any, want string) error {
	got, ok := jsonpath.String(doc, jsonpath.Field("object"))
	if !ok || got != want {
		return &ObjectKindError{Want: want, Got: got}
	}
	return nil
}
