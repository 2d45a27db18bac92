package pipeline

import "errors"

// ErrNoContent is returned when a page yields nothing extractable.
var ErrNoContent = errors.New("could not extract content from this URL")
