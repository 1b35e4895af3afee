package glean

import "errors"

// ErrMalformedDefinition is returned when a metric, ping or tag definition
// has no history, a revision without dates, or an unparsable timestamp.
var ErrMalformedDefinition = errors.New("malformed definition")
