package build

import "errors"

// ErrNoBaseline is returned when an audit has no baseline and the repository
// has no tags to pick one from.
var ErrNoBaseline = errors.New("no audit baseline")
