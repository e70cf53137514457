package refine

import "errors"

// ErrUnknownTemplate is returned for an unrecognized template name.
var ErrUnknownTemplate = errors.New("unknown prompt template")
