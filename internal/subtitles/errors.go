package subtitles

import "errors"

// ErrAlignmentMismatch reports that the aligner returned a different number of
// timed fragments than chunks it was given.
var ErrAlignmentMismatch = errors.New("alignment fragment count does not match chunk count")

// ErrUnknownMethod reports an unsupported timing method name.
var ErrUnknownMethod = errors.New("unknown subtitle timing method")
