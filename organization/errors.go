package organization

import "github.com/cockroachdb/errors"

// ErrConfig marks fatal configuration errors: malformed OU hierarchies,
// missing baseline identifiers, inconsistent landing zone state. These
// are never retried.
var ErrConfig = errors.New("invalid accelerator configuration")
