package landingzone

import "github.com/cockroachdb/errors"

// ErrPreexisting marks fatal conflicts with resources this package would
// otherwise create: Control Tower service roles or the reserved KMS
// alias already present in the account.
var ErrPreexisting = errors.New("resource already exists")
