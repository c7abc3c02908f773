package cli

import "errors"

// ErrUsage matches every error caused by how the CLI was invoked: bad flags,
// a bad configuration file, an unknown source name.
var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
	err error
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

// wrapUsageError keeps err reachable through errors.As.
func wrapUsageError(msg string, err error) error {
	return usageError{msg: msg, err: err}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Unwrap() error { return e.err }

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}
