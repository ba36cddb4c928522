package storage

import (
	"errors"
	"fmt"
)

// OpError is returned by every Storage operation that fails. It names the
// operation and its target and carries the underlying cause.
type OpError struct {
	Op     string
	Bucket string
	Key    string
	Err    error
}

func (e *OpError) Error() string {
	switch {
	case e.Bucket != "" && e.Key != "":
		return fmt.Sprintf("%s failed for %s/%s: %v", e.Op, e.Bucket, e.Key, e.Err)
	case e.Bucket != "":
		return fmt.Sprintf("%s failed for bucket %s: %v", e.Op, e.Bucket, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
}

func (e *OpError) Unwrap() error { return e.Err }

// IsOperationFailed reports whether err is, or wraps, an *OpError.
func IsOperationFailed(err error) bool {
	var opErr *OpError
	return errors.As(err, &opErr)
}
