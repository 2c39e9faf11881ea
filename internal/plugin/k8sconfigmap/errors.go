package k8sconfigmap

import (
	"fmt"

	k8serrors "k8s.io/apimachinery/pkg/api/errors"
)

// Error wraps a Kubernetes API error with the ConfigMap operation that
// failed. Adapted from the teacher's internal/infrastructure/k8s/errors.go
// K8sError/ConnectionError/NotFoundError family, collapsed into a single
// type since this plugin has only one failure axis (the ConfigMap
// read/write), unlike the teacher's client which distinguished
// auth/timeout/connection errors across many Secret operations.
type Error struct {
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("k8sconfigmap %s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("k8sconfigmap %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// IsNotFound reports whether err represents a missing ConfigMap.
func IsNotFound(err error) bool {
	var e *Error
	if as(err, &e) {
		return k8serrors.IsNotFound(e.Err)
	}
	return k8serrors.IsNotFound(err)
}

func isRetryable(err error) bool {
	if k8serrors.IsTimeout(err) || k8serrors.IsServerTimeout(err) {
		return true
	}
	if k8serrors.IsInternalError(err) || k8serrors.IsServiceUnavailable(err) {
		return true
	}
	if k8serrors.IsTooManyRequests(err) {
		return true
	}
	return false
}

func as(err error, target **Error) bool {
	e, ok := err.(*Error)
	if ok {
		*target = e
	}
	return ok
}
