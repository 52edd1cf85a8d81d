package nxa

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a graph-build failure. Kinds other than
// KindValidationRejected are detected locally before anything reaches the
// accelerator ABI.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnsupportedType
	KindUnsupportedAttribute
	KindShapeViolation
	KindMissingTensor
	KindValidationRejected
)

// String returns a stable label for logs.
func (k ErrorKind) String() string {
	switch k {
	case KindUnsupportedType:
		return "unsupported-type"
	case KindUnsupportedAttribute:
		return "unsupported-attribute-value"
	case KindShapeViolation:
		return "shape-violation"
	case KindMissingTensor:
		return "missing-prerequisite"
	case KindValidationRejected:
		return "validation-rejected"
	default:
		return "unknown"
	}
}

// BuildError is a graph-build failure with its classification. It wraps an
// underlying cause when one exists.
type BuildError struct {
	Kind ErrorKind
	msg  string
	err  error
}

func (e *BuildError) Error() string { return e.msg }

func (e *BuildError) Unwrap() error { return e.err }

// Errorf creates a classified build error. %w wraps a cause as usual; the
// formatted error is kept intact so every wrapped link stays reachable.
func Errorf(kind ErrorKind, format string, args ...any) error {
	inner := fmt.Errorf(format, args...)
	return &BuildError{Kind: kind, msg: inner.Error(), err: inner}
}

// KindOf extracts the classification from an error chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var be *BuildError
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindUnknown
}
