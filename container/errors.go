// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package container

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// CorruptError is returned when a container is structurally invalid.
type CorruptError struct {
	// Reason describes where the corruption was found.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

func (e *CorruptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("corrupt container: %s: %s", e.Reason, e.Err)
	}
	return "corrupt container: " + e.Reason
}

// Cause returns the underlying error, for errors.Cause.
func (e *CorruptError) Cause() error { return e.Err }

// Unwrap returns the underlying error, for errors.Is and errors.As.
func (e *CorruptError) Unwrap() error { return e.Err }

func corruptf(err error, reason string, args ...interface{}) error {
	return &CorruptError{Reason: fmt.Sprintf(reason, args...), Err: err}
}

// IntegrityError is returned when a container decodes cleanly but the result
// does not match what its header recorded.
type IntegrityError struct {
	// What names the mismatched property.
	What string
	// Expected is the recorded value, Actual is the reconstructed value.
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity mismatch: %s: header records %s, decoded %s", e.What, e.Expected, e.Actual)
}

// chunkSizeMismatch reports a chunk that decoded cleanly to the wrong length.
func chunkSizeMismatch(index, actual, expected int) error {
	return &IntegrityError{
		What:     fmt.Sprintf("chunk #%d size", index),
		Expected: strconv.Itoa(expected),
		Actual:   strconv.Itoa(actual),
	}
}

// IsCorrupt returns true if err is, or wraps, a *CorruptError.
func IsCorrupt(err error) bool {
	var ce *CorruptError
	return errors.As(err, &ce)
}

// IsIntegrity returns true if err is, or wraps, an *IntegrityError.
func IsIntegrity(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// failureKind classifies err for monitoring.
func failureKind(err error) string {
	switch {
	case IsCorrupt(err):
		return "corrupt"
	case IsIntegrity(err):
		return "integrity"
	default:
		return "io"
	}
}
