// SPDX-License-Identifier: MPL-2.0

package execute

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xrunhq/xrun/internal/adapter"
)

// ErrInvalidTimeout is the sentinel wrapped by InvalidTimeoutError.
var ErrInvalidTimeout = errors.New("invalid timeout")

// InvalidTimeoutError is returned when a --timeout value cannot be parsed.
// It is a configuration error: errors.Is matches both ErrInvalidTimeout and
// adapter.ErrConfiguration.
type InvalidTimeoutError struct {
	Value string
	Err   error
}

// Error implements the error interface.
func (e *InvalidTimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid timeout %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid timeout %q", e.Value)
}

// Unwrap returns the sentinels and the parse error.
func (e *InvalidTimeoutError) Unwrap() []error {
	errs := []error{ErrInvalidTimeout, adapter.ErrConfiguration}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ParseTimeout parses a human duration ("30s", "5m", "1h30m"). A bare integer
// is milliseconds. An empty string means unset and yields zero.
func ParseTimeout(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, nil
	}

	if ms, err := strconv.ParseInt(text, 10, 64); err == nil {
		if ms < 0 {
			return 0, &InvalidTimeoutError{Value: text, Err: errors.New("must not be negative")}
		}
		if ms > math.MaxInt64/int64(time.Millisecond) {
			return 0, &InvalidTimeoutError{Value: text, Err: errors.New("out of range")}
		}
		return time.Duration(ms) * time.Millisecond, nil
	}

	d, err := time.ParseDuration(text)
	if err != nil {
		return 0, &InvalidTimeoutError{Value: text, Err: err}
	}
	if d < 0 {
		return 0, &InvalidTimeoutError{Value: text, Err: errors.New("must not be negative")}
	}
	return d, nil
}
