package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ValidatePort accepts 1-65535.
func ValidatePort(s string) error {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return errors.New("must be a valid integer")
	}
	if port < 1 || port > 65535 {
		return errors.New("must be a valid port (1-65535)")
	}
	return nil
}

// ValidateShareName accepts names usable as a service name: non-empty,
// without path separators or whitespace.
func ValidateShareName(s string) error {
	switch {
	case s == "":
		return errors.New("share name is required")
	case strings.ContainsAny(s, `/\`):
		return errors.New("share name cannot contain slashes")
	case strings.ContainsFunc(s, func(r rune) bool { return r == ' ' || r == '\t' }):
		return errors.New("share name cannot contain whitespace")
	}
	return nil
}

// ValidateAbsPath accepts absolute slash-separated paths.
func ValidateAbsPath(s string) error {
	if !strings.HasPrefix(s, "/") {
		return fmt.Errorf("%q is not an absolute path", s)
	}
	return nil
}

// NonEmpty rejects blank input.
func NonEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}
