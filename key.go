package stash

import (
	"fmt"
	"regexp"

	"github.com/influxdata/stash/kit/errors"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidKey reports whether key consists only of letters, digits,
// underscores and hyphens.
func ValidKey(key Key) bool {
	return keyPattern.MatchString(key)
}

// ValidateKey returns an EInvalid error naming key when it is not a valid key.
// Adapters call it before any mutating operation touches storage.
func ValidateKey(key Key) error {
	if ValidKey(key) {
		return nil
	}
	return &errors.Error{
		Code: errors.EInvalid,
		Msg:  fmt.Sprintf("Invalid key: '%s'. Only alphanumeric characters, underscores, and hyphens are allowed.", key),
	}
}
