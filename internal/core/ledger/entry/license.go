package entry

import (
	"fmt"
	"strings"
)

// License is the read-access policy attached to a data feed.
type License uint8

const (
	// LicensePrivate requires the reader to be a subscriber.
	LicensePrivate License = 0
	// LicensePublic lets any caller read the feed.
	LicensePublic License = 1
)

// Valid reports whether l is a known license value.
func (l License) Valid() bool {
	return l == LicensePrivate || l == LicensePublic
}

// RequiresSubscription reports whether readers must be in the subscriber set.
func (l License) RequiresSubscription() bool {
	return l != LicensePublic
}

func (l License) String() string {
	switch l {
	case LicensePrivate:
		return "Private"
	case LicensePublic:
		return "Public"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(l))
	}
}

// ParseLicense accepts a license name (case-insensitive) or its numeric value.
func ParseLicense(s string) (License, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "private", "0":
		return LicensePrivate, nil
	case "public", "1":
		return LicensePublic, nil
	}
	return 0, fmt.Errorf("unknown license %q", s)
}

// MarshalText encodes the license by name.
func (l License) MarshalText() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("unknown license %d", uint8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText decodes a license name or number.
func (l *License) UnmarshalText(text []byte) error {
	parsed, err := ParseLicense(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
