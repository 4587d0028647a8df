package contracts

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatVersion is the semantic version stamped on exported snapshots.
// Readers may import snapshots whose major version is less than or equal
// to their own; a newer major version must be rejected explicitly.
type FormatVersion struct {
	Major uint8 `json:"major"`
	Minor uint8 `json:"minor"`
	Patch uint8 `json:"patch"`
}

func NewFormatVersion(major, minor, patch uint8) FormatVersion {
	return FormatVersion{Major: major, Minor: minor, Patch: patch}
}

func (v FormatVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// CanRead reports whether a reader at version v can import a snapshot
// written at version file. Older majors are always readable.
func (v FormatVersion) CanRead(file FormatVersion) bool {
	return v.Major >= file.Major
}

// ParseFormatVersion parses "major.minor.patch".
func ParseFormatVersion(s string) (FormatVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return FormatVersion{}, fmt.Errorf("invalid format version %q", s)
	}
	nums := make([]uint8, 3)
	for i, p := range parts {
		n, err := strconv.ParseUint(p, 10, 8)
		if err != nil {
			return FormatVersion{}, fmt.Errorf("invalid format version %q: %w", s, err)
		}
		nums[i] = uint8(n)
	}
	return FormatVersion{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
