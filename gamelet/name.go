package gamelet

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedName is wrapped by every ParseName failure.
var ErrMalformedName = errors.New("malformed gamelet resource name")

// Name holds the identity components of a gamelet resource name.
type Name struct {
	OrganizationID string
	ProjectID      string
	InstanceID     string
}

// literal tokens expected at positions 0, 2, 4 and 6 of a resource name
var literals = [...]string{"organizations", "projects", "pools", "gamelets"}

// ParseName parses a resource name of the form
// "organizations/{org}/projects/{proj}/pools/{pool}/gamelets/{a}/{b}/{c}".
// The pool id must be present but is not returned. The instance id is
// "{a}/{b}/{c}", e.g. "edge/e-europe-west3-b/49d010c7be1845ac9a19a9033c64a460ces1".
func ParseName(resourceName string) (Name, error) {
	parts := strings.Split(resourceName, "/")
	if len(parts) != 10 {
		return Name{}, fmt.Errorf("%w: expected 10 segments, got %d", ErrMalformedName, len(parts))
	}
	for i, want := range literals {
		if pos := 2 * i; parts[pos] != want {
			return Name{}, fmt.Errorf("%w: segment %d is %q, want %q", ErrMalformedName, pos, parts[pos], want)
		}
	}
	for _, pos := range []int{1, 3, 5, 7, 8, 9} {
		if parts[pos] == "" {
			return Name{}, fmt.Errorf("%w: segment %d is empty", ErrMalformedName, pos)
		}
	}
	return Name{
		OrganizationID: parts[1],
		ProjectID:      parts[3],
		InstanceID:     strings.Join(parts[7:], "/"),
	}, nil
}
