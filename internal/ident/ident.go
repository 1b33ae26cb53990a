// Package ident generates collision-resistant topic identifiers.
package ident

import (
	"strings"

	"github.com/google/uuid"
)

// tokenLen is the length of a generated identifier: 26 hex characters,
// i.e. 104 bits of randomness. Strong enough that collisions are not
// re-checked anywhere in a build.
const tokenLen = 26

// New returns a fresh opaque identifier derived from a random UUID with
// separators stripped and truncated to tokenLen characters.
func New() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return raw[:tokenLen]
}
