package registry

import (
	"fmt"
	"sort"
)

// Claims records which file claimed each module name during one generation
// run. It is passed explicitly through the walk; the first claim of a name
// wins.
type Claims struct {
	byName map[string]string
}

// NewClaims creates an empty accumulator
func NewClaims() *Claims {
	return &Claims{byName: make(map[string]string)}
}

// Claim records name for path. A name that is already taken keeps its
// existing claim and yields an error naming both paths.
func (c *Claims) Claim(name, path string) error {
	if claimedBy, taken := c.byName[name]; taken {
		return fmt.Errorf("module name %q claimed by %s is also declared by %s", name, claimedBy, path)
	}
	c.byName[name] = path
	return nil
}

// ClaimedBy returns the path that claimed name
func (c *Claims) ClaimedBy(name string) (string, bool) {
	path, ok := c.byName[name]
	return path, ok
}

// Len returns the number of claimed names
func (c *Claims) Len() int {
	return len(c.byName)
}

// Names returns the claimed names in sorted order
func (c *Claims) Names() []string {
	names := make([]string, 0, len(c.byName))
	for name := range c.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
