package query

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidLimit is returned for a display limit that is neither a
// non-negative integer nor the unbounded sentinel.
var ErrInvalidLimit = errors.New("limit must be a non-negative integer or ':' to show all results")

// Limit caps how many items each reported list shows.
type Limit struct {
	N   int
	All bool
}

// Unbounded shows every item.
var Unbounded = Limit{All: true}

// Max returns a limit of n items.
func Max(n int) Limit { return Limit{N: n} }

// ParseLimit accepts ":", "all" or "" for no limit, or a non-negative integer.
func ParseLimit(s string) (Limit, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", ":", "all":
		return Unbounded, nil
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return Limit{}, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Limit{}, fmt.Errorf("%w: %q", ErrInvalidLimit, s)
	}
	return Max(n), nil
}

func (l Limit) String() string {
	if l.All {
		return ":"
	}
	return strconv.Itoa(l.N)
}

func (l Limit) MarshalText() ([]byte, error) { return []byte(l.String()), nil }

func (l *Limit) UnmarshalText(b []byte) error {
	parsed, err := ParseLimit(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Truncate returns the visible prefix of items and how many were elided.
func Truncate[T any](items []T, l Limit) (shown []T, elided int) {
	if l.All || len(items) <= l.N {
		return items, 0
	}
	return items[:l.N], len(items) - l.N
}
