package query

import (
	"encoding/json"
	"strings"
)

// Key addresses one cache entry. Two keys with the same elements in the
// same order address the same entry.
type Key []string

func (k Key) hash() string {
	b, _ := json.Marshal([]string(k))
	return string(b)
}

// Equal reports whether k and other address the same entry.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}
	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading sub-tuple of k.
// Every key has the empty key as prefix.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	return k[:len(prefix)].Equal(prefix)
}

func (k Key) String() string {
	return "[" + strings.Join(k, ", ") + "]"
}

// ParseKey splits a slash separated path ("events/abc") into a Key.
func ParseKey(path string) Key {
	path = strings.Trim(path, "/")
	if path == "" {
		return Key{}
	}
	return Key(strings.Split(path, "/"))
}

func (k Key) less(other Key) bool {
	for i := 0; i < len(k) && i < len(other); i++ {
		if k[i] != other[i] {
			return k[i] < other[i]
		}
	}
	return len(k) < len(other)
}
