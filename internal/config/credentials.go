package config

import (
	"os"
	"strings"
)

// Credentials is a read-only key/value view over secrets such as provider API
// keys. It is built once at startup and shared by value.
type Credentials struct {
	values map[string]string
}

// NewCredentials copies values into a new snapshot.
func NewCredentials(values map[string]string) Credentials {
	snapshot := make(map[string]string, len(values))
	for k, v := range values {
		snapshot[k] = v
	}
	return Credentials{values: snapshot}
}

// SnapshotEnv captures the current process environment.
func SnapshotEnv() Credentials {
	values := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		values[key] = value
	}
	return Credentials{values: values}
}

// Lookup returns the value for name. Empty values count as missing.
func (c Credentials) Lookup(name string) (string, bool) {
	value, ok := c.values[name]
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// Len returns the number of entries in the snapshot.
func (c Credentials) Len() int {
	return len(c.values)
}
