package utils

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// RandomHex returns n random bytes hex encoded (2n characters).
func RandomHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// PathID returns the path segment following prefix, without slashes.
func PathID(path, prefix string) string {
	return strings.Trim(strings.TrimPrefix(path, prefix), "/")
}
