package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// maxKeyLen bounds keys sent to Redis; longer keys keep their prefix and
// hash the rest.
const maxKeyLen = 200

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return prefix + ":" + id
}

// GenerateKeyWithParams creates a cache key with multiple parameters. String
// slices are joined with commas so equal queries map to equal keys.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, param := range params {
		b.WriteByte(':')
		switch v := param.(type) {
		case []string:
			b.WriteString(strings.Join(v, ","))
		case string:
			b.WriteString(v)
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}

// HashKey generates MD5 hash of a key.
func HashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// BoundedKey returns key unchanged when short enough, otherwise the part up
// to the last ':' followed by a hash of the whole key.
func BoundedKey(key string) string {
	if len(key) <= maxKeyLen {
		return key
	}
	prefix := key
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		prefix = key[:i]
	}
	if len(prefix) > maxKeyLen-33 {
		prefix = prefix[:maxKeyLen-33]
	}
	return prefix + ":" + HashKey(key)
}
