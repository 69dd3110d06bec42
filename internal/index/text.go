package index

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// EmbedText returns the text embedded for a file name.
func EmbedText(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// entryKey identifies a listing entry for vector reuse across builds.
func entryKey(name, href string) string {
	h := sha256.Sum256([]byte(name + "\x00" + href))
	return hex.EncodeToString(h[:])
}
