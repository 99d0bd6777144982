// Package cachekey derives deterministic cache keys from request descriptors.
//
// Key layout:
//
//	<url path>?keyHash=<METHOD><body without whitespace>
//
// Host, query string and headers never participate, so two descriptors with
// the same method, path and whitespace-normalised body share one entry.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/unkn0wn-root/offcache/request"
)

// MaxStorageLen is the longest key handed verbatim to a byte store.
const MaxStorageLen = 250

const marker = "?keyHash="

// Key is a derived cache key.
type Key string

// Derive is pure and total: any descriptor yields a key, and equal inputs
// yield equal keys. Bodies that are not valid UTF-8 omit the body segment.
func Derive(d request.Descriptor) Key {
	var b strings.Builder
	b.WriteString(d.URL().Path)
	b.WriteString(marker)
	b.WriteString(string(d.Method()))
	if body := d.Body(); len(body) > 0 && utf8.Valid(body) {
		b.WriteString(stripSpace(string(body)))
	}
	return Key(b.String())
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func (k Key) String() string { return string(k) }

// Storage returns a form safe for any byte store: short printable keys pass
// through, anything longer or containing control bytes becomes
// "h:" + the first 32 hex chars of SHA-256(key).
func (k Key) Storage() string {
	s := string(k)
	if len(s) <= MaxStorageLen && printable(s) {
		return s
	}
	sum := sha256.Sum256([]byte(s))
	return "h:" + hex.EncodeToString(sum[:16])
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			return false
		}
	}
	return true
}
