// Package wire frames cached response bodies before they reach a byte store.
//
// Entry layout (big endian):
//
//	magic(4) "OFFC" | ver(1) | kind(1) | gen(u64) | storedAt(i64 unix nanos)
//	| klen(u16) | key(klen) | vlen(u32) | payload(vlen)
//
// The key is stored so that hashed storage keys can be checked against the
// logical key on read; a mismatch is treated like corruption.
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

const (
	version   byte = 1
	kindEntry byte = 1

	headerLen = 4 + 1 + 1 + 8 + 8
)

var (
	ErrCorrupt = errors.New("offcache: corrupt entry")
	magic4     = [...]byte{'O', 'F', 'F', 'C'}
)

// Entry is one decoded cache record. Payload aliases the decoded buffer.
type Entry struct {
	Key      string
	Gen      uint64
	StoredAt time.Time
	Payload  []byte
}

func Encode(e Entry) ([]byte, error) {
	if l := len(e.Key); l == 0 || l > 0xFFFF {
		return nil, fmt.Errorf("offcache: invalid key length %d", l)
	}
	var buf bytes.Buffer
	buf.Grow(headerLen + 2 + len(e.Key) + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte
	var u2 [2]byte

	binary.BigEndian.PutUint64(u8[:], e.Gen)
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(e.StoredAt.UnixNano()))
	buf.Write(u8[:])

	binary.BigEndian.PutUint16(u2[:], uint16(len(e.Key)))
	buf.Write(u2[:])
	buf.WriteString(e.Key)

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)
	return buf.Bytes(), nil
}

func Decode(b []byte) (Entry, error) {
	if len(b) < headerLen || !bytes.Equal(b[:4], magic4[:]) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}
	off := 6

	gen := binary.BigEndian.Uint64(b[off : off+8])
	off += 8
	storedAt := int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8

	if off+2 > len(b) {
		return Entry{}, ErrCorrupt
	}
	klen := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if klen == 0 || klen > len(b)-off {
		return Entry{}, ErrCorrupt
	}
	key := string(b[off : off+klen])
	off += klen

	if off+4 > len(b) {
		return Entry{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen != len(b)-off { // also rejects trailing bytes
		return Entry{}, ErrCorrupt
	}

	return Entry{
		Key:      key,
		Gen:      gen,
		StoredAt: time.Unix(0, storedAt),
		Payload:  b[off : off+vlen],
	}, nil
}
