// Package idgen mints the process-unique ids used for channels, scan
// windows and receivers: 122 bits of randomness in the familiar
// 8-4-4-4-12 hex layout.
package idgen

import (
	"crypto/rand"
	"fmt"
)

// New returns a fresh random id. Ids are freshly minted every run;
// nothing persists them across restarts.
func New() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("idgen: system randomness unavailable: " + err.Error())
	}

	// Version/variant bits per RFC 4122 so the ids read as uuid4s.
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
}
