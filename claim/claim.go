// Package claim builds the canonical ownership claim string, derives the
// embedded message from it, and converts between byte and bit
// representations of a payload.
//
// The canonical form and its 0x-tolerant media half come from spec.md
// sections 3 and 4.9; original_source/ supplements this with the detail
// that the claim string is lower-cased before hashing (so an upstream
// caller's mixed-case hex never changes the embedded message) and that the
// non-ECC payload is exactly sha256(text) with no length prefix.
package claim

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/klyvo/iwm/rs"
	"github.com/klyvo/iwm/wmerr"
)

// MessageSize is the fixed length, in bytes, of the SHA-256 message
// embedded by the core (spec.md section 3, "Payload message").
const MessageSize = 32

// NormalizeHex lower-cases s and strips a single leading "0x"/"0X".
func NormalizeHex(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "0x")
	return s
}

func normalizeHex(s string) string { return NormalizeHex(s) }

// ValidateOwnerSha checks that s is a 64-character hex string (after
// stripping an optional 0x prefix).
func ValidateOwnerSha(s string) error {
	n := normalizeHex(s)
	if len(n) != 64 {
		return wmerr.New(wmerr.InvalidInput, fmt.Sprintf("owner sha must be 64 hex chars, got %d", len(n)))
	}
	for _, r := range n {
		if !isHexDigit(r) {
			return wmerr.New(wmerr.InvalidInput, "owner sha contains non-hex characters")
		}
	}
	return nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
}

// Canonical builds the canonical claim string "owner:<sha>|media:<hex>",
// lower-casing both halves and stripping a leading 0x from the media half
// (the verifier re-adds 0x itself when it needs the prefixed variant).
func Canonical(ownerSha, mediaHex string) string {
	return fmt.Sprintf("owner:%s|media:%s", normalizeHex(ownerSha), normalizeHex(mediaHex))
}

// CandidateStrings returns the two claim-string forms the verifier tries
// per media-id (spec.md section 4.9): the plain hex form and the
// 0x-prefixed form.
func CandidateStrings(ownerSha, mediaHex string) []string {
	media := normalizeHex(mediaHex)
	owner := normalizeHex(ownerSha)
	return []string{
		fmt.Sprintf("owner:%s|media:%s", owner, media),
		fmt.Sprintf("owner:%s|media:0x%s", owner, media),
	}
}

// Hash returns the SHA-256 message for a claim string.
func Hash(text string) [sha256.Size]byte {
	return sha256.Sum256([]byte(text))
}

// BytesToBits unpacks bytes into big-endian bits (MSB first within each
// byte), matching the codeword's bit view in spec.md section 3.
func BytesToBits(b []byte) []int {
	bits := make([]int, 0, len(b)*8)
	for _, by := range b {
		for i := 7; i >= 0; i-- {
			bits = append(bits, int((by>>uint(i))&1))
		}
	}
	return bits
}

// BitsToBytes packs big-endian bits back into bytes. len(bits) must be a
// multiple of 8.
func BitsToBytes(bits []int) []byte {
	out := make([]byte, len(bits)/8)
	for i := range out {
		var b byte
		for j := 0; j < 8; j++ {
			b = (b << 1) | byte(bits[i*8+j]&1)
		}
		out[i] = b
	}
	return out
}

// Payload derives the embedded payload bits from a claim string (spec.md
// section 4.6, "Payload derivation"): unpack_bits(ecc_encode(sha256(text),
// parity)) when parity > 0, otherwise unpack_bits(sha256(text)).
func Payload(text string, parity int) ([]int, error) {
	msg := Hash(text)
	if parity <= 0 {
		return BytesToBits(msg[:]), nil
	}
	codeword, err := rs.Encode(msg[:], parity)
	if err != nil {
		return nil, wmerr.Wrap(wmerr.InvalidInput, "ecc encode failed", err)
	}
	return BytesToBits(codeword), nil
}

// PayloadBitlen returns the bit-length of Payload's output for the given
// parity (0 meaning ECC disabled).
func PayloadBitlen(parity int) int {
	if parity <= 0 {
		return MessageSize * 8
	}
	return (MessageSize + parity) * 8
}
