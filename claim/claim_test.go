package claim

import (
	"crypto/sha256"
	"testing"
)

func TestCanonicalLowercasesAndStripsPrefix(t *testing.T) {
	got := Canonical("ABCD", "0xEF01")
	want := "owner:abcd|media:ef01"
	if got != want {
		t.Fatalf("Canonical = %q, want %q", got, want)
	}
}

func TestCandidateStringsBothForms(t *testing.T) {
	cands := CandidateStrings("abcd", "ef01")
	want := []string{"owner:abcd|media:ef01", "owner:abcd|media:0xef01"}
	for i, w := range want {
		if cands[i] != w {
			t.Fatalf("candidate %d = %q, want %q", i, cands[i], w)
		}
	}
}

func TestValidateOwnerSha(t *testing.T) {
	valid := ""
	for i := 0; i < 64; i++ {
		valid += "a"
	}
	if err := ValidateOwnerSha(valid); err != nil {
		t.Fatalf("expected valid sha to pass: %v", err)
	}
	if err := ValidateOwnerSha("0x" + valid); err != nil {
		t.Fatalf("expected 0x-prefixed sha to pass: %v", err)
	}
	if err := ValidateOwnerSha("too-short"); err == nil {
		t.Fatal("expected short sha to fail")
	}
	if err := ValidateOwnerSha(valid[:63] + "Z"); err == nil {
		t.Fatal("expected non-hex sha to fail")
	}
}

func TestBytesBitsRoundTrip(t *testing.T) {
	msg := sha256.Sum256([]byte("klyvo"))
	bits := BytesToBits(msg[:])
	if len(bits) != 256 {
		t.Fatalf("len(bits) = %d, want 256", len(bits))
	}
	back := BitsToBytes(bits)
	for i := range msg {
		if back[i] != msg[i] {
			t.Fatalf("byte %d mismatch after round trip", i)
		}
	}
}

func TestBytesToBitsMSBFirst(t *testing.T) {
	bits := BytesToBits([]byte{0x80, 0x01})
	want := []int{1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1}
	for i, w := range want {
		if bits[i] != w {
			t.Fatalf("bit %d = %d, want %d", i, bits[i], w)
		}
	}
}

func TestPayloadWithoutECCIsRawHash(t *testing.T) {
	text := "owner:abc|media:def"
	bits, err := Payload(text, 0)
	if err != nil {
		t.Fatalf("Payload error: %v", err)
	}
	if len(bits) != 256 {
		t.Fatalf("len(bits) = %d, want 256", len(bits))
	}
	want := Hash(text)
	got := BitsToBytes(bits)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d mismatch", i)
		}
	}
}

func TestPayloadWithECCLength(t *testing.T) {
	bits, err := Payload("owner:abc|media:def", 24)
	if err != nil {
		t.Fatalf("Payload error: %v", err)
	}
	want := PayloadBitlen(24)
	if len(bits) != want {
		t.Fatalf("len(bits) = %d, want %d", len(bits), want)
	}
}
