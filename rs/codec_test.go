package rs

import (
	"math/rand"
	"testing"
)

func randomMessage(rng *rand.Rand, n int) []byte {
	msg := make([]byte, n)
	rng.Read(msg)
	return msg
}

func TestEncodeDecodeRoundTripNoErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, parity := range []int{2, 8, 16, 32, 64} {
		msg := randomMessage(rng, 32)
		codeword, err := Encode(msg, parity)
		if err != nil {
			t.Fatalf("parity=%d: Encode error: %v", parity, err)
		}
		if len(codeword) != 32+parity {
			t.Fatalf("parity=%d: codeword length = %d, want %d", parity, len(codeword), 32+parity)
		}
		got, ok, err := Decode(codeword, parity)
		if err != nil || !ok {
			t.Fatalf("parity=%d: Decode ok=%v err=%v", parity, ok, err)
		}
		for i := range msg {
			if got[i] != msg[i] {
				t.Fatalf("parity=%d: byte %d = %x, want %x", parity, i, got[i], msg[i])
			}
		}
	}
}

func TestParityOutOfRangeRejected(t *testing.T) {
	msg := make([]byte, 32)
	if _, err := Encode(msg, 1); err == nil {
		t.Fatal("parity=1 should be rejected")
	}
	if _, err := Encode(msg, 65); err == nil {
		t.Fatal("parity=65 should be rejected")
	}
}

// flipBytes corrupts count distinct byte positions in data (in place),
// each with a nonzero XOR mask, and returns the positions touched.
func flipBytes(rng *rand.Rand, data []byte, count int) []int {
	if count > len(data) {
		count = len(data)
	}
	perm := rng.Perm(len(data))
	positions := perm[:count]
	for _, pos := range positions {
		mask := byte(1 + rng.Intn(255))
		data[pos] ^= mask
	}
	return positions
}

func TestDecodeCorrectsUpToFloorHalfParityErrors(t *testing.T) {
	// spec.md section 8, scenario 4: a 32-byte message with 32 parity bytes
	// (P=32) corrects up to floor(32/2)=16 byte errors.
	parity := 32
	maxErrors := parity / 2

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		msg := randomMessage(rng, 32)
		codeword, err := Encode(msg, parity)
		if err != nil {
			t.Fatalf("Encode error: %v", err)
		}
		corrupted := make([]byte, len(codeword))
		copy(corrupted, codeword)
		flipBytes(rng, corrupted, maxErrors)

		got, ok, err := Decode(corrupted, parity)
		if err != nil {
			t.Fatalf("trial %d: Decode error: %v", trial, err)
		}
		if !ok {
			t.Fatalf("trial %d: Decode failed to correct %d byte errors", trial, maxErrors)
		}
		for i := range msg {
			if got[i] != msg[i] {
				t.Fatalf("trial %d: byte %d = %x, want %x", trial, i, got[i], msg[i])
			}
		}
	}
}

func TestDecodeUsuallyFailsOrErrorsBeyondCapacity(t *testing.T) {
	// spec.md section 8, scenario 4: floor(P/2)+1 errors (17 for P=32) is
	// beyond correction capacity and must not silently return the original
	// message in the overwhelming majority of trials.
	parity := 32
	tooMany := parity/2 + 1

	rng := rand.New(rand.NewSource(7))
	wrongOrRejected := 0
	const trials = 30
	for trial := 0; trial < trials; trial++ {
		msg := randomMessage(rng, 32)
		codeword, err := Encode(msg, parity)
		if err != nil {
			t.Fatalf("Encode error: %v", err)
		}
		corrupted := make([]byte, len(codeword))
		copy(corrupted, codeword)
		flipBytes(rng, corrupted, tooMany)

		got, ok, err := Decode(corrupted, parity)
		if err != nil {
			t.Fatalf("trial %d: Decode error: %v", trial, err)
		}
		if !ok {
			wrongOrRejected++
			continue
		}
		matches := true
		for i := range msg {
			if got[i] != msg[i] {
				matches = false
				break
			}
		}
		if !matches {
			wrongOrRejected++
		}
	}
	if wrongOrRejected < trials-2 {
		t.Fatalf("expected overloaded decode to fail or miscorrect in nearly all trials, got %d/%d", wrongOrRejected, trials)
	}
}

func TestDecodeDetectsZeroErrorsWithoutSearch(t *testing.T) {
	msg := randomMessage(rand.New(rand.NewSource(3)), 32)
	codeword, err := Encode(msg, 16)
	if err != nil {
		t.Fatalf("Encode error: %v", err)
	}
	got, ok, err := Decode(codeword, 16)
	if err != nil || !ok {
		t.Fatalf("Decode ok=%v err=%v", ok, err)
	}
	for i := range msg {
		if got[i] != msg[i] {
			t.Fatalf("byte %d = %x, want %x", i, got[i], msg[i])
		}
	}
}

func TestShortCodewordRejected(t *testing.T) {
	if _, _, err := Decode(make([]byte, 10), 16); err == nil {
		t.Fatal("codeword shorter than parity should be rejected")
	}
}
