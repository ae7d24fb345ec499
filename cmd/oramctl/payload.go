package main

import "math/rand"

const payloadAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomPayload produces a 4-byte alphanumeric string, the Go
// equivalent of the benchmark driver's random_4char_string. It's a
// benchmark-only convenience: the core pathoram.Client never generates
// payloads itself, since data is always caller-supplied.
func randomPayload(rng *rand.Rand) []byte {
	b := make([]byte, 4)
	for i := range b {
		b[i] = payloadAlphabet[rng.Intn(len(payloadAlphabet))]
	}
	return b
}
