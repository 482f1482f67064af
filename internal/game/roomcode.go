package game

import "math/rand"

// Room codes avoid vowels and easily confused glyphs (0/O, 1/I) so they can
// be read out loud across a living room.
const codeAlphabet = "BCDFGHJKMNPQRSTVWXYZ23456789"

const codeLength = 4

// NewRoomCode returns a random join code. Uniqueness is the store's job;
// this just produces candidates.
func NewRoomCode(r *rand.Rand) string {
	b := make([]byte, codeLength)
	for i := range b {
		b[i] = codeAlphabet[r.Intn(len(codeAlphabet))]
	}
	return string(b)
}
