// Package drill implements the proof-of-work hash used by the miner.
//
// A solution is a 16 byte digest plus the 8 byte little endian nonce it was
// derived from.  The digest is the leading half of blake3(challenge || nonce),
// and the difficulty of a solution is the number of leading zero bits of
// keccak256(digest || nonce).
package drill

import (
	"encoding/binary"
	"hash"
	"math/bits"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

const (
	ChallengeSize = 32
	DigestSize    = 16
	NonceSize     = 8
	SolutionSize  = DigestSize + NonceSize
)

// Hash is the outcome of hashing a single nonce against a challenge.
type Hash struct {
	Digest [DigestSize]byte
	H      [32]byte
}

// Difficulty returns the number of leading zero bits of the hash.
func (h Hash) Difficulty() uint32 {
	return Difficulty(h.H)
}

// Difficulty counts the leading zero bits of h.
func Difficulty(h [32]byte) uint32 {
	var total uint32
	for _, b := range h {
		if b == 0 {
			total += 8
			continue
		}
		total += uint32(bits.LeadingZeros8(b))
		break
	}
	return total
}

// Solution is a nonce together with the digest it produced.
type Solution struct {
	Digest [DigestSize]byte
	Nonce  [NonceSize]byte
}

// NewSolution builds a solution from a digest and a nonce.
func NewSolution(digest [DigestSize]byte, nonce uint64) Solution {
	s := Solution{Digest: digest}
	binary.LittleEndian.PutUint64(s.Nonce[:], nonce)
	return s
}

// NonceUint64 returns the nonce as an integer.
func (s Solution) NonceUint64() uint64 {
	return binary.LittleEndian.Uint64(s.Nonce[:])
}

// Bytes returns digest || nonce, the form that is signed and submitted.
func (s Solution) Bytes() []byte {
	b := make([]byte, 0, SolutionSize)
	b = append(b, s.Digest[:]...)
	return append(b, s.Nonce[:]...)
}

// SolutionFromBytes parses the digest || nonce encoding.
func SolutionFromBytes(b []byte) (Solution, bool) {
	var s Solution
	if len(b) != SolutionSize {
		return s, false
	}
	copy(s.Digest[:], b[:DigestSize])
	copy(s.Nonce[:], b[DigestSize:])
	return s, true
}

// ToHash recomputes the difficulty hash of the solution.
func (s Solution) ToHash() Hash {
	return Hash{Digest: s.Digest, H: finalize(s.Digest, s.Nonce)}
}

// IsValid reports whether the digest of s was produced by its nonce against
// challenge.
func (s Solution) IsValid(challenge [ChallengeSize]byte) bool {
	return digest(challenge, s.Nonce) == s.Digest
}

// Verify reports whether s is valid for challenge and reaches minDifficulty.
func Verify(challenge [ChallengeSize]byte, s Solution, minDifficulty uint32) bool {
	return s.IsValid(challenge) && s.ToHash().Difficulty() >= minDifficulty
}

func digest(challenge [ChallengeSize]byte, nonce [NonceSize]byte) [DigestSize]byte {
	var buf [ChallengeSize + NonceSize]byte
	copy(buf[:], challenge[:])
	copy(buf[ChallengeSize:], nonce[:])
	sum := blake3.Sum256(buf[:])

	var d [DigestSize]byte
	copy(d[:], sum[:DigestSize])
	return d
}

func finalize(d [DigestSize]byte, nonce [NonceSize]byte) [32]byte {
	k := sha3.NewLegacyKeccak256()
	k.Write(d[:])
	k.Write(nonce[:])
	var h [32]byte
	k.Sum(h[:0])
	return h
}

// Hasher hashes nonces against a fixed challenge.  It reuses its keccak state
// between calls and is not safe for concurrent use; each search worker owns
// one.
type Hasher struct {
	buf    [ChallengeSize + NonceSize]byte
	keccak hash.Hash
	out    [32]byte
}

// NewHasher returns a Hasher.
func NewHasher() *Hasher {
	return &Hasher{keccak: sha3.NewLegacyKeccak256()}
}

// Hash computes the hash of nonce against challenge.
func (h *Hasher) Hash(challenge [ChallengeSize]byte, nonce uint64) Hash {
	copy(h.buf[:], challenge[:])
	binary.LittleEndian.PutUint64(h.buf[ChallengeSize:], nonce)

	sum := blake3.Sum256(h.buf[:])
	var res Hash
	copy(res.Digest[:], sum[:DigestSize])

	h.keccak.Reset()
	h.keccak.Write(res.Digest[:])
	h.keccak.Write(h.buf[ChallengeSize:])
	h.keccak.Sum(h.out[:0])
	res.H = h.out
	return res
}

// HashNonce is a convenience wrapper for a single hash.
func HashNonce(challenge [ChallengeSize]byte, nonce uint64) Hash {
	return NewHasher().Hash(challenge, nonce)
}
