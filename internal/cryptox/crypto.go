// Package cryptox implements one-way password hashing for stored account
// credentials.
//
// Hashes are derived with Argon2id and a per-password random salt. The stored
// hash string carries the cost parameters it was produced with:
//
//	argon2id$v=19$m=65536,t=1,p=4$<base64 key>
//
// so the configured work factor can be raised without invalidating existing
// accounts. The salt is returned and stored separately.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

const algorithmName = "argon2id"

var errMalformedHash = errors.New("malformed password hash")

// Params controls the Argon2id work factor.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
	SaltLen   uint32
}

// DefaultParams follows the RFC 9106 second recommended option.
var DefaultParams = Params{
	Time:      1,
	MemoryKiB: 64 * 1024,
	Threads:   4,
	KeyLen:    32,
	SaltLen:   16,
}

// Hasher hashes and verifies plaintext passwords. It holds no mutable state
// and is safe for concurrent use.
type Hasher struct {
	params Params
}

// NewHasher returns a Hasher using p. Zero fields fall back to DefaultParams.
func NewHasher(p Params) *Hasher {
	if p.Time == 0 {
		p.Time = DefaultParams.Time
	}
	if p.MemoryKiB == 0 {
		p.MemoryKiB = DefaultParams.MemoryKiB
	}
	if p.Threads == 0 {
		p.Threads = DefaultParams.Threads
	}
	if p.KeyLen == 0 {
		p.KeyLen = DefaultParams.KeyLen
	}
	if p.SaltLen == 0 {
		p.SaltLen = DefaultParams.SaltLen
	}
	return &Hasher{params: p}
}

// Hash derives a new hash for plaintext using a fresh random salt.
func (h *Hasher) Hash(plaintext string) (hash string, salt []byte, err error) {
	salt = common.GenerateRandByteArray(int(h.params.SaltLen))
	key := argon2.IDKey([]byte(plaintext), salt, h.params.Time, h.params.MemoryKiB, h.params.Threads, h.params.KeyLen)
	defer common.WipeByteArray(key)

	return encodeHash(h.params, key), salt, nil
}

// Verify reports whether plaintext matches the stored hash and salt.
// A malformed stored hash yields false.
func (h *Hasher) Verify(plaintext string, hash string, salt []byte) bool {
	if len(salt) == 0 {
		return false
	}

	p, want, err := decodeHash(hash)
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(plaintext), salt, p.Time, p.MemoryKiB, p.Threads, uint32(len(want)))
	defer common.WipeByteArray(got)

	return subtle.ConstantTimeCompare(want, got) == 1
}

func encodeHash(p Params, key []byte) string {
	return fmt.Sprintf("%s$v=%d$m=%d,t=%d,p=%d$%s",
		algorithmName, argon2.Version, p.MemoryKiB, p.Time, p.Threads,
		base64.RawStdEncoding.EncodeToString(key))
}

func decodeHash(s string) (Params, []byte, error) {
	var p Params

	parts := strings.Split(s, "$")
	if len(parts) != 4 || parts[0] != algorithmName {
		return p, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, errMalformedHash
	}

	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &p.MemoryKiB, &p.Time, &p.Threads); err != nil {
		return p, nil, errMalformedHash
	}
	if p.MemoryKiB == 0 || p.Time == 0 || p.Threads == 0 {
		return p, nil, errMalformedHash
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil || len(key) == 0 {
		return p, nil, errMalformedHash
	}
	p.KeyLen = uint32(len(key))

	return p, key, nil
}
