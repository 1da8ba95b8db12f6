// Package password wraps bcrypt hashing behind a small, total API.
package password

import "golang.org/x/crypto/bcrypt"

const defaultCost = 12

// Hasher produces and verifies salted bcrypt hashes with a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher constructs a Hasher. Costs outside bcrypt's supported range
// fall back to the default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = defaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted hash of the plaintext. bcrypt generates a fresh
// salt per call, so hashing the same plaintext twice yields different
// strings.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the given hash. Malformed
// hashes and internal errors collapse to false; Verify never fails
// upward, since the input may be hostile.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
