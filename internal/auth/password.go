package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher hashes passwords with a per-call random salt and verifies candidates.
// Verify never errors: a malformed hash simply does not match.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}

// Argon2id parameters - tuned for security vs performance balance
// Time: 3, Memory: 64MB, Threads: 4, KeyLen: 32 bytes
const (
	argon2Time    = 3
	argon2Memory  = 64 * 1024 // 64 MB
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16

	argon2Prefix = "$argon2id$"
)

// equalizerPassword is hashed into dummy values that stand in for a missing or corrupt stored hash,
// so "no such user" and "corrupt hash" cost as much as a wrong password.
const equalizerPassword = "finance-tracker-timing-equalizer"

var equalizerSalt = []byte("finance-tracker!")

// BcryptHasher hashes with bcrypt at a fixed cost
type BcryptHasher struct {
	cost  int
	dummy []byte // hash of equalizerPassword at cost
}

func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(equalizerPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare bcrypt hasher: %w", err)
	}
	return &BcryptHasher{cost: cost, dummy: dummy}, nil
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, encodedHash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
	if err == nil {
		return true
	}
	if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		// unusable stored hash: spend one comparison at the configured cost anyway
		_ = bcrypt.CompareHashAndPassword(h.dummy, []byte(password))
	}
	return false
}

// Argon2Hasher hashes with argon2id in the PHC string format
type Argon2Hasher struct{}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{}
}

// Hash encodes as: $argon2id$v=19$m=65536,t=3,p=4$salt$hash
func (h *Argon2Hasher) Hash(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		argon2Memory,
		argon2Time,
		argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

func (h *Argon2Hasher) Verify(password, encodedHash string) bool {
	params, salt, want, ok := decodeArgon2(encodedHash)
	if !ok {
		_ = argon2.IDKey([]byte(password), equalizerSalt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)
		return false
	}

	got := argon2.IDKey([]byte(password), salt, params.time, params.memory, params.threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
}

func decodeArgon2(encodedHash string) (argon2Params, []byte, []byte, bool) {
	var p argon2Params

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, false
	}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, false
	}
	// refuse parameters that would let a tampered row exhaust memory or CPU
	if p.memory == 0 || p.memory > 1<<20 || p.time == 0 || p.time > 16 || p.threads == 0 {
		return p, nil, nil, false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil || len(salt) == 0 {
		return p, nil, nil, false
	}
	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(hash) == 0 {
		return p, nil, nil, false
	}

	return p, salt, hash, true
}

// MultiHasher hashes with one algorithm and verifies any supported encoding,
// so changing PASSWORD_HASHER does not lock out existing users.
type MultiHasher struct {
	primary PasswordHasher
	bcrypt  *BcryptHasher
	argon2  *Argon2Hasher
}

// NewPasswordHasher builds the hasher selected by configuration ("bcrypt" or "argon2id")
func NewPasswordHasher(algorithm string, bcryptCost int) (*MultiHasher, error) {
	bh, err := NewBcryptHasher(bcryptCost)
	if err != nil {
		return nil, err
	}
	ah := NewArgon2Hasher()

	m := &MultiHasher{bcrypt: bh, argon2: ah}
	switch algorithm {
	case "bcrypt":
		m.primary = bh
	case "argon2id":
		m.primary = ah
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", algorithm)
	}
	return m, nil
}

func (m *MultiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *MultiHasher) Verify(password, encodedHash string) bool {
	if strings.HasPrefix(encodedHash, argon2Prefix) {
		return m.argon2.Verify(password, encodedHash)
	}
	return m.bcrypt.Verify(password, encodedHash)
}
