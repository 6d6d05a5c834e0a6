// AngelaMos | 2026
// security.go

package core

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/sync/semaphore"
)

const saltLength = 16

var errMalformedHash = errors.New("malformed password hash")

type argonParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

// currentParams is what new hashes use. Stored hashes made with anything
// else are upgraded on the next successful login.
var currentParams = argonParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

func (p argonParams) derive(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
}

// PasswordHasher produces and checks argon2id hashes in PHC string form.
// At most maxConcurrent derivations run at once per process.
type PasswordHasher struct {
	sem *semaphore.Weighted
}

func NewPasswordHasher(maxConcurrent int) *PasswordHasher {
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &PasswordHasher{sem: semaphore.NewWeighted(int64(maxConcurrent))}
}

func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	return hashPassword(password)
}

// Verify checks password against encodedHash in constant time. A nil,
// empty or unparseable hash still burns one derivation against a dummy
// and reports false, so unknown accounts cost the same as wrong
// passwords. When the stored hash uses outdated parameters and the
// password matches, the second result is a fresh hash to persist.
func (h *PasswordHasher) Verify(
	ctx context.Context,
	password string,
	encodedHash *string,
) (bool, string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, "", fmt.Errorf("acquire hash slot: %w", err)
	}
	defer h.sem.Release(1)

	if encodedHash == nil || *encodedHash == "" {
		return false, "", burnDummy(password)
	}

	params, ok, err := verifyPassword(password, *encodedHash)
	if errors.Is(err, errMalformedHash) {
		return false, "", burnDummy(password)
	}
	if err != nil || !ok {
		return false, "", err
	}

	if params == currentParams {
		return true, "", nil
	}

	rehashed, err := hashPassword(password)
	if err != nil {
		//nolint:nilerr // the password matched; the upgrade can wait
		return true, "", nil
	}
	return true, rehashed, nil
}

func burnDummy(password string) error {
	dummy, err := dummyHash()
	if err != nil {
		return err
	}
	//nolint:errcheck // result discarded; only the work matters
	_, _, _ = verifyPassword(password, dummy)
	return nil
}

var dummyHash = sync.OnceValues(func() (string, error) {
	return hashPassword("timing-equaliser-for-unknown-accounts")
})

func hashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := currentParams
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(p.derive(password, salt)),
	), nil
}

func verifyPassword(password, encodedHash string) (argonParams, bool, error) {
	params, salt, want, err := decodeHash(encodedHash)
	if err != nil {
		return argonParams{}, false, err
	}

	got := params.derive(password, salt)
	return params, subtle.ConstantTimeCompare(want, got) == 1, nil
}

func decodeHash(encodedHash string) (argonParams, []byte, []byte, error) {
	var p argonParams

	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, errMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return p, nil, nil, fmt.Errorf("%w: version: %w", errMalformedHash, err)
	}
	if version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: argon2 version %d", errMalformedHash, version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %w", errMalformedHash, err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %w", errMalformedHash, err)
	}

	hash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: hash: %w", errMalformedHash, err)
	}

	//nolint:gosec // G115: argon2 key lengths are tiny
	p.keyLen = uint32(len(hash))

	return p, salt, hash, nil
}

func GenerateSecureToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func GenerateRefreshToken() (string, error) {
	return GenerateSecureToken(32)
}

// HashToken is how refresh tokens are stored and looked up.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
