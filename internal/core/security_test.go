// AngelaMos | 2026
// security_test.go

package core

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"golang.org/x/crypto/argon2"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	h := NewPasswordHasher(2)
	ctx := context.Background()

	encoded, err := h.Hash(ctx, "secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected encoding %q", encoded)
	}

	ok, rehash, err := h.Verify(ctx, "secret1", &encoded)
	if err != nil || !ok {
		t.Fatalf("verify = %v, %v", ok, err)
	}
	if rehash != "" {
		t.Error("current parameters must not trigger a rehash")
	}

	if ok, _, _ := h.Verify(ctx, "secret2", &encoded); ok {
		t.Error("wrong password accepted")
	}
}

func TestPasswordHasherMissingHash(t *testing.T) {
	h := NewPasswordHasher(1)
	empty := ""

	for _, hash := range []*string{nil, &empty} {
		ok, rehash, err := h.Verify(context.Background(), "anything", hash)
		if ok || rehash != "" || err != nil {
			t.Fatalf("verify(%v) = %v, %q, %v", hash, ok, rehash, err)
		}
	}
}

func TestPasswordHasherUpgradesWeakHash(t *testing.T) {
	salt := []byte("0123456789abcdef")
	weak := argonParams{memory: 8 * 1024, time: 1, threads: 1, keyLen: 32}
	legacy := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, weak.memory, weak.time, weak.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(weak.derive("secret1", salt)),
	)

	h := NewPasswordHasher(1)
	ok, rehash, err := h.Verify(context.Background(), "secret1", &legacy)
	if err != nil || !ok {
		t.Fatalf("verify legacy = %v, %v", ok, err)
	}
	if rehash == "" || rehash == legacy {
		t.Fatal("expected an upgraded hash")
	}

	params, _, _, err := decodeHash(rehash)
	if err != nil || params != currentParams {
		t.Fatalf("rehash params = %+v, %v", params, err)
	}
}

func TestPasswordHasherTreatsMalformedHashAsMismatch(t *testing.T) {
	h := NewPasswordHasher(1)

	for _, bad := range []string{
		"$bcrypt$whatever",
		"$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy",
		"$argon2id$v=19$m=65536,t=1,p=4$!!!$!!!",
	} {
		ok, rehash, err := h.Verify(context.Background(), "secret1", &bad)
		if ok || rehash != "" || err != nil {
			t.Fatalf("verify(%q) = %v, %q, %v", bad, ok, rehash, err)
		}
	}

	if _, _, _, err := decodeHash("$bcrypt$whatever"); !errors.Is(err, errMalformedHash) {
		t.Fatalf("decodeHash error = %v", err)
	}
}

func TestPasswordHasherHonoursContext(t *testing.T) {
	h := NewPasswordHasher(1)
	if err := h.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer h.sem.Release(1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := h.Hash(ctx, "secret1"); err == nil {
		t.Fatal("hash should fail when no slot frees up before cancellation")
	}
}

func TestRedisKey(t *testing.T) {
	if got := RedisKey("blacklist", "abc"); got != "tourguide:blacklist:abc" {
		t.Fatalf("RedisKey = %q", got)
	}
}
