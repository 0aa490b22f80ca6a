package password

import (
	"errors"
	"strings"
	"testing"
)

func fastParams() Params {
	return Params{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func TestHashAndVerify(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	hash, err := hasher.Hash("P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$v=19$m=8192,t=1,p=1$") {
		t.Fatalf("unexpected PHC prefix: %s", hash)
	}

	ok, err := hasher.Verify(hash, "P@ssw0rd-Ascii")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected password verification to succeed")
	}
}

func TestVerifyWrongPassword(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	hash, err := hasher.Hash("correct-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	ok, err := hasher.Verify(hash, "wrong-password")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if ok {
		t.Fatal("expected wrong password verification to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	h1, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	h2, err := hasher.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}
	if h1 == h2 {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestHashRejectsShortPassword(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	if _, err := hasher.Hash("short"); err == nil {
		t.Fatal("expected error for short password")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	hasher, err := NewHasher(fastParams())
	if err != nil {
		t.Fatalf("NewHasher error: %v", err)
	}

	cases := []string{
		"",
		"not-a-phc-string",
		"$bcrypt$v=19$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA==",
		"$argon2id$v=18$m=8192,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA==",
		"$argon2id$v=19$m=8192,t=1$c2FsdHNhbHRzYWx0c2FsdA$aGFzaA==",
		"$argon2id$v=19$m=8192,t=1,p=1$!!!$aGFzaA==",
	}
	for _, hash := range cases {
		if _, err := hasher.Verify(hash, "whatever-password"); !errors.Is(err, ErrMalformedHash) {
			t.Fatalf("Verify(%q) err = %v, want ErrMalformedHash", hash, err)
		}
	}
}

func TestNeedsRehash(t *testing.T) {
	oldHasher, err := NewHasher(fastParams())
	if err != nil {
		t.Fatalf("NewHasher(old) error: %v", err)
	}

	hash, err := oldHasher.Hash("test-password")
	if err != nil {
		t.Fatalf("Hash error: %v", err)
	}

	newHasher, err := NewHasher(Params{
		Memory:      16 * 1024,
		Time:        2,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewHasher(new) error: %v", err)
	}

	upgrade, err := newHasher.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if !upgrade {
		t.Fatal("expected rehash to be required under stronger parameters")
	}

	upgrade, err = oldHasher.NeedsRehash(hash)
	if err != nil {
		t.Fatalf("NeedsRehash error: %v", err)
	}
	if upgrade {
		t.Fatal("expected no rehash under identical parameters")
	}

	// Old hashes stay verifiable under the upgraded hasher.
	ok, err := newHasher.Verify(hash, "test-password")
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if !ok {
		t.Fatal("expected old hash to verify under new hasher")
	}
}

func TestNewHasherRejectsWeakParams(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Params)
	}{
		{"memory", func(p *Params) { p.Memory = 1024 }},
		{"time", func(p *Params) { p.Time = 0 }},
		{"parallelism", func(p *Params) { p.Parallelism = 0 }},
		{"salt", func(p *Params) { p.SaltLength = 8 }},
		{"key", func(p *Params) { p.KeyLength = 8 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := fastParams()
			tc.mutate(&p)
			if _, err := NewHasher(p); err == nil {
				t.Fatal("expected parameter validation error")
			}
		})
	}
}
