package security

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHasher_HashAndCompare(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, err := h.Hash("adminpass")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "" || hash == "adminpass" {
		t.Fatalf("Hash returned %q", hash)
	}
	if err := h.Compare(hash, "adminpass"); err != nil {
		t.Fatalf("Compare: %v", err)
	}
}

func TestHasher_CompareWrongPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hash, _ := h.Hash("adminpass")
	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Compare wrong password: want ErrPasswordMismatch, got %v", err)
	}
}

func TestHasher_CompareMalformedHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	err := h.Compare("plaintext", "plaintext")
	if err == nil || errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("Compare malformed hash: want bcrypt error, got %v", err)
	}
}

func TestHasher_CompareDummy(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	if err := h.CompareDummy("no-such-user"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("CompareDummy: want ErrPasswordMismatch, got %v", err)
	}
}

func TestHasher_Cost(t *testing.T) {
	if h := NewHasher(12); h.Cost != 12 {
		t.Errorf("Cost want 12, got %d", h.Cost)
	}
	if h := NewHasher(0); h.Cost != bcrypt.DefaultCost {
		t.Errorf("zero cost should select DefaultCost, got %d", h.Cost)
	}
	if h := NewHasher(1); h.Cost != bcrypt.MinCost {
		t.Errorf("cost 1 should clamp to MinCost, got %d", h.Cost)
	}
	if h := NewHasher(99); h.Cost != bcrypt.MaxCost {
		t.Errorf("cost 99 should clamp to MaxCost, got %d", h.Cost)
	}
}
