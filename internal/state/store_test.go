package state

import (
	"errors"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	if _, err := s.Get("missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get(missing) error = %v; want ErrKeyNotFound", err)
	}

	if err := s.Set("k", "v1"); err != nil {
		t.Fatalf("Set error = %v", err)
	}
	if got, err := s.Get("k"); err != nil || got != "v1" {
		t.Fatalf("Get = %q, %v", got, err)
	}

	// Overwrite.
	if err := s.Set("k", "v2"); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.Get("k"); got != "v2" {
		t.Fatalf("Get after overwrite = %q", got)
	}

	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete error = %v", err)
	}
	if _, err := s.Get("k"); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("Get after delete error = %v", err)
	}
	// Deleting an absent key is not an error.
	if err := s.Delete("k"); err != nil {
		t.Fatalf("Delete of absent key error = %v", err)
	}
}

func TestMemoryStoreFailureKnobs(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Set("k", "v"); err != nil {
		t.Fatal(err)
	}

	s.FailWrites = true
	if err := s.Set("k", "v2"); err == nil {
		t.Error("Set succeeded with FailWrites")
	}
	if err := s.Delete("k"); err == nil {
		t.Error("Delete succeeded with FailWrites")
	}

	s.FailReads = true
	if _, err := s.Get("k"); err == nil {
		t.Error("Get succeeded with FailReads")
	}

	s.FailWrites, s.FailReads = false, false
	if got, err := s.Get("k"); err != nil || got != "v" {
		t.Fatalf("value lost across failures: %q, %v", got, err)
	}
}
