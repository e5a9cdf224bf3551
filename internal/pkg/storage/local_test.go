package storage

import (
	"bytes"
	"context"
	"testing"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir(), "http://localhost:8080/uploads/originals")
	if err != nil {
		t.Fatal(err)
	}

	key := "user-1/123-dish.png"
	payload := []byte("png bytes")
	if err := s.Save(context.Background(), key, bytes.NewReader(payload), "image/png"); err != nil {
		t.Fatal(err)
	}

	got, err := s.Load(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("loaded %q, want %q", got, payload)
	}

	if url := s.GetURL(key); url != "http://localhost:8080/uploads/originals/"+key {
		t.Errorf("url = %q", url)
	}

	if err := s.Delete(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(context.Background(), key); err == nil {
		t.Error("load after delete succeeded")
	}
	// Deleting a missing key is not an error.
	if err := s.Delete(context.Background(), key); err != nil {
		t.Errorf("second delete: %v", err)
	}
}
