package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/persistence/middleware"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	// Setup
	underlyingStore := memory.NewStore()
	key := generateKey(t)
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}
	secureStore := mw(underlyingStore)
	ctx := context.Background()

	// 1. Write
	writeAndCommit(t, secureStore, "crm.Customer", domain.Row{"id": "1", "secret": "my-secret-sauce", "score": 42.0})

	// 2. Verify Underlying Store directly (Should be encrypted)
	stored, err := underlyingStore.ReadRows(ctx, "crm.Customer")
	if err != nil {
		t.Fatalf("Underlying read failed: %v", err)
	}
	if stored[0]["id"] != "1" {
		t.Errorf("Expected the id to stay readable, got %v", stored[0]["id"])
	}
	for _, col := range []string{"secret", "score"} {
		s, ok := stored[0][col].(string)
		if !ok || !strings.HasPrefix(s, "enc:v1:") || strings.Contains(s, "my-secret-sauce") {
			t.Errorf("Expected %s to be encrypted, got %v", col, stored[0][col])
		}
	}

	// 3. Read via Middleware (Should be decrypted)
	rows, err := secureStore.ReadRows(ctx, "crm.Customer")
	if err != nil {
		t.Fatalf("Secure read failed: %v", err)
	}
	if rows[0]["secret"] != "my-secret-sauce" {
		t.Errorf("Expected decrypted secret, got %v", rows[0]["secret"])
	}
	if rows[0]["score"] != 42.0 {
		t.Errorf("Expected decrypted score 42, got %v", rows[0]["score"])
	}
}

func TestEncryptionMiddleware_SelectedColumns(t *testing.T) {
	underlyingStore := memory.NewStore()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey: generateKey(t),
		Columns:   []string{"^iban$"},
	})
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware failed: %v", err)
	}

	writeAndCommit(t, mw(underlyingStore), "crm.Customer", domain.Row{"id": "1", "name": "Ada", "iban": "DE00"})

	stored, _ := underlyingStore.ReadRows(context.Background(), "crm.Customer")
	if stored[0]["name"] != "Ada" {
		t.Errorf("Expected name in clear text, got %v", stored[0]["name"])
	}
	if stored[0]["iban"] == "DE00" {
		t.Error("Expected iban to be encrypted")
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	// 1. Write with Old Key
	mwOld, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})
	if err != nil {
		t.Fatal(err)
	}
	writeAndCommit(t, mwOld(underlyingStore), "crm.Customer", domain.Row{"id": "1", "secret": "old"})

	// 2. Rotate: New Key active, Old Key fallback
	mwNew, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	if err != nil {
		t.Fatal(err)
	}
	rows, err := mwNew(underlyingStore).ReadRows(context.Background(), "crm.Customer")
	if err != nil {
		t.Fatalf("Read with fallback key failed: %v", err)
	}
	if rows[0]["secret"] != "old" {
		t.Errorf("Expected 'old', got %v", rows[0]["secret"])
	}

	// 3. Without the old key the value cannot be read
	mwOnlyNew, _ := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: newKey})
	if _, err := mwOnlyNew(underlyingStore).ReadRows(context.Background(), "crm.Customer"); err == nil {
		t.Error("Expected decryption to fail without the old key")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")}); err == nil {
		t.Error("Expected a short key to fail")
	}
}

func TestWrap_Order(t *testing.T) {
	// Masking runs before encryption, so masked columns are stored as the encrypted mask.
	underlyingStore := memory.NewStore()
	pii, _ := middleware.NewPIIMiddleware([]string{"password"})
	enc, _ := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	store := middleware.Wrap(underlyingStore, pii, enc)

	writeAndCommit(t, store, "crm.User", domain.Row{"id": "1", "password": "hunter2"})

	rows, err := store.ReadRows(context.Background(), "crm.User")
	if err != nil {
		t.Fatal(err)
	}
	if rows[0]["password"] != middleware.Mask {
		t.Errorf("Expected masked password, got %v", rows[0]["password"])
	}
}
