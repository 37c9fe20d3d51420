package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/catena/pkg/adapters/memory"
	"github.com/aretw0/catena/pkg/domain"
	"github.com/aretw0/catena/pkg/persistence/middleware"
	"github.com/aretw0/catena/pkg/ports"
)

func writeAndCommit(t *testing.T, store middleware.Store, object string, rows ...domain.Row) {
	t.Helper()
	ctx := context.Background()
	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	w, ok := tx.(ports.RowWriter)
	if !ok {
		t.Fatal("Expected the transaction to write rows")
	}
	if err := w.WriteRows(ctx, object, rows); err != nil {
		t.Fatalf("WriteRows failed: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
}

func TestPIIMiddleware_Masking(t *testing.T) {
	// Setup
	underlyingStore := memory.NewStore()
	// Mask columns containing "password" or "ssn"
	mw, err := middleware.NewPIIMiddleware([]string{"password", "ssn"})
	if err != nil {
		t.Fatalf("NewPIIMiddleware failed: %v", err)
	}
	secureStore := mw(underlyingStore)

	// Populate with mixed data
	row := domain.Row{
		"id":            "1",
		"username":      "jdoe",
		"user_password": "secret123",
		"details": map[string]any{
			"address":    "123 St",
			"ssn_number": "999-99-9999",
		},
	}

	// 1. Write
	writeAndCommit(t, secureStore, "crm.Customer", row)

	// Verify the written row is NOT MODIFIED (Immutability check)
	if row["user_password"] != "secret123" {
		t.Error("Middleware modified the original row in memory!")
	}
	if row["details"].(map[string]any)["ssn_number"] != "999-99-9999" {
		t.Error("Middleware modified the nested original row in memory!")
	}

	// 2. Read from Underlying Store (Should be masked)
	rows, err := underlyingStore.ReadRows(context.Background(), "crm.Customer")
	if err != nil {
		t.Fatalf("Underlying read failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	stored := rows[0]

	// Check masking
	if stored["username"] != "jdoe" {
		t.Error("Username shouldn't be masked")
	}
	if stored["user_password"] != middleware.Mask {
		t.Errorf("Password should be masked, got: %v", stored["user_password"])
	}

	details := stored["details"].(map[string]any)
	if details["ssn_number"] != middleware.Mask {
		t.Errorf("Nested SSN should be masked, got: %v", details["ssn_number"])
	}
	if details["address"] != "123 St" {
		t.Errorf("Address shouldn't be masked, got: %v", details["address"])
	}
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	if _, err := middleware.NewPIIMiddleware([]string{"("}); err == nil {
		t.Error("Expected an invalid pattern to fail")
	}
}
