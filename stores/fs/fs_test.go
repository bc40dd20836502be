package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	ap "github.com/panyam/authpage"
)

func TestProfileStore_WriteRead(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewProfileStore(tmpDir)
	ctx := context.Background()
	path := ap.ProfilePath{AppID: "shop", UID: "uid-1"}

	// Initially missing
	if _, err := store.ReadProfile(ctx, path); !errors.Is(err, ap.ErrProfileNotFound) {
		t.Fatalf("ReadProfile() error = %v, want ErrProfileNotFound", err)
	}

	record := ap.NewProfileRecord("a@b.com", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := store.WriteProfile(ctx, path, record); err != nil {
		t.Fatalf("WriteProfile() error = %v", err)
	}

	got, err := store.ReadProfile(ctx, path)
	if err != nil {
		t.Fatalf("ReadProfile() error = %v", err)
	}
	if *got != record {
		t.Errorf("ReadProfile() = %+v, want %+v", got, record)
	}

	// The file mirrors the document path and uses the wire field names
	data, err := os.ReadFile(filepath.Join(tmpDir, "artifacts", "shop", "users", "uid-1", "profile", "data.json"))
	if err != nil {
		t.Fatalf("profile file not at document path: %v", err)
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("profile file is not JSON: %v", err)
	}
	if raw["email"] != "a@b.com" || raw["createdAt"] != "2026-01-02T03:04:05.000Z" {
		t.Errorf("profile file = %v", raw)
	}
}

func TestProfileStore_Overwrite(t *testing.T) {
	store := NewProfileStore(t.TempDir())
	ctx := context.Background()
	path := ap.ProfilePath{AppID: "shop", UID: "uid-1"}

	first := ap.ProfileRecord{Email: "a@b.com", CreatedAt: "2026-01-01T00:00:00.000Z"}
	second := ap.ProfileRecord{Email: "a@b.com", CreatedAt: "2026-02-01T00:00:00.000Z"}

	for _, r := range []ap.ProfileRecord{first, first, second} {
		if err := store.WriteProfile(ctx, path, r); err != nil {
			t.Fatalf("WriteProfile() error = %v", err)
		}
	}

	got, err := store.ReadProfile(ctx, path)
	if err != nil {
		t.Fatalf("ReadProfile() error = %v", err)
	}
	if *got != second {
		t.Errorf("ReadProfile() = %+v, want %+v", got, second)
	}

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(mustProfilePath(t, store, path)))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("profile dir has %d entries, want 1", len(entries))
	}
}

func mustProfilePath(t *testing.T, s *ProfileStore, path ap.ProfilePath) string {
	t.Helper()
	p, err := s.getProfilePath(path)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestProfileStore_RejectsUnsafePaths(t *testing.T) {
	store := NewProfileStore(t.TempDir())
	ctx := context.Background()
	record := ap.ProfileRecord{Email: "a@b.com"}

	tests := []ap.ProfilePath{
		{AppID: "", UID: "uid"},
		{AppID: "shop", UID: ""},
		{AppID: "..", UID: "uid"},
		{AppID: "shop", UID: "../../etc"},
		{AppID: `a\b`, UID: "uid"},
	}
	for _, path := range tests {
		if err := store.WriteProfile(ctx, path, record); err == nil {
			t.Errorf("WriteProfile(%+v) should fail", path)
		}
	}
}

func TestProfileStore_CancelledContext(t *testing.T) {
	store := NewProfileStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.WriteProfile(ctx, ap.ProfilePath{AppID: "shop", UID: "uid"}, ap.ProfileRecord{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("WriteProfile() error = %v, want context.Canceled", err)
	}
}

func TestAccountStore_CreateGet(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewAccountStore(tmpDir)
	ctx := context.Background()

	if _, err := store.GetAccount(ctx, "a@b.com"); !errors.Is(err, ap.ErrAccountNotFound) {
		t.Fatalf("GetAccount() error = %v, want ErrAccountNotFound", err)
	}

	account := &ap.Account{
		UID:          "uid-1",
		Email:        "a@b.com",
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		t.Fatalf("CreateAccount() error = %v", err)
	}
	if err := store.CreateAccount(ctx, account); !errors.Is(err, ap.ErrAccountExists) {
		t.Errorf("duplicate CreateAccount() error = %v, want ErrAccountExists", err)
	}

	got, err := store.GetAccount(ctx, "a@b.com")
	if err != nil {
		t.Fatalf("GetAccount() error = %v", err)
	}
	if got.UID != "uid-1" || got.PasswordHash != account.PasswordHash || !got.CreatedAt.Equal(account.CreatedAt) {
		t.Errorf("GetAccount() = %+v", got)
	}

	// A second store over the same directory sees the account
	reopened := NewAccountStore(tmpDir)
	if _, err := reopened.GetAccount(ctx, "a@b.com"); err != nil {
		t.Errorf("reopened GetAccount() error = %v", err)
	}
}

func TestSafeComponent(t *testing.T) {
	for _, ok := range []string{"shop", "uid-1", "a.b"} {
		if err := safeComponent(ok); err != nil {
			t.Errorf("safeComponent(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := safeComponent(bad); err == nil {
			t.Errorf("safeComponent(%q) should fail", bad)
		}
	}
}
