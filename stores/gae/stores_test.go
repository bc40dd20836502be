//go:build !wasm
// +build !wasm

package gae

import (
	"testing"

	ap "github.com/panyam/authpage"
)

func TestProfileKey_MirrorsDocumentPath(t *testing.T) {
	path := ap.ProfilePath{AppID: "shop", UID: "u-123"}
	key := ProfileKey("tenant-a", path)

	if key.Kind != KindProfile || key.Name != ap.ProfileDocID {
		t.Errorf("leaf = %s/%s, want %s/%s", key.Kind, key.Name, KindProfile, ap.ProfileDocID)
	}
	user := key.Parent
	if user == nil || user.Kind != KindUser || user.Name != "u-123" {
		t.Fatalf("parent = %v, want User/u-123", user)
	}
	artifact := user.Parent
	if artifact == nil || artifact.Kind != KindArtifact || artifact.Name != "shop" {
		t.Fatalf("root = %v, want Artifact/shop", artifact)
	}
	if artifact.Parent != nil {
		t.Errorf("artifact key should be a root key")
	}

	for k := key; k != nil; k = k.Parent {
		if k.Namespace != "tenant-a" {
			t.Errorf("key %s namespace = %q, want tenant-a", k.Kind, k.Namespace)
		}
	}
}

func TestEntityConversion(t *testing.T) {
	record := ap.ProfileRecord{Email: "a@b.com", CreatedAt: "2026-10-15T12:00:00.000Z"}
	key := ProfileKey("", ap.ProfilePath{AppID: "app", UID: "uid"})

	entity := RecordToEntity(record, key)
	if got := entity.ToRecord(); *got != record {
		t.Errorf("round trip = %+v, want %+v", *got, record)
	}
	if entity.UpdatedAt.IsZero() {
		t.Errorf("UpdatedAt should be set")
	}
}
