// Package fs provides filesystem-backed authpage stores.
//
// Profiles are stored one JSON file per document, mirroring the document
// path: <root>/artifacts/<appID>/users/<uid>/profile/data.json. Accounts
// are stored under <root>/accounts keyed by a hash of the email address.
// Every write goes through a temp file and rename so readers never see a
// partially written document.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	ap "github.com/panyam/authpage"
)

// ProfileStore stores profile documents as JSON files
type ProfileStore struct {
	StoragePath string
}

var (
	_ ap.ProfileStore  = (*ProfileStore)(nil)
	_ ap.ProfileReader = (*ProfileStore)(nil)
)

func NewProfileStore(storagePath string) *ProfileStore {
	return &ProfileStore{StoragePath: storagePath}
}

func (s *ProfileStore) getProfilePath(path ap.ProfilePath) (string, error) {
	if err := path.Validate(); err != nil {
		return "", err
	}
	if err := safeComponent(path.AppID); err != nil {
		return "", err
	}
	if err := safeComponent(path.UID); err != nil {
		return "", err
	}
	return filepath.Join(s.StoragePath, "artifacts", path.AppID, "users", path.UID, "profile", ap.ProfileDocID+".json"), nil
}

func (s *ProfileStore) WriteProfile(ctx context.Context, path ap.ProfilePath, record ap.ProfileRecord) error {
	filePath, err := s.getProfilePath(path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	return writeAtomicFile(filePath, data)
}

func (s *ProfileStore) ReadProfile(ctx context.Context, path ap.ProfilePath) (*ap.ProfileRecord, error) {
	filePath, err := s.getProfilePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ap.ErrProfileNotFound
		}
		return nil, err
	}

	var record ap.ProfileRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return &record, nil
}
