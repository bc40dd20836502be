//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	ap "github.com/panyam/authpage"
)

// Kind constants for Datastore entities
const (
	KindArtifact = "Artifact"
	KindUser     = "User"
	KindProfile  = "Profile"
	KindAccount  = "Account"
)

// ============================================================================
// ProfileStore
// ============================================================================

// ProfileStore implements ap.ProfileStore using Google Cloud Datastore
type ProfileStore struct {
	client    *datastore.Client
	namespace string
}

var (
	_ ap.ProfileStore  = (*ProfileStore)(nil)
	_ ap.ProfileReader = (*ProfileStore)(nil)
)

// NewProfileStore creates a new Datastore-backed ProfileStore
func NewProfileStore(client *datastore.Client, namespace string) *ProfileStore {
	return &ProfileStore{
		client:    client,
		namespace: namespace,
	}
}

// ArtifactKey returns the root key for an application's documents
func ArtifactKey(namespace, appID string) *datastore.Key {
	key := datastore.NameKey(KindArtifact, appID, nil)
	key.Namespace = namespace
	return key
}

// ProfileKey returns Artifact(appID)/User(uid)/Profile("data")
func ProfileKey(namespace string, path ap.ProfilePath) *datastore.Key {
	user := datastore.NameKey(KindUser, path.UID, ArtifactKey(namespace, path.AppID))
	user.Namespace = namespace
	profile := datastore.NameKey(KindProfile, ap.ProfileDocID, user)
	profile.Namespace = namespace
	return profile
}

func (s *ProfileStore) WriteProfile(ctx context.Context, path ap.ProfilePath, record ap.ProfileRecord) error {
	if err := path.Validate(); err != nil {
		return err
	}
	key := ProfileKey(s.namespace, path)
	if _, err := s.client.Put(ctx, key, RecordToEntity(record, key)); err != nil {
		return fmt.Errorf("failed to put profile %s: %w", path, err)
	}
	return nil
}

func (s *ProfileStore) ReadProfile(ctx context.Context, path ap.ProfilePath) (*ap.ProfileRecord, error) {
	key := ProfileKey(s.namespace, path)
	var entity ProfileEntity
	if err := s.client.Get(ctx, key, &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ap.ErrProfileNotFound
		}
		return nil, err
	}
	return entity.ToRecord(), nil
}

// ProfileEntry pairs a uid with its profile document
type ProfileEntry struct {
	UID    string
	Record *ap.ProfileRecord
}

// ListProfiles returns every profile stored under appID
func (s *ProfileStore) ListProfiles(ctx context.Context, appID string) ([]ProfileEntry, error) {
	query := datastore.NewQuery(KindProfile).Ancestor(ArtifactKey(s.namespace, appID))
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var entries []ProfileEntry
	it := s.client.Run(ctx, query)
	for {
		var entity ProfileEntity
		key, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		uid := ""
		if key != nil && key.Parent != nil {
			uid = key.Parent.Name
		}
		entries = append(entries, ProfileEntry{UID: uid, Record: entity.ToRecord()})
	}
	return entries, nil
}

// ============================================================================
// AccountStore
// ============================================================================

// AccountStore implements ap.AccountStore using Google Cloud Datastore
type AccountStore struct {
	client    *datastore.Client
	namespace string
}

var _ ap.AccountStore = (*AccountStore)(nil)

// NewAccountStore creates a new Datastore-backed AccountStore
func NewAccountStore(client *datastore.Client, namespace string) *AccountStore {
	return &AccountStore{
		client:    client,
		namespace: namespace,
	}
}

func (s *AccountStore) namespacedKey(email string) *datastore.Key {
	key := datastore.NameKey(KindAccount, email, nil)
	key.Namespace = s.namespace
	return key
}

func (s *AccountStore) GetAccount(ctx context.Context, email string) (*ap.Account, error) {
	var entity AccountEntity
	if err := s.client.Get(ctx, s.namespacedKey(email), &entity); err != nil {
		if errors.Is(err, datastore.ErrNoSuchEntity) {
			return nil, ap.ErrAccountNotFound
		}
		return nil, err
	}
	return entity.ToAccount(), nil
}

// CreateAccount inserts inside a transaction so two registrations of the
// same email cannot both succeed.
func (s *AccountStore) CreateAccount(ctx context.Context, account *ap.Account) error {
	key := s.namespacedKey(account.Email)
	_, err := s.client.RunInTransaction(ctx, func(tx *datastore.Transaction) error {
		var existing AccountEntity
		err := tx.Get(key, &existing)
		if err == nil {
			return ap.ErrAccountExists
		}
		if !errors.Is(err, datastore.ErrNoSuchEntity) {
			return err
		}
		_, err = tx.Put(key, AccountToEntity(account, key))
		return err
	})
	return err
}
