package models

import (
	"fmt"
	"time"

	"github.com/timshannon/bolthold"
	"go.etcd.io/bbolt"
)

// credentialKey is the fixed key for the singleton authentication record
const credentialKey = "active"

// Database wraps the bolthold store
type Database struct {
	store *bolthold.Store
}

// NewDatabase creates a new database connection
func NewDatabase(path string) (*Database, error) {
	store, err := bolthold.Open(path, 0600, &bolthold.Options{
		Options: &bbolt.Options{
			Timeout: 1 * time.Second,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Database{store: store}, nil
}

// Close closes the database connection
func (db *Database) Close() error {
	return db.store.Close()
}

// Override operations

// GetOverride retrieves the override for a media ID. Returns nil without an
// error when no override is configured.
func (db *Database) GetOverride(mediaID int64) (*Override, error) {
	var o Override
	err := db.store.Get(mediaID, &o)
	if err == bolthold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read override: %w", err)
	}
	return &o, nil
}

// AllOverrides retrieves every configured override
func (db *Database) AllOverrides() ([]*Override, error) {
	var overrides []*Override
	if err := db.store.Find(&overrides, nil); err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

// UpsertOverride stores an override for a media ID, replacing any existing
// one. An override title is unique across series: a conflicting override on
// another media ID is removed in the same transaction. Storing an override
// with no title and a zero offset deletes the row instead, so no empty
// overrides ever persist.
func (db *Database) UpsertOverride(mediaID int64, titleOverride string, episodeOffset int) (*Override, error) {
	o := &Override{
		MediaID:       mediaID,
		TitleOverride: titleOverride,
		EpisodeOffset: episodeOffset,
		UpdatedAt:     time.Now(),
	}

	err := db.store.Bolt().Update(func(tx *bbolt.Tx) error {
		if o.IsEmpty() {
			err := db.store.TxDelete(tx, mediaID, &Override{})
			if err != nil && err != bolthold.ErrNotFound {
				return err
			}
			return nil
		}

		if o.TitleOverride != "" {
			var conflicts []*Override
			query := bolthold.Where("TitleOverride").Eq(o.TitleOverride).Index("TitleOverride")
			if err := db.store.TxFind(tx, &conflicts, query); err != nil {
				return err
			}
			for _, conflict := range conflicts {
				if conflict.MediaID == mediaID {
					continue
				}
				if err := db.store.TxDelete(tx, conflict.MediaID, &Override{}); err != nil {
					return err
				}
			}
		}

		return db.store.TxUpsert(tx, mediaID, o)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store override: %w", err)
	}

	if o.IsEmpty() {
		return nil, nil
	}
	return o, nil
}

// DeleteOverride removes the override for a media ID if one exists
func (db *Database) DeleteOverride(mediaID int64) error {
	err := db.store.Delete(mediaID, &Override{})
	if err != nil && err != bolthold.ErrNotFound {
		return fmt.Errorf("failed to delete override: %w", err)
	}
	return nil
}

// Credential operations

// GetCredential retrieves the active credential. Returns nil without an
// error when no credential is stored.
func (db *Database) GetCredential() (*Credential, error) {
	var c Credential
	err := db.store.Get(credentialKey, &c)
	if err == bolthold.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential: %w", err)
	}
	return &c, nil
}

// SetCredential stores the credential, atomically replacing any existing one
func (db *Database) SetCredential(c *Credential) error {
	if err := db.store.Upsert(credentialKey, c); err != nil {
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

// ClearCredential deletes the active credential if one exists
func (db *Database) ClearCredential() error {
	err := db.store.Delete(credentialKey, &Credential{})
	if err != nil && err != bolthold.ErrNotFound {
		return fmt.Errorf("failed to clear credential: %w", err)
	}
	return nil
}

// RemoveExpiredCredential deletes the stored credential when it has expired.
// Returns true when a credential was removed.
func (db *Database) RemoveExpiredCredential(now time.Time) (bool, error) {
	c, err := db.GetCredential()
	if err != nil {
		return false, err
	}
	if c == nil || c.Valid(now) {
		return false, nil
	}
	if err := db.ClearCredential(); err != nil {
		return false, err
	}
	return true, nil
}
