// Taskforge - Project Tracking and Team Collaboration Backend
// Copyright 2026 Taskforge Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/taskforge/taskforge

package account

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/taskforge/taskforge/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	accountKeyPrefix = "account:"
	emailKeyPrefix   = "account_email:"
)

// storedAccount is the on-disk record. It exists because
// models.Account hides credential fields from API serialization with
// json:"-", and those fields must survive a round trip to storage.
type storedAccount struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Password        string    `json:"password"`
	Role            string    `json:"role"`
	AuthPayloadHash string    `json:"authPayloadHash"`
	FirstName       string    `json:"firstName"`
	LastName        string    `json:"lastName"`
	Status          string    `json:"status"`
	EmailVerified   bool      `json:"emailVerified"`
	ImageURL        string    `json:"imageUrl"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toStored(acct *models.Account) *storedAccount {
	return &storedAccount{
		ID:              acct.ID,
		Email:           acct.Email,
		Password:        acct.Password,
		Role:            acct.Role,
		AuthPayloadHash: acct.AuthPayloadHash,
		FirstName:       acct.FirstName,
		LastName:        acct.LastName,
		Status:          acct.Status,
		EmailVerified:   acct.EmailVerified,
		ImageURL:        acct.ImageURL,
		CreatedAt:       acct.CreatedAt,
		UpdatedAt:       acct.UpdatedAt,
	}
}

func (r *storedAccount) toModel() *models.Account {
	return &models.Account{
		ID:              r.ID,
		Email:           r.Email,
		Password:        r.Password,
		Role:            r.Role,
		AuthPayloadHash: r.AuthPayloadHash,
		FirstName:       r.FirstName,
		LastName:        r.LastName,
		Status:          r.Status,
		EmailVerified:   r.EmailVerified,
		ImageURL:        r.ImageURL,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

// BadgerStore implements Store on BadgerDB. Accounts are stored under
// account:<id> with an account_email:<email> index entry pointing back
// at the ID, which gives unique-email enforcement and O(1) email
// lookups inside one transaction.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a Badger-backed account store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// Create persists a new account and its email index entry. The email
// uniqueness check and both writes happen in one transaction.
func (s *BadgerStore) Create(_ context.Context, acct *models.Account) error {
	data, err := json.Marshal(toStored(acct))
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte(emailKeyPrefix + acct.Email)
		switch _, err := txn.Get(emailKey); {
		case err == nil:
			return ErrUserExisted
		case !errors.Is(err, badger.ErrKeyNotFound):
			return fmt.Errorf("check email index: %w", err)
		}

		if err := txn.Set([]byte(accountKeyPrefix+acct.ID), data); err != nil {
			return fmt.Errorf("set account: %w", err)
		}
		if err := txn.Set(emailKey, []byte(acct.ID)); err != nil {
			return fmt.Errorf("set email index: %w", err)
		}
		return nil
	})
}

// Update rewrites an account record. The email index follows along when
// the address changed.
func (s *BadgerStore) Update(_ context.Context, acct *models.Account) error {
	data, err := json.Marshal(toStored(acct))
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		prev, err := getStored(txn, acct.ID)
		if err != nil {
			return err
		}

		if err := txn.Set([]byte(accountKeyPrefix+acct.ID), data); err != nil {
			return fmt.Errorf("set account: %w", err)
		}

		if prev.Email != acct.Email {
			if err := txn.Delete([]byte(emailKeyPrefix + prev.Email)); err != nil {
				return fmt.Errorf("delete stale email index: %w", err)
			}
			if err := txn.Set([]byte(emailKeyPrefix+acct.Email), []byte(acct.ID)); err != nil {
				return fmt.Errorf("set email index: %w", err)
			}
		}
		return nil
	})
}

// FindByEmail resolves an account through the email index.
func (s *BadgerStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	var acct *models.Account

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(emailKeyPrefix + email))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return models.ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("get email index: %w", err)
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		stored, err := getStored(txn, id)
		if err != nil {
			return err
		}
		acct = stored.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// FindByID resolves an account by its primary key.
func (s *BadgerStore) FindByID(_ context.Context, id string) (*models.Account, error) {
	var acct *models.Account

	err := s.db.View(func(txn *badger.Txn) error {
		stored, err := getStored(txn, id)
		if err != nil {
			return err
		}
		acct = stored.toModel()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acct, nil
}

// SaveAuthPayloadHash rewrites only the session marker of an account.
func (s *BadgerStore) SaveAuthPayloadHash(_ context.Context, id, marker string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		stored, err := getStored(txn, id)
		if err != nil {
			return err
		}

		stored.AuthPayloadHash = marker
		stored.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(stored)
		if err != nil {
			return fmt.Errorf("marshal account: %w", err)
		}
		return txn.Set([]byte(accountKeyPrefix+id), data)
	})
}

// List returns all accounts ordered by creation time.
func (s *BadgerStore) List(_ context.Context) ([]*models.Account, error) {
	var accounts []*models.Account

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(accountKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var stored storedAccount
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &stored)
			}); err != nil {
				return fmt.Errorf("unmarshal account: %w", err)
			}
			accounts = append(accounts, stored.toModel())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
	})
	return accounts, nil
}

// Count returns the number of stored accounts without materializing
// their values.
func (s *BadgerStore) Count(_ context.Context) (int64, error) {
	var count int64

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(accountKeyPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func getStored(txn *badger.Txn, id string) (*storedAccount, error) {
	item, err := txn.Get([]byte(accountKeyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	var stored storedAccount
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &stored)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &stored, nil
}
