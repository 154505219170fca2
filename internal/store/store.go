package store

import (
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
)

// ErrNotFound is returned when a lookup matches nothing (unknown invite
// code, missing family, missing kid).
var ErrNotFound = errors.New("not found")

// ErrAlreadyReversed is returned when reversing a history entry that has
// already been reversed or is of a non-reversible type.
var ErrAlreadyReversed = errors.New("history entry is not reversible")

// FamilyStore is the SQLite-backed persistence layer for families and
// their collections. It plays the role of the remote store the session
// coordinator pulls snapshots from and pushes collections to.
type FamilyStore struct {
	db *sql.DB
}

func New(db *sql.DB) *FamilyStore {
	return &FamilyStore{db: db}
}

// inviteAlphabet excludes look-alike characters (0/O, 1/I/L).
const inviteAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

const inviteCodeLength = 6

func generateInviteCode() (string, error) {
	code := make([]byte, inviteCodeLength)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(inviteAlphabet))))
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		code[i] = inviteAlphabet[n.Int64()]
	}
	return string(code), nil
}
