// Package store persists one ledger document per user. Every backend overwrites the
// whole document on save and keys it by user id, so users never see each other's data.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ashmitsharp/trackmoney-api/internal/ledger"
	"github.com/ashmitsharp/trackmoney-api/internal/models"
)

// DocumentVersion is bumped whenever the persisted layout changes
const DocumentVersion = 1

var (
	ErrNotFound      = errors.New("document not found")
	ErrInvalidUserID = errors.New("invalid user id")
)

// Document is everything stored for a user
type Document struct {
	Version   int            `json:"version"`
	Profile   models.Profile `json:"profile"`
	Ledger    ledger.State   `json:"ledger"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// NewDocument returns the default for a user with nothing stored yet
func NewDocument() *Document {
	return &Document{
		Version: DocumentVersion,
		Ledger:  ledger.NewState(),
	}
}

// Store loads and saves ledger documents
type Store interface {
	// Load returns ErrNotFound when nothing is stored for userID
	Load(ctx context.Context, userID string) (*Document, error)
	// Save replaces whatever is stored for userID
	Save(ctx context.Context, userID string, doc *Document) error
	Close() error
}

// ValidateUserID rejects ids that cannot be used verbatim as a storage key
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty", ErrInvalidUserID)
	}
	if len(userID) > 128 {
		return fmt.Errorf("%w: too long", ErrInvalidUserID)
	}
	for _, r := range userID {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			continue
		}
		return fmt.Errorf("%w: unexpected character %q", ErrInvalidUserID, r)
	}
	return nil
}

func encodeDocument(doc *Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("document cannot be nil")
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (*Document, error) {
	doc := NewDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if doc.Ledger.Transactions == nil {
		doc.Ledger.Transactions = []models.Transaction{}
	}
	if doc.Version == 0 {
		doc.Version = DocumentVersion
	}
	return doc, nil
}
