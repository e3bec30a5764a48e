// Package store persists a single JSON document, encrypted at rest.
//
// On disk the document is the marker line "ENCRYPTED\n" followed by
// nonce||AES-256-GCM ciphertext of the indented JSON. Files without the
// marker are read as plaintext JSON so data from before encryption was
// introduced still loads; they are encrypted on the next save.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/models"
)

// Marker prefixes every encrypted document.
const Marker = "ENCRYPTED\n"

// Backend loads and saves one JSON-serialisable value.
type Backend interface {
	// Load decodes the stored document into v. A missing document is
	// common.ErrorNotFound.
	Load(ctx context.Context, v any) error
	// Save replaces the stored document with v.
	Save(ctx context.Context, v any) error
	Exists(ctx context.Context) (bool, error)
}

// CreateBlank stores an empty journal document.
func CreateBlank(ctx context.Context, b Backend) error {
	return b.Save(ctx, models.NewDocument())
}

// EnsureExists creates a blank document unless one is already stored and
// reports whether it did.
func EnsureExists(ctx context.Context, b Backend) (bool, error) {
	ok, err := b.Exists(ctx)
	if err != nil {
		return false, err
	}
	if ok {
		return false, nil
	}
	if err := CreateBlank(ctx, b); err != nil {
		return false, err
	}
	return true, nil
}

// LoadDocument loads the journal, treating a missing document as empty.
func LoadDocument(ctx context.Context, b Backend) (*models.Document, error) {
	doc := models.NewDocument()
	err := b.Load(ctx, doc)
	if errors.Is(err, common.ErrorNotFound) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, err
	}
	if doc.Entries == nil {
		doc.Entries = []models.Entry{}
	}
	return doc, nil
}

func parseErr(err error) error {
	return fmt.Errorf("%w: %w", common.ErrParse, err)
}
