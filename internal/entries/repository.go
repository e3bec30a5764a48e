// Package entries is the journal's domain API: list, get, add, update and
// delete entries of the single stored document.
//
// Every call loads the whole document, changes it in memory and saves it
// back. A mutex serialises these cycles within the process; separate
// processes sharing the file are not coordinated and the last save wins.
package entries

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
	"github.com/dmitrijs2005/mindcanvas/internal/models"
	"github.com/dmitrijs2005/mindcanvas/internal/store"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type Repository struct {
	mu      sync.Mutex
	backend store.Backend
	log     logging.Logger
}

func NewRepository(backend store.Backend, log logging.Logger) *Repository {
	return &Repository{backend: backend, log: log}
}

// load reads the document and gives id-less legacy entries an id, saving
// the result once so the ids stay stable. Callers hold r.mu.
func (r *Repository) load(ctx context.Context) (*models.Document, error) {
	doc, err := store.LoadDocument(ctx, r.backend)
	if err != nil {
		return nil, err
	}

	if n := doc.AssignMissingIDs(uuid.NewString); n > 0 {
		if err := r.backend.Save(ctx, doc); err != nil {
			return nil, fmt.Errorf("persist assigned ids: %w", err)
		}
		r.log.Info(ctx, "assigned ids to legacy entries", "count", n)
	}
	return doc, nil
}

func indexOf(doc *models.Document, id string) int {
	_, idx, _ := lo.FindIndexOf(doc.Entries, func(e models.Entry) bool {
		return e.ID == id
	})
	return idx
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", common.ErrValidation)
	}
	return nil
}

// List returns all entries in creation order.
func (r *Repository) List(ctx context.Context) ([]models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Entries, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*models.Entry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(doc, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: entry %s", common.ErrorNotFound, id)
	}
	e := doc.Entries[idx]
	return &e, nil
}

// Add appends a new entry stamped with a fresh id and the current UTC time.
func (r *Repository) Add(ctx context.Context, title, text string, media ...string) (*models.Entry, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	e := models.NewEntry(title, text, media...)
	doc.Entries = append(doc.Entries, e)

	if err := r.backend.Save(ctx, doc); err != nil {
		return nil, err
	}
	r.log.Info(ctx, "entry added", "id", e.ID)
	return &e, nil
}

// Update replaces title and text. Id, timestamp and media are kept.
func (r *Repository) Update(ctx context.Context, id, title, text string) (*models.Entry, error) {
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	idx := indexOf(doc, id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: entry %s", common.ErrorNotFound, id)
	}
	doc.Entries[idx].Title = title
	doc.Entries[idx].Text = text

	if err := r.backend.Save(ctx, doc); err != nil {
		return nil, err
	}
	r.log.Info(ctx, "entry updated", "id", id)
	e := doc.Entries[idx]
	return &e, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.load(ctx)
	if err != nil {
		return err
	}

	idx := indexOf(doc, id)
	if idx < 0 {
		return fmt.Errorf("%w: entry %s", common.ErrorNotFound, id)
	}
	doc.Entries = append(doc.Entries[:idx], doc.Entries[idx+1:]...)

	if err := r.backend.Save(ctx, doc); err != nil {
		return err
	}
	r.log.Info(ctx, "entry deleted", "id", id)
	return nil
}

// Export returns the full decrypted document.
func (r *Repository) Export(ctx context.Context) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.load(ctx)
}
