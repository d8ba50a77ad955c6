package memory

import (
	"context"
	"sort"
	"sync"

	"medbook/database"
	"medbook/models"
)

type DocumentRepo struct {
	mu    sync.Mutex
	items map[string]models.Document
	// FailCreate, when set, is returned by the next Create.
	FailCreate error
}

func NewDocumentRepo() *DocumentRepo {
	return &DocumentRepo{items: map[string]models.Document{}}
}

func (r *DocumentRepo) Create(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		err := r.FailCreate
		r.FailCreate = nil
		return err
	}
	r.items[doc.ID] = *doc
	return nil
}

func (r *DocumentRepo) GetByID(_ context.Context, kind models.DocumentKind, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.items[id]
	if !ok || doc.Kind != kind || doc.DeletedAt != nil {
		return nil, database.ErrNotFound
	}
	return &doc, nil
}

func (r *DocumentRepo) ListByBooking(_ context.Context, bookingID string, kind models.DocumentKind) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Document{}
	for _, doc := range r.items {
		if doc.BookingID == bookingID && doc.Kind == kind && doc.DeletedAt == nil {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (r *DocumentRepo) Update(_ context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[doc.ID]
	if !ok || stored.Kind != doc.Kind {
		return database.ErrNotFound
	}
	r.items[doc.ID] = *doc
	return nil
}

func (r *DocumentRepo) Delete(_ context.Context, kind models.DocumentKind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[id]
	if !ok || stored.Kind != kind {
		return database.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// Raw returns a row regardless of soft deletion.
func (r *DocumentRepo) Raw(id string) (models.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.items[id]
	return doc, ok
}

func (r *DocumentRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}
