package memory

import (
	"context"
	"sort"
	"sync"

	"medbook/database"
	"medbook/models"
)

type PaymentRepo struct {
	mu    sync.Mutex
	items map[string]models.Payment
}

func NewPaymentRepo() *PaymentRepo {
	return &PaymentRepo{items: map[string]models.Payment{}}
}

func (r *PaymentRepo) Create(_ context.Context, p *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; ok {
		return database.ErrDuplicate
	}
	stored := *p
	stored.ClientSecret = ""
	r.items[p.ID] = stored
	return nil
}

func (r *PaymentRepo) GetByID(_ context.Context, id string) (*models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	return &p, nil
}

func (r *PaymentRepo) ListByBooking(_ context.Context, bookingID string) ([]models.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Payment{}
	for _, p := range r.items {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *PaymentRepo) UpdateFromStatus(_ context.Context, p *models.Payment, from models.PaymentStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.items[p.ID]
	if !ok || stored.PaymentStatus != from {
		return database.ErrVersionConflict
	}
	r.items[p.ID] = *p
	return nil
}
