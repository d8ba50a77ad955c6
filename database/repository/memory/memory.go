// Package memory holds map-backed repositories with the same semantics as the Mongo ones.
// Service tests run against them.
package memory

import (
	"context"
	"sort"
	"sync"

	"medbook/database"
	bookingRepo "medbook/database/repository/booking"
	"medbook/models"
)

type BookingRepo struct {
	mu    sync.Mutex
	items map[string]models.Booking
	// FailUpdate, when set, is returned by the next Update.
	FailUpdate error
}

func NewBookingRepo() *BookingRepo {
	return &BookingRepo{items: map[string]models.Booking{}}
}

func cloneBooking(b models.Booking) models.Booking {
	b.StatusHistory = append([]models.StatusEvent(nil), b.StatusHistory...)
	return b
}

func (r *BookingRepo) Create(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.BookingNumber == b.BookingNumber {
			return database.ErrDuplicate
		}
	}
	if _, ok := r.items[b.ID]; ok {
		return database.ErrDuplicate
	}
	r.items[b.ID] = cloneBooking(*b)
	return nil
}

func (r *BookingRepo) GetByID(_ context.Context, id string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.items[id]
	if !ok {
		return nil, database.ErrNotFound
	}
	out := cloneBooking(b)
	return &out, nil
}

func (r *BookingRepo) GetByNumber(_ context.Context, number string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.items {
		if b.BookingNumber == number {
			out := cloneBooking(b)
			return &out, nil
		}
	}
	return nil, database.ErrNotFound
}

func (r *BookingRepo) Update(_ context.Context, b *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailUpdate != nil {
		err := r.FailUpdate
		r.FailUpdate = nil
		return err
	}
	stored, ok := r.items[b.ID]
	if !ok {
		return database.ErrNotFound
	}
	if stored.Version != b.Version {
		return database.ErrVersionConflict
	}
	b.Version++
	r.items[b.ID] = cloneBooking(*b)
	return nil
}

func (r *BookingRepo) List(_ context.Context, f bookingRepo.BookingFilter) ([]models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []models.Booking
	for _, b := range r.items {
		if f.PatientID != "" && b.PatientID != f.PatientID {
			continue
		}
		if f.CoordinatorID != "" && b.CoordinatorID != f.CoordinatorID {
			continue
		}
		if f.Status != "" && b.Status != f.Status {
			continue
		}
		if f.Priority != "" && b.Priority != f.Priority {
			continue
		}
		matched = append(matched, cloneBooking(b))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PriorityRank != matched[j].PriorityRank {
			return matched[i].PriorityRank > matched[j].PriorityRank
		}
		return matched[i].RequestedDate.Before(matched[j].RequestedDate)
	})
	total := int64(len(matched))
	page, size := f.Page, f.PageSize
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	start := (page - 1) * size
	if start >= total {
		return []models.Booking{}, total, nil
	}
	end := start + size
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// Put seeds a booking directly.
func (r *BookingRepo) Put(b models.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[b.ID] = cloneBooking(b)
}
