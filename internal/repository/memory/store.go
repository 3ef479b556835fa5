// Package memory holds mutex-guarded repository implementations used by
// tests and by the API when no database is configured.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
)

// Store is shared by every repository so multi-table writes stay atomic.
type Store struct {
	mu sync.RWMutex

	countries     map[uuid.UUID]*model.CountryRequirement
	applications  map[uuid.UUID]*model.VisaApplication
	attendants    map[uuid.UUID][]*model.Attendant
	logs          map[uuid.UUID][]*model.WorkflowLogEntry
	documents     map[uuid.UUID]*model.UploadedDocument
	bookings      map[uuid.UUID]*model.Booking
	outbox        map[uuid.UUID]*model.OutboxEvent
	audits        []*model.AuditLog
	notifications map[uuid.UUID]*model.Notification
	seq           int64
}

func NewStore() *Store {
	return &Store{
		countries:     make(map[uuid.UUID]*model.CountryRequirement),
		applications:  make(map[uuid.UUID]*model.VisaApplication),
		attendants:    make(map[uuid.UUID][]*model.Attendant),
		logs:          make(map[uuid.UUID][]*model.WorkflowLogEntry),
		documents:     make(map[uuid.UUID]*model.UploadedDocument),
		bookings:      make(map[uuid.UUID]*model.Booking),
		outbox:        make(map[uuid.UUID]*model.OutboxEvent),
		notifications: make(map[uuid.UUID]*model.Notification),
	}
}

// AddBooking seeds a booking row; the booking subsystem owns real writes.
func (s *Store) AddBooking(b model.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = &b
}

// OutboxEvents returns a snapshot of every stored event.
func (s *Store) OutboxEvents() []model.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.OutboxEvent, 0, len(s.outbox))
	for _, e := range s.outbox {
		out = append(out, *e)
	}
	return out
}

func (s *Store) Countries() *CountryRequirementRepository {
	return &CountryRequirementRepository{s: s}
}

func (s *Store) Applications() *ApplicationRepository {
	return &ApplicationRepository{s: s}
}

func (s *Store) Documents() *DocumentRepository {
	return &DocumentRepository{s: s}
}

func (s *Store) Bookings() *BookingRepository {
	return &BookingRepository{s: s}
}

func (s *Store) Outbox() *OutboxRepository {
	return &OutboxRepository{s: s}
}

func (s *Store) Audit() *AuditRepository {
	return &AuditRepository{s: s}
}

func (s *Store) Notifications() *NotificationRepository {
	return &NotificationRepository{s: s}
}
