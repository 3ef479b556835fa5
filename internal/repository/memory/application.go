package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/kethan23/build-buddy-app-766-sub000/internal/model"
	apperrors "github.com/kethan23/build-buddy-app-766-sub000/pkg/errors"
)

type ApplicationRepository struct {
	s *Store
}

func cloneApplication(a *model.VisaApplication) *model.VisaApplication {
	cp := *a
	cp.RequiredDocuments = append(pq.StringArray(nil), a.RequiredDocuments...)
	if a.RejectionReason != nil {
		reason := *a.RejectionReason
		cp.RejectionReason = &reason
	}
	return &cp
}

// appendLog must be called with the lock held.
func (r *ApplicationRepository) appendLog(e *model.WorkflowLogEntry) {
	r.s.seq++
	e.Seq = r.s.seq
	cp := *e
	r.s.logs[e.ApplicationID] = append(r.s.logs[e.ApplicationID], &cp)
}

// appendEvent must be called with the lock held.
func (r *ApplicationRepository) appendEvent(e *model.OutboxEvent) {
	if e == nil {
		return
	}
	cp := *e
	r.s.outbox[e.ID] = &cp
}

func (r *ApplicationRepository) Create(_ context.Context, app *model.VisaApplication, attendants []*model.Attendant, entry *model.WorkflowLogEntry, event *model.OutboxEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.applications[app.ID]; exists {
		return apperrors.Conflict("visa application already exists", nil)
	}
	r.s.applications[app.ID] = cloneApplication(app)
	for _, a := range attendants {
		cp := *a
		r.s.attendants[app.ID] = append(r.s.attendants[app.ID], &cp)
	}
	r.appendLog(entry)
	r.appendEvent(event)
	return nil
}

func (r *ApplicationRepository) Get(_ context.Context, id uuid.UUID) (*model.VisaApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.applications[id]
	if !ok {
		return nil, apperrors.NotFound("visa application", nil)
	}
	return cloneApplication(a), nil
}

// servedBy must be called with the lock held.
func (r *ApplicationRepository) servedBy(hospitalID, patientID uuid.UUID) bool {
	for _, b := range r.s.bookings {
		if b.HospitalID == hospitalID && b.PatientID == patientID {
			return true
		}
	}
	return false
}

func (r *ApplicationRepository) List(_ context.Context, filter model.ApplicationFilter) ([]*model.VisaApplication, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []*model.VisaApplication
	for _, a := range r.s.applications {
		if filter.PatientID != uuid.Nil && a.PatientID != filter.PatientID {
			continue
		}
		if filter.HospitalID != uuid.Nil && !r.servedBy(filter.HospitalID, a.PatientID) {
			continue
		}
		if filter.Stage != "" && a.WorkflowStage != filter.Stage {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, cloneApplication(a))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	page := filter.Pagination.Normalize()
	if page.Offset >= len(out) {
		return []*model.VisaApplication{}, nil
	}
	end := page.Offset + page.Limit
	if end > len(out) {
		end = len(out)
	}
	return out[page.Offset:end], nil
}

func (r *ApplicationRepository) ListAttendants(_ context.Context, applicationID uuid.UUID) ([]*model.Attendant, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.Attendant, 0, len(r.s.attendants[applicationID]))
	for _, a := range r.s.attendants[applicationID] {
		cp := *a
		out = append(out, &cp)
	}
	return out, nil
}

func (r *ApplicationRepository) Transition(_ context.Context, t *model.StageTransition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[t.ApplicationID]
	if !ok || a.WorkflowStage != t.FromStage || a.Version != t.ExpectedVersion {
		return apperrors.Conflict("application was modified concurrently", nil)
	}
	a.WorkflowStage = t.ToStage
	a.Status = t.Status
	if t.RejectionReason != nil {
		reason := *t.RejectionReason
		a.RejectionReason = &reason
	}
	a.Version++
	a.UpdatedAt = t.At
	r.appendLog(t.Entry)
	r.appendEvent(t.Event)
	return nil
}

func (r *ApplicationRepository) UpdateLetter(_ context.Context, t *model.LetterTransition) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.applications[t.ApplicationID]
	if !ok || a.WorkflowStage != t.ExpectedStage || a.LetterStatus != t.From || a.Version != t.ExpectedVersion {
		return apperrors.Conflict("application was modified concurrently", nil)
	}
	a.LetterStatus = t.To
	a.Version++
	a.UpdatedAt = t.At
	if t.Document != nil {
		cp := *t.Document
		r.s.documents[cp.ID] = &cp
	}
	if t.Audit != nil {
		cp := *t.Audit
		r.s.audits = append(r.s.audits, &cp)
	}
	r.appendEvent(t.Event)
	return nil
}

func (r *ApplicationRepository) ListLog(_ context.Context, applicationID uuid.UUID) ([]*model.WorkflowLogEntry, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*model.WorkflowLogEntry, 0, len(r.s.logs[applicationID]))
	for _, e := range r.s.logs[applicationID] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
