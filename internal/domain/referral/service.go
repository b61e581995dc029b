package referral

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medunion/medunion/internal/platform/store"
)

const (
	Namespace = "referral.cases.v1"
	Topic     = "referral.cases.broadcast"
	EventType = "referral.cases.changed"
	Version   = 1
)

type Service struct {
	store *store.Store[Referral]
	log   zerolog.Logger
}

func NewService(st *store.Store[Referral], log zerolog.Logger) *Service {
	return &Service{store: st, log: log}
}

// Store exposes the backing store for seeding and subscription wiring.
func (s *Service) Store() *store.Store[Referral] { return s.store }

func (s *Service) Create(ctx context.Context, payload CreatePayload) (Referral, error) {
	if err := payload.validate(); err != nil {
		return Referral{}, err
	}

	now := time.Now().UTC()
	r := Referral{
		ID:           "ref-" + uuid.New().String(),
		PatientID:    payload.PatientID,
		PatientName:  payload.PatientName,
		FromHospital: payload.FromHospital,
		ToHospital:   payload.ToHospital,
		Direction:    payload.Direction,
		TransferType: payload.TransferType,
		Tags:         normalizeTags(payload.Tags),
		Note:         payload.Note,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		FollowUps:    []FollowUp{},
		AuditTrail: []AuditEntry{
			{Step: "created", By: payload.CreatedBy, At: now, Note: payload.Note},
		},
	}

	stored := s.store.Add(ctx, r, true)
	s.log.Info().Str("referral_id", stored.ID).Str("patient_id", stored.PatientID).Msg("referral created")
	return stored, nil
}

func (s *Service) Get(ctx context.Context, id string) (Referral, error) {
	r, ok := s.store.Find(ctx, id)
	if !ok {
		return Referral{}, ErrNotFound
	}
	return r, nil
}

// UpdateStatus moves a case along the status graph. The transition must be
// reachable from the current status or the case is left untouched.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status, note, handledBy string) (Referral, error) {
	current, ok := s.store.Find(ctx, id)
	if !ok {
		return Referral{}, ErrNotFound
	}
	if !canTransition(current.Status, status) {
		return Referral{}, &InvalidTransitionError{From: current.Status, To: status}
	}

	now := time.Now().UTC()
	updated, _ := s.store.Update(ctx, id, func(draft *Referral) {
		draft.Status = status
		if note != "" {
			draft.Note = note
		}
		draft.HandledBy = handledBy
		draft.HandledAt = &now
		draft.UpdatedAt = now
		draft.AuditTrail = append(draft.AuditTrail, AuditEntry{
			Step: string(status),
			By:   handledBy,
			At:   now,
			Note: note,
		})
	})
	return updated, nil
}

// AttachTreatmentReport records the receiving side's treatment summary,
// completes the case according to the report type, and synthesizes the
// down-referral hand-off document from the report fields.
func (s *Service) AttachTreatmentReport(ctx context.Context, id string, report TreatmentReport) (Referral, error) {
	current, ok := s.store.Find(ctx, id)
	if !ok {
		return Referral{}, ErrNotFound
	}

	target := StatusOutpatientCompleted
	if report.Type == TransferInpatient {
		target = StatusInpatientCompleted
	}
	if !canTransition(current.Status, target) {
		return Referral{}, &InvalidTransitionError{From: current.Status, To: target}
	}

	now := time.Now().UTC()
	if report.SubmittedAt.IsZero() {
		report.SubmittedAt = now
	}
	advice := report.Advice
	if advice == "" {
		if report.Type == TransferInpatient {
			advice = "继续依医嘱治疗"
		} else {
			advice = "定期门诊复查"
		}
	}

	updated, _ := s.store.Update(ctx, id, func(draft *Referral) {
		draft.Status = target
		draft.TreatmentPlan = report.Treatment
		if report.Type == TransferInpatient {
			draft.InpatientReport = &report
		}
		draft.DownReferral = &DownReferral{
			PatientName:  draft.PatientName,
			FromHospital: draft.ToHospital,
			ToHospital:   draft.FromHospital,
			Diagnosis:    report.Diagnosis,
			Treatment:    report.Treatment,
			Advice:       advice,
			IssuedBy:     report.Doctor,
			IssuedAt:     now,
		}
		draft.UpdatedAt = now
		draft.AuditTrail = append(draft.AuditTrail, AuditEntry{
			Step: string(target),
			By:   report.Doctor,
			At:   now,
			Note: report.Diagnosis,
		})
	})
	return updated, nil
}

// RecordPatientInstruction notes that the patient was informed. It applies
// at any stage and does not move the status.
func (s *Service) RecordPatientInstruction(ctx context.Context, id, instruction, by string) (Referral, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Referral) {
		draft.InformedPatient = &PatientInstruction{Instruction: instruction, By: by, At: now}
		draft.UpdatedAt = now
		draft.AuditTrail = append(draft.AuditTrail, AuditEntry{
			Step: "patient-informed",
			By:   by,
			At:   now,
			Note: instruction,
		})
	})
	if !ok {
		return Referral{}, ErrNotFound
	}
	return updated, nil
}

// RecordFollowUp appends a follow-up visit and marks the case followed-up.
func (s *Service) RecordFollowUp(ctx context.Context, id string, fu FollowUp) (Referral, error) {
	now := time.Now().UTC()
	if fu.At.IsZero() {
		fu.At = now
	}
	updated, ok := s.store.Update(ctx, id, func(draft *Referral) {
		draft.FollowUps = append(draft.FollowUps, fu)
		draft.Status = StatusFollowedUp
		draft.UpdatedAt = now
		draft.AuditTrail = append(draft.AuditTrail, AuditEntry{
			Step: string(StatusFollowedUp),
			By:   fu.By,
			At:   now,
			Note: fu.Summary,
		})
	})
	if !ok {
		return Referral{}, ErrNotFound
	}
	return updated, nil
}

// List filters, sorts, and pages the collection. Sorting puts the
// least-resolved statuses first, then newest activity.
func (s *Service) List(ctx context.Context, q Query) ([]Referral, int) {
	all := s.store.Snapshot(ctx)

	filtered := make([]Referral, 0, len(all))
	for _, r := range all {
		if q.matches(r) {
			filtered = append(filtered, r)
		}
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		pi, pj := statusPriority[filtered[i].Status], statusPriority[filtered[j].Status]
		if pi != pj {
			return pi < pj
		}
		if !filtered[i].UpdatedAt.Equal(filtered[j].UpdatedAt) {
			return filtered[i].UpdatedAt.After(filtered[j].UpdatedAt)
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	total := len(filtered)
	if q.Limit <= 0 {
		return filtered, total
	}
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}
	return filtered[start:end], total
}
