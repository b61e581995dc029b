package telemedicine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medunion/medunion/internal/platform/store"
)

const (
	Namespace = "telemedicine.apps.v1"
	Topic     = "telemedicine.apps.broadcast"
	EventType = "telemedicine.apps.changed"
	Version   = 1
)

type Service struct {
	store *store.Store[Case]
	log   zerolog.Logger
}

func NewService(st *store.Store[Case], log zerolog.Logger) *Service {
	return &Service{store: st, log: log}
}

// Store exposes the backing store for seeding and subscription wiring.
func (s *Service) Store() *store.Store[Case] { return s.store }

func genID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

func pushHistory(c *Case, actor, action string, typ HistoryType) {
	now := time.Now().UTC()
	c.History = append([]HistoryEntry{{
		ID:     genID("his"),
		Actor:  actor,
		Action: action,
		Type:   typ,
		At:     now,
	}}, c.History...)
	c.UpdatedAt = now
}

func stageAllowed(stage Stage, allowed ...Stage) bool {
	for _, a := range allowed {
		if stage == a {
			return true
		}
	}
	return false
}

func (s *Service) guardStage(ctx context.Context, id, op string, allowed ...Stage) (Case, error) {
	current, ok := s.store.Find(ctx, id)
	if !ok {
		return Case{}, ErrNotFound
	}
	if !stageAllowed(current.Stage, allowed...) {
		return Case{}, &InvalidStageError{Op: op, Current: current.Stage, Allowed: allowed}
	}
	return current, nil
}

func (s *Service) Create(ctx context.Context, payload CreatePayload) (Case, error) {
	if err := payload.validate(); err != nil {
		return Case{}, err
	}

	now := time.Now().UTC()
	kase := Case{
		ID:            genID("tmc"),
		ServiceType:   payload.ServiceType,
		PatientID:     payload.PatientID,
		PatientName:   payload.PatientName,
		PatientAge:    payload.PatientAge,
		PatientGender: payload.PatientGender,
		FromHospital:  payload.FromHospital,
		Department:    payload.Department,
		Description:   payload.Description,
		SupportTags:   append([]SupportTag{}, payload.SupportTags...),
		AppliedBy:     payload.AppliedBy,
		Stage:         StageApplied,
		Status:        CoarsePending,
		History:       []HistoryEntry{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	pushHistory(&kase, payload.AppliedBy, "提交远程诊疗申请", HistoryStatus)

	stored := s.store.Add(ctx, kase, true)
	s.log.Info().Str("case_id", stored.ID).Str("service_type", string(stored.ServiceType)).Msg("telemedicine case created")
	return stored, nil
}

func (s *Service) Get(ctx context.Context, id string) (Case, error) {
	c, ok := s.store.Find(ctx, id)
	if !ok {
		return Case{}, ErrNotFound
	}
	return c, nil
}

// BeginReview moves a fresh application into review.
func (s *Service) BeginReview(ctx context.Context, id, reviewer string) (Case, error) {
	if _, err := s.guardStage(ctx, id, "review", StageApplied); err != nil {
		return Case{}, err
	}
	updated, _ := s.store.Update(ctx, id, func(draft *Case) {
		draft.Stage = StageReview
		pushHistory(draft, reviewer, "开始审核申请", HistoryStatus)
	})
	return updated, nil
}

// Assign names the consulting doctor and fixes the schedule. Assignment may
// happen at any point before closure, including re-assignment of a case that
// is already scheduled.
func (s *Service) Assign(ctx context.Context, id string, payload AssignPayload) (Case, error) {
	scheduledAt := payload.ScheduledAt
	if scheduledAt.IsZero() {
		scheduledAt = time.Now().UTC()
	}
	updated, ok := s.store.Update(ctx, id, func(draft *Case) {
		draft.Stage = StageScheduled
		draft.Status = CoarseScheduled
		draft.AssignedDoctorID = payload.DoctorID
		draft.AssignedDoctorName = payload.DoctorName
		draft.AssignedHospital = payload.Hospital
		draft.Schedule = &Schedule{
			ScheduledAt: scheduledAt,
			Method:      payload.Method,
			MeetingURL:  payload.MeetingURL,
			Note:        payload.Note,
			AssignedBy:  payload.AssignedBy,
		}
		pushHistory(draft, payload.AssignedBy, "指派专家："+payload.DoctorName, HistoryAssignment)
	})
	if !ok {
		return Case{}, ErrNotFound
	}
	return updated, nil
}

// ConfirmAttendance records the patient's commitment to attend. A scheduled
// case moves into the consult once the patient confirms.
func (s *Service) ConfirmAttendance(ctx context.Context, id string, payload ConfirmPayload) (Case, error) {
	current, err := s.guardStage(ctx, id, "confirm attendance", StageScheduled, StageInConsult)
	if err != nil {
		return Case{}, err
	}
	if current.Schedule == nil {
		return Case{}, ErrNoSchedule
	}
	if payload.PatientID != current.PatientID {
		return Case{}, ErrPatientMismatch
	}

	now := time.Now().UTC()
	updated, _ := s.store.Update(ctx, id, func(draft *Case) {
		draft.PatientConfirmation = &PatientConfirmation{
			ConfirmedAt: now,
			ConfirmedBy: payload.PatientID,
			Note:        payload.Note,
		}
		if draft.Stage == StageScheduled {
			draft.Stage = StageInConsult
		}
		pushHistory(draft, draft.PatientName, "患者确认按时参加", HistoryConfirmation)
	})
	return updated, nil
}

// StartSession opens the consult and publishes how the patient side joins.
// Fields absent from the payload keep their previous values.
func (s *Service) StartSession(ctx context.Context, id string, payload StartSessionPayload) (Case, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Case) {
		draft.Stage = StageInConsult
		prev := draft.DiagnosisAccess
		if prev == nil {
			prev = &DiagnosisAccess{}
		}
		draft.DiagnosisAccess = &DiagnosisAccess{
			Provider:    firstNonEmpty(payload.Provider, prev.Provider, "in_app"),
			URL:         firstNonEmpty(payload.URL, prev.URL),
			AccessCode:  firstNonEmpty(payload.AccessCode, prev.AccessCode),
			Note:        firstNonEmpty(payload.Note, prev.Note),
			LastUpdated: now,
		}
		pushHistory(draft, payload.StartedBy, "开始远程会诊", HistoryStatus)
	})
	if !ok {
		return Case{}, ErrNotFound
	}
	return updated, nil
}

// SubmitReport files the consult conclusion and marks the case completed.
func (s *Service) SubmitReport(ctx context.Context, id string, payload ReportPayload) (Case, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Case) {
		draft.Stage = StageReportSubmitted
		draft.Status = CoarseCompleted
		draft.Report = &Report{
			Conclusion:  payload.Conclusion,
			Advice:      payload.Advice,
			Attachments: append([]string{}, payload.Attachments...),
			SubmittedAt: now,
			SubmittedBy: payload.SubmittedBy,
		}
		pushHistory(draft, payload.SubmittedBy, "提交会诊报告", HistoryReport)
	})
	if !ok {
		return Case{}, ErrNotFound
	}
	return updated, nil
}

// SubmitFeedback always records the rating. The case only advances to the
// evaluated stage when the report has been submitted first.
func (s *Service) SubmitFeedback(ctx context.Context, id string, payload FeedbackPayload) (Case, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Case) {
		draft.Feedback = &Feedback{
			Rating:      payload.Rating,
			Comment:     payload.Comment,
			SubmittedAt: now,
			SubmittedBy: payload.SubmittedBy,
		}
		if draft.Stage == StageReportSubmitted {
			draft.Stage = StageEvaluated
		}
		pushHistory(draft, payload.SubmittedBy, "提交满意度评价", HistoryFeedback)
	})
	if !ok {
		return Case{}, ErrNotFound
	}
	return updated, nil
}

// Close ends the case. A rating on the close request doubles as a final
// service evaluation; closing without one discards any draft evaluation.
func (s *Service) Close(ctx context.Context, id string, payload ClosePayload) (Case, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Case) {
		draft.Stage = StageClosed
		draft.Status = CoarseCompleted
		if payload.Rating > 0 {
			draft.ServiceEvaluation = &ServiceEvaluation{
				Rating:      payload.Rating,
				Comment:     payload.Comment,
				Evaluator:   payload.ClosedBy,
				SubmittedAt: now,
			}
			pushHistory(draft, payload.ClosedBy, "结案并评价服务", HistoryFeedback)
		} else {
			draft.ServiceEvaluation = nil
			pushHistory(draft, payload.ClosedBy, "结案", HistoryStatus)
		}
	})
	if !ok {
		return Case{}, ErrNotFound
	}
	return updated, nil
}

// Reject turns down a case at any stage short of a terminal one.
func (s *Service) Reject(ctx context.Context, id string, payload RejectPayload) (Case, error) {
	current, ok := s.store.Find(ctx, id)
	if !ok {
		return Case{}, ErrNotFound
	}
	if current.Stage.terminal() {
		return Case{}, &InvalidStageError{Op: "reject", Current: current.Stage, Allowed: []Stage{
			StageApplied, StageReview, StageScheduled, StageInConsult, StageReportSubmitted, StageEvaluated,
		}}
	}

	updated, _ := s.store.Update(ctx, id, func(draft *Case) {
		draft.Stage = StageRejected
		draft.Status = CoarseRejected
		action := "驳回远程诊疗申请"
		if payload.Reason != "" {
			action = "驳回申请：" + payload.Reason
		}
		pushHistory(draft, payload.RejectedBy, action, HistoryStatus)
	})
	return updated, nil
}

func (f Filters) matches(c Case) bool {
	if f.Status != "" && c.Status != f.Status {
		return false
	}
	if f.Stage != "" && c.Stage != f.Stage {
		return false
	}
	if f.ServiceType != "" && c.ServiceType != f.ServiceType {
		return false
	}
	if f.PatientID != "" && c.PatientID != f.PatientID {
		return false
	}
	if f.DoctorID != "" && c.AssignedDoctorID != f.DoctorID {
		return false
	}
	if f.Search != "" {
		target := strings.ToLower(c.PatientName + " " + c.FromHospital + " " + c.Description)
		if !strings.Contains(target, strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}

func (s *Service) List(ctx context.Context, filters Filters) []Case {
	all := s.store.Snapshot(ctx)
	out := make([]Case, 0, len(all))
	for _, c := range all {
		if filters.matches(c) {
			out = append(out, c)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
