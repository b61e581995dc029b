package teaching

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medunion/medunion/internal/platform/store"
)

const (
	Namespace = "teaching.lectures.v1"
	Topic     = "teaching.lectures.broadcast"
	EventType = "teaching.lectures.changed"
	Version   = 1
)

type Service struct {
	store *store.Store[Lecture]
	log   zerolog.Logger
}

func NewService(st *store.Store[Lecture], log zerolog.Logger) *Service {
	return &Service{store: st, log: log}
}

// Store exposes the backing store for seeding and subscription wiring.
func (s *Service) Store() *store.Store[Lecture] { return s.store }

func genID(prefix string) string {
	return prefix + "-" + uuid.New().String()
}

// pushHistory prepends a trail entry so the newest sits at index 0, and
// refreshes the lecture's update time.
func pushHistory(l *Lecture, actor, action string, typ HistoryType) {
	now := time.Now().UTC()
	l.History = append([]HistoryEntry{{
		ID:     genID("his"),
		Actor:  actor,
		Action: action,
		Type:   typ,
		At:     now,
	}}, l.History...)
	l.UpdatedAt = now
}

// ensureParticipantPhase marks a phase verified. A failed outcome is sticky:
// once a participant failed, a later pass does not overwrite it.
func ensureParticipantPhase(p *Participant, phase Phase, outcome Outcome) {
	found := false
	for _, existing := range p.VerifiedPhases {
		if existing == phase {
			found = true
			break
		}
	}
	if !found {
		p.VerifiedPhases = append(p.VerifiedPhases, phase)
	}
	if outcome == OutcomeFailed {
		p.VerificationStatus = OutcomeFailed
	} else if outcome == OutcomePassed && p.VerificationStatus != OutcomeFailed {
		p.VerificationStatus = OutcomePassed
	}
}

func stageAllowed(stage Stage, allowed ...Stage) bool {
	for _, a := range allowed {
		if stage == a {
			return true
		}
	}
	return false
}

// guardStage returns an InvalidStageError unless the lecture is in one of
// the allowed source stages.
func (s *Service) guardStage(ctx context.Context, id, op string, allowed ...Stage) (Lecture, error) {
	current, ok := s.store.Find(ctx, id)
	if !ok {
		return Lecture{}, ErrNotFound
	}
	if !stageAllowed(current.Stage, allowed...) {
		return Lecture{}, &InvalidStageError{Op: op, Current: current.Stage, Allowed: allowed}
	}
	return current, nil
}

func (s *Service) Create(ctx context.Context, payload CreatePayload) (Lecture, error) {
	if err := payload.validate(); err != nil {
		return Lecture{}, err
	}

	now := time.Now().UTC()
	lecture := Lecture{
		ID:                  genID("lec"),
		Title:               payload.Title,
		Category:            payload.Category,
		TargetAudience:      payload.TargetAudience,
		Visibility:          payload.Visibility,
		Tags:                append([]string{}, payload.Tags...),
		Summary:             payload.Summary,
		Objectives:          append([]string{}, payload.Objectives...),
		OrganizerID:         payload.OrganizerID,
		OrganizerName:       payload.OrganizerName,
		OrganizerHospital:   payload.OrganizerHospital,
		OrganizerDepartment: payload.OrganizerDepartment,
		Lecturer:            payload.Lecturer,
		Stage:               StageApplied,
		Status:              CoarsePending,
		CreatedAt:           now,
		UpdatedAt:           now,
		PlannedAt:           payload.PlannedAt,
		DurationMinutes:     payload.DurationMinutes,
		Materials:           []Material{},
		Participants:        []Participant{},
		VerificationRecords: []VerificationRecord{},
		History:             []HistoryEntry{},
	}
	pushHistory(&lecture, payload.OrganizerName, "提交讲座申请", HistoryStatus)

	stored := s.store.Add(ctx, lecture, true)
	s.log.Info().Str("lecture_id", stored.ID).Str("organizer", stored.OrganizerID).Msg("lecture created")
	return stored, nil
}

// Review decides a lecture application. Rejection is terminal and discards
// any draft notice and session.
func (s *Service) Review(ctx context.Context, id string, payload ReviewPayload) (Lecture, error) {
	if _, err := s.guardStage(ctx, id, "review", StageApplied, StageUnderReview); err != nil {
		return Lecture{}, err
	}

	approved := payload.Decision == "approved"
	updated, _ := s.store.Update(ctx, id, func(draft *Lecture) {
		if approved {
			draft.Stage = StageApproved
			draft.Status = CoarsePending
			pushHistory(draft, payload.ReviewerName, "审核通过讲座申请", HistoryStatus)
		} else {
			draft.Stage = StageRejected
			draft.Status = CoarseRejected
			draft.Notice = nil
			draft.Session = nil
			pushHistory(draft, payload.ReviewerName, "驳回讲座申请", HistoryStatus)
		}
	})
	return updated, nil
}

// PublishNotice opens (or refreshes) the enrollment notice.
func (s *Service) PublishNotice(ctx context.Context, id string, payload PublishNoticePayload) (Lecture, error) {
	if _, err := s.guardStage(ctx, id, "publish notice", StageApproved, StageNoticePublished, StageEnrollmentClosed); err != nil {
		return Lecture{}, err
	}

	now := time.Now().UTC()
	updated, _ := s.store.Update(ctx, id, func(draft *Lecture) {
		draft.Stage = StageNoticePublished
		draft.Status = CoarseActive
		draft.Notice = &Notice{
			PublishedAt:        now,
			PublishedBy:        payload.PublishedBy,
			Channel:            payload.Channel,
			Summary:            payload.Summary,
			Audience:           payload.Audience,
			EnrollmentClosesAt: payload.EnrollmentClosesAt,
			EnrollmentFormURL:  payload.EnrollmentFormURL,
			Attachments:        append([]string{}, payload.Attachments...),
		}
		pushHistory(draft, payload.PublishedByName, "发布讲座开课通知", HistoryNotice)
	})
	return updated, nil
}

func (s *Service) CloseEnrollment(ctx context.Context, id string, payload CloseEnrollmentPayload) (Lecture, error) {
	if _, err := s.guardStage(ctx, id, "close enrollment", StageNoticePublished); err != nil {
		return Lecture{}, err
	}

	updated, _ := s.store.Update(ctx, id, func(draft *Lecture) {
		draft.Stage = StageEnrollmentClosed
		action := "关闭讲座报名"
		if payload.Note != "" {
			action = "关闭报名：" + payload.Note
		}
		pushHistory(draft, payload.ClosedByName, action, HistoryStatus)
	})
	return updated, nil
}

// MarkLive starts the session, merging the payload over any previously
// scheduled session details.
func (s *Service) MarkLive(ctx context.Context, id string, payload MarkLivePayload) (Lecture, error) {
	if _, err := s.guardStage(ctx, id, "mark live", StageEnrollmentClosed, StageNoticePublished, StageApproved); err != nil {
		return Lecture{}, err
	}

	now := time.Now().UTC()
	updated, _ := s.store.Update(ctx, id, func(draft *Lecture) {
		draft.Stage = StageInSession
		draft.Status = CoarseActive

		prev := draft.Session
		if prev == nil {
			prev = &Session{}
		}
		session := &Session{
			ScheduledAt:        prev.ScheduledAt,
			DurationMinutes:    prev.DurationMinutes,
			MeetingURL:         firstNonEmpty(payload.MeetingURL, prev.MeetingURL),
			AccessCode:         firstNonEmpty(payload.AccessCode, prev.AccessCode),
			LivestreamProvider: firstNonEmpty(payload.LivestreamProvider, prev.LivestreamProvider, "platform"),
			Host:               firstNonEmpty(payload.Host, prev.Host),
			TechSupportContact: firstNonEmpty(payload.TechSupportContact, prev.TechSupportContact),
			OnsiteLocation:     prev.OnsiteLocation,
		}
		if session.ScheduledAt.IsZero() {
			session.ScheduledAt = now
		}
		if session.DurationMinutes == 0 {
			session.DurationMinutes = 60
		}
		draft.Session = session

		actor := payload.Host
		if actor == "" {
			actor = "主持人"
		}
		pushHistory(draft, actor, "启动讲座直播", HistoryStatus)
	})
	return updated, nil
}

var phaseLabels = map[Phase]string{
	PhasePreCheck:  "课前",
	PhaseLiveCheck: "课堂",
	PhasePostCheck: "课后",
}

// RecordVerification logs an identity check. With target participants only
// those are marked; with no targets a passed outcome marks every current
// participant. Recording a passed post_check during the session advances the
// lecture to post_verification.
func (s *Service) RecordVerification(ctx context.Context, id string, payload VerificationPayload) (Lecture, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Lecture) {
		draft.VerificationRecords = append([]VerificationRecord{{
			ID:                   genID("ver"),
			Phase:                payload.Phase,
			PerformedBy:          payload.PerformedBy,
			Status:               payload.Status,
			Note:                 payload.Note,
			Attachments:          append([]string{}, payload.Attachments...),
			TargetParticipantIDs: append([]string{}, payload.TargetParticipantIDs...),
			CreatedAt:            now,
		}}, draft.VerificationRecords...)

		if len(payload.TargetParticipantIDs) > 0 {
			targets := make(map[string]struct{}, len(payload.TargetParticipantIDs))
			for _, pid := range payload.TargetParticipantIDs {
				targets[pid] = struct{}{}
			}
			for i := range draft.Participants {
				if _, hit := targets[draft.Participants[i].ID]; hit {
					ensureParticipantPhase(&draft.Participants[i], payload.Phase, payload.Status)
				}
			}
		} else if payload.Status == OutcomePassed {
			for i := range draft.Participants {
				ensureParticipantPhase(&draft.Participants[i], payload.Phase, payload.Status)
			}
		}

		if payload.Phase == PhasePostCheck && draft.Stage == StageInSession {
			draft.Stage = StagePostVerification
		}

		pushHistory(draft, payload.PerformerName, "记录"+phaseLabels[payload.Phase]+"身份验证", HistoryVerification)
	})
	if !ok {
		return Lecture{}, ErrNotFound
	}
	return updated, nil
}

func (s *Service) UploadMaterial(ctx context.Context, id string, payload UploadMaterialPayload) (Lecture, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Lecture) {
		draft.Materials = append([]Material{{
			ID:         genID("mat"),
			Name:       payload.Name,
			Type:       payload.Type,
			Uploader:   payload.Uploader,
			UploadedAt: now,
			URL:        payload.URL,
			Audience:   payload.Audience,
		}}, draft.Materials...)
		pushHistory(draft, payload.UploaderName, "上传资料："+payload.Name, HistoryMaterial)
	})
	if !ok {
		return Lecture{}, ErrNotFound
	}
	return updated, nil
}

func (s *Service) CompileReport(ctx context.Context, id string, payload CompileReportPayload) (Lecture, error) {
	now := time.Now().UTC()
	updated, ok := s.store.Update(ctx, id, func(draft *Lecture) {
		draft.Stage = StageReportReady
		draft.Status = CoarseCompleted
		draft.Report = &Report{
			GeneratedAt:       now,
			GeneratedBy:       payload.GeneratedBy,
			Summary:           payload.Summary,
			AttendanceRate:    payload.AttendanceRate,
			SatisfactionScore: payload.SatisfactionScore,
			Recommendations:   append([]string{}, payload.Recommendations...),
			Attachments:       append([]string{}, payload.Attachments...),
		}
		pushHistory(draft, payload.GeneratedByName, "生成讲座报告", HistoryReport)
	})
	if !ok {
		return Lecture{}, ErrNotFound
	}
	return updated, nil
}

func (s *Service) Archive(ctx context.Context, id, actor string) (Lecture, error) {
	if actor == "" {
		actor = "管理员"
	}
	updated, ok := s.store.Update(ctx, id, func(draft *Lecture) {
		draft.Stage = StageArchived
		draft.Status = CoarseCompleted
		pushHistory(draft, actor, "归档讲座", HistoryStatus)
	})
	if !ok {
		return Lecture{}, ErrNotFound
	}
	return updated, nil
}

func (f Filters) matches(l Lecture) bool {
	if f.Stage != "" && l.Stage != f.Stage {
		return false
	}
	if f.Status != "" && l.Status != f.Status {
		return false
	}
	if f.OrganizerID != "" && l.OrganizerID != f.OrganizerID {
		return false
	}
	if f.Visibility != "" && l.Visibility != f.Visibility {
		return false
	}
	if f.Viewer != nil && !CanViewerAccess(l, f.Viewer) {
		return false
	}
	if f.ParticipantID != "" && !matchParticipant(l, f.ParticipantID) {
		return false
	}
	if f.Search != "" {
		target := strings.ToLower(l.Title + " " + l.Summary + " " + strings.Join(l.Tags, " "))
		if !strings.Contains(target, strings.ToLower(f.Search)) {
			return false
		}
	}
	return true
}

func (s *Service) List(ctx context.Context, filters Filters) []Lecture {
	all := s.store.Snapshot(ctx)
	out := make([]Lecture, 0, len(all))
	for _, l := range all {
		if filters.matches(l) {
			out = append(out, l)
		}
	}
	return out
}

// Detail returns a lecture the viewer is allowed to see.
func (s *Service) Detail(ctx context.Context, id string, viewer *Viewer) (Lecture, error) {
	l, ok := s.store.Find(ctx, id)
	if !ok {
		return Lecture{}, ErrNotFound
	}
	if !CanViewerAccess(l, viewer) {
		return Lecture{}, ErrAccessDenied
	}
	return l, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
