package teaching

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medunion/medunion/internal/platform/bus"
	"github.com/medunion/medunion/internal/platform/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.New[Lecture](store.Options{
		Namespace: Namespace,
		Topic:     Topic,
		EventType: EventType,
		Version:   Version,
	}, &store.MemoryBackend{}, bus.New(), zerolog.Nop())
	return NewService(st, zerolog.Nop())
}

func mustCreate(t *testing.T, svc *Service) Lecture {
	t.Helper()
	l, err := svc.Create(context.Background(), CreatePayload{
		Title:             "基层心血管疾病远程讲座",
		Category:          CategoryLectureTraining,
		TargetAudience:    AudienceMedicalStaff,
		Visibility:        VisibilityNetwork,
		Summary:           "高血压诊疗规范分享",
		OrganizerID:       "doc-001",
		OrganizerName:     "李医生",
		OrganizerHospital: "吉林大学第二医院",
		Lecturer:          Lecturer{ID: "exp-001", Name: "周兰"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return l
}

func approveTo(t *testing.T, svc *Service, id string, target Stage) Lecture {
	t.Helper()
	ctx := context.Background()
	l, err := svc.Review(ctx, id, ReviewPayload{ReviewerID: "admin-1", ReviewerName: "管理员", Decision: "approved"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if target == StageApproved {
		return l
	}
	l, err = svc.PublishNotice(ctx, id, PublishNoticePayload{PublishedBy: "admin-1", PublishedByName: "管理员", Channel: "platform", Summary: "开课通知", Audience: AudienceMedicalStaff})
	if err != nil {
		t.Fatalf("PublishNotice: %v", err)
	}
	if target == StageNoticePublished {
		return l
	}
	l, err = svc.CloseEnrollment(ctx, id, CloseEnrollmentPayload{ClosedBy: "admin-1", ClosedByName: "管理员"})
	if err != nil {
		t.Fatalf("CloseEnrollment: %v", err)
	}
	if target == StageEnrollmentClosed {
		return l
	}
	l, err = svc.MarkLive(ctx, id, MarkLivePayload{Host: "李医生"})
	if err != nil {
		t.Fatalf("MarkLive: %v", err)
	}
	if target != StageInSession {
		t.Fatalf("unsupported target stage %s", target)
	}
	return l
}

func addParticipants(t *testing.T, svc *Service, id string, participants ...Participant) {
	t.Helper()
	_, ok := svc.store.Update(context.Background(), id, func(draft *Lecture) {
		draft.Participants = append(draft.Participants, participants...)
	})
	if !ok {
		t.Fatalf("lecture %s not found", id)
	}
}

func TestCreateStartsApplied(t *testing.T) {
	svc := newTestService(t)
	l := mustCreate(t, svc)

	if l.Stage != StageApplied || l.Status != CoarsePending {
		t.Fatalf("stage/status = %s/%s", l.Stage, l.Status)
	}
	if len(l.History) != 1 || l.History[0].Action != "提交讲座申请" || l.History[0].Type != HistoryStatus {
		t.Fatalf("history = %+v", l.History)
	}
}

func TestReviewApproved(t *testing.T) {
	svc := newTestService(t)
	l := mustCreate(t, svc)

	updated, err := svc.Review(context.Background(), l.ID, ReviewPayload{ReviewerName: "管理员", Decision: "approved"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if updated.Stage != StageApproved || updated.Status != CoarsePending {
		t.Fatalf("stage/status = %s/%s", updated.Stage, updated.Status)
	}
	if updated.History[0].Action != "审核通过讲座申请" {
		t.Fatalf("newest history entry = %+v", updated.History[0])
	}
}

func TestReviewRejectedClearsNoticeAndSession(t *testing.T) {
	svc := newTestService(t)
	l := mustCreate(t, svc)

	// Drafts left over from a previous attempt must not survive rejection.
	addSession := func(draft *Lecture) {
		draft.Notice = &Notice{PublishedBy: "admin-1", Summary: "草稿"}
		draft.Session = &Session{Host: "李医生"}
	}
	if _, ok := svc.store.Update(context.Background(), l.ID, addSession); !ok {
		t.Fatal("seed update failed")
	}

	updated, err := svc.Review(context.Background(), l.ID, ReviewPayload{ReviewerName: "管理员", Decision: "rejected"})
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if updated.Stage != StageRejected || updated.Status != CoarseRejected {
		t.Fatalf("stage/status = %s/%s", updated.Stage, updated.Status)
	}
	if updated.Notice != nil || updated.Session != nil {
		t.Fatal("rejection kept notice or session")
	}
}

func TestReviewGuard(t *testing.T) {
	svc := newTestService(t)
	l := mustCreate(t, svc)
	approveTo(t, svc, l.ID, StageApproved)

	_, err := svc.Review(context.Background(), l.ID, ReviewPayload{ReviewerName: "管理员", Decision: "approved"})
	var invalid *InvalidStageError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidStageError", err)
	}
	if invalid.Current != StageApproved {
		t.Fatalf("error current = %s", invalid.Current)
	}
}

func TestCloseEnrollmentRequiresNoticePublished(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)
	approveTo(t, svc, l.ID, StageApproved)
	before, _ := svc.Detail(ctx, l.ID, nil)

	_, err := svc.CloseEnrollment(ctx, l.ID, CloseEnrollmentPayload{ClosedByName: "管理员"})
	var invalid *InvalidStageError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidStageError", err)
	}

	after, _ := svc.Detail(ctx, l.ID, nil)
	if after.Stage != before.Stage || len(after.History) != len(before.History) {
		t.Fatal("rejected close mutated the lecture")
	}
}

func TestPublishNoticeRepublish(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)
	approveTo(t, svc, l.ID, StageNoticePublished)

	updated, err := svc.PublishNotice(ctx, l.ID, PublishNoticePayload{PublishedByName: "管理员", Channel: "sms", Summary: "更新通知", Audience: AudienceMixed})
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	if updated.Stage != StageNoticePublished || updated.Notice.Channel != "sms" {
		t.Fatalf("republish result = %s / %+v", updated.Stage, updated.Notice)
	}
}

func TestMarkLiveAppliesSessionDefaults(t *testing.T) {
	svc := newTestService(t)
	l := mustCreate(t, svc)
	approveTo(t, svc, l.ID, StageApproved)

	updated, err := svc.MarkLive(context.Background(), l.ID, MarkLivePayload{Host: "李医生", MeetingURL: "https://example.com/live/x"})
	if err != nil {
		t.Fatalf("MarkLive: %v", err)
	}
	if updated.Stage != StageInSession || updated.Status != CoarseActive {
		t.Fatalf("stage/status = %s/%s", updated.Stage, updated.Status)
	}
	sess := updated.Session
	if sess == nil {
		t.Fatal("session not populated")
	}
	if sess.DurationMinutes != 60 || sess.LivestreamProvider != "platform" {
		t.Fatalf("session defaults = %+v", sess)
	}
	if sess.ScheduledAt.IsZero() || sess.Host != "李医生" {
		t.Fatalf("session = %+v", sess)
	}
}

func TestMarkLivePreservesScheduledSession(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)
	approveTo(t, svc, l.ID, StageNoticePublished)

	if _, ok := svc.store.Update(ctx, l.ID, func(draft *Lecture) {
		draft.Session = &Session{ScheduledAt: draft.CreatedAt, DurationMinutes: 90, AccessCode: "CV-2025", LivestreamProvider: "external"}
	}); !ok {
		t.Fatal("seed update failed")
	}

	updated, err := svc.MarkLive(ctx, l.ID, MarkLivePayload{Host: "李医生"})
	if err != nil {
		t.Fatalf("MarkLive: %v", err)
	}
	sess := updated.Session
	if sess.DurationMinutes != 90 || sess.AccessCode != "CV-2025" || sess.LivestreamProvider != "external" {
		t.Fatalf("prior session fields lost: %+v", sess)
	}
}

func TestPostCheckBulkPassAdvancesStage(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)
	addParticipants(t, svc, l.ID,
		Participant{ID: "doc-201", Name: "王卫", Role: "doctor", VerifiedPhases: []Phase{}, VerificationStatus: OutcomePending},
		Participant{ID: "nurse-301", Name: "李娜", Role: "nurse", VerifiedPhases: []Phase{PhasePreCheck}, VerificationStatus: OutcomePassed},
	)
	approveTo(t, svc, l.ID, StageInSession)

	updated, err := svc.RecordVerification(ctx, l.ID, VerificationPayload{
		Phase:         PhasePostCheck,
		PerformedBy:   "admin-1",
		PerformerName: "管理员",
		Status:        OutcomePassed,
	})
	if err != nil {
		t.Fatalf("RecordVerification: %v", err)
	}
	if updated.Stage != StagePostVerification {
		t.Fatalf("stage = %s, want post_verification", updated.Stage)
	}
	for _, p := range updated.Participants {
		verified := false
		for _, phase := range p.VerifiedPhases {
			if phase == PhasePostCheck {
				verified = true
			}
		}
		if !verified {
			t.Errorf("participant %s missing post_check", p.ID)
		}
		if p.VerificationStatus != OutcomePassed {
			t.Errorf("participant %s status = %s", p.ID, p.VerificationStatus)
		}
	}
	if updated.VerificationRecords[0].Phase != PhasePostCheck {
		t.Fatalf("newest verification record = %+v", updated.VerificationRecords[0])
	}
}

func TestTargetedVerificationMarksOnlyTargets(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)
	addParticipants(t, svc, l.ID,
		Participant{ID: "doc-201", VerifiedPhases: []Phase{}, VerificationStatus: OutcomePending},
		Participant{ID: "doc-202", VerifiedPhases: []Phase{}, VerificationStatus: OutcomePending},
	)

	updated, err := svc.RecordVerification(ctx, l.ID, VerificationPayload{
		Phase:                PhasePreCheck,
		PerformedBy:          "admin-1",
		PerformerName:        "管理员",
		Status:               OutcomePassed,
		TargetParticipantIDs: []string{"doc-201"},
	})
	if err != nil {
		t.Fatalf("RecordVerification: %v", err)
	}
	var target, other Participant
	for _, p := range updated.Participants {
		switch p.ID {
		case "doc-201":
			target = p
		case "doc-202":
			other = p
		}
	}
	if target.VerificationStatus != OutcomePassed || len(target.VerifiedPhases) != 1 {
		t.Fatalf("target = %+v", target)
	}
	if other.VerificationStatus != OutcomePending || len(other.VerifiedPhases) != 0 {
		t.Fatalf("untargeted participant touched: %+v", other)
	}
}

func TestFailedVerificationIsSticky(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)
	addParticipants(t, svc, l.ID,
		Participant{ID: "doc-201", VerifiedPhases: []Phase{}, VerificationStatus: OutcomePending},
	)

	if _, err := svc.RecordVerification(ctx, l.ID, VerificationPayload{
		Phase: PhasePreCheck, PerformedBy: "a", PerformerName: "管理员",
		Status: OutcomeFailed, TargetParticipantIDs: []string{"doc-201"},
	}); err != nil {
		t.Fatal(err)
	}
	updated, err := svc.RecordVerification(ctx, l.ID, VerificationPayload{
		Phase: PhaseLiveCheck, PerformedBy: "a", PerformerName: "管理员",
		Status: OutcomePassed, TargetParticipantIDs: []string{"doc-201"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Participants[0].VerificationStatus != OutcomeFailed {
		t.Fatalf("status = %s, failed must stick", updated.Participants[0].VerificationStatus)
	}
}

func TestUploadMaterialPrependsWithHistory(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)

	if _, err := svc.UploadMaterial(ctx, l.ID, UploadMaterialPayload{Name: "讲座大纲.pdf", Type: "document", Uploader: "doc-001", UploaderName: "李医生", Audience: AudienceMedicalStaff}); err != nil {
		t.Fatal(err)
	}
	updated, err := svc.UploadMaterial(ctx, l.ID, UploadMaterialPayload{Name: "病例介绍.pptx", Type: "slides", Uploader: "doc-001", UploaderName: "李医生", Audience: AudienceMedicalStaff})
	if err != nil {
		t.Fatal(err)
	}
	if len(updated.Materials) != 2 || updated.Materials[0].Name != "病例介绍.pptx" {
		t.Fatalf("materials = %+v", updated.Materials)
	}
	if updated.History[0].Type != HistoryMaterial {
		t.Fatalf("newest history entry = %+v", updated.History[0])
	}
}

func TestCompileReportAndArchive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)

	reported, err := svc.CompileReport(ctx, l.ID, CompileReportPayload{GeneratedBy: "admin-1", GeneratedByName: "管理员", Summary: "总结", AttendanceRate: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if reported.Stage != StageReportReady || reported.Status != CoarseCompleted || reported.Report == nil {
		t.Fatalf("report state = %s/%s %+v", reported.Stage, reported.Status, reported.Report)
	}

	archived, err := svc.Archive(ctx, l.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if archived.Stage != StageArchived {
		t.Fatalf("stage = %s, want archived", archived.Stage)
	}
	if archived.History[0].Actor != "管理员" {
		t.Fatalf("archive actor = %q", archived.History[0].Actor)
	}
}

func TestListFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l := mustCreate(t, svc)
	addParticipants(t, svc, l.ID, Participant{ID: "nurse-301", VerifiedPhases: []Phase{}, VerificationStatus: OutcomePending})

	if got := svc.List(ctx, Filters{Stage: StageApplied}); len(got) != 1 {
		t.Fatalf("stage filter = %d lectures", len(got))
	}
	if got := svc.List(ctx, Filters{Stage: StageArchived}); len(got) != 0 {
		t.Fatalf("stage filter = %d lectures, want 0", len(got))
	}
	if got := svc.List(ctx, Filters{ParticipantID: "nurse-301"}); len(got) != 1 {
		t.Fatalf("participant filter = %d lectures", len(got))
	}
	if got := svc.List(ctx, Filters{Search: "心血管"}); len(got) != 1 {
		t.Fatalf("search filter = %d lectures", len(got))
	}
}

func TestDetailEnforcesVisibility(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	l, err := svc.Create(ctx, CreatePayload{
		Title:             "内部彩排会",
		Category:          CategoryTeachingDiscussion,
		TargetAudience:    AudienceMedicalStaff,
		Visibility:        VisibilityPrivate,
		Summary:           "仅限发起团队",
		OrganizerID:       "doc-001",
		OrganizerName:     "李医生",
		OrganizerHospital: "吉林大学第二医院",
		Lecturer:          Lecturer{ID: "exp-001", Name: "周兰"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Detail(ctx, l.ID, &Viewer{Role: "doctor", UserID: "doc-001"}); err != nil {
		t.Fatalf("organizer denied: %v", err)
	}
	_, err = svc.Detail(ctx, l.ID, &Viewer{Role: "doctor", UserID: "doc-999", Organization: "吉林大学第二医院"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}
