package referral

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/medunion/medunion/internal/platform/bus"
	"github.com/medunion/medunion/internal/platform/store"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	st := store.New[Referral](store.Options{
		Namespace: Namespace,
		Topic:     Topic,
		EventType: EventType,
		Version:   Version,
	}, &store.MemoryBackend{}, bus.New(), zerolog.Nop())
	return NewService(st, zerolog.Nop())
}

func mustCreate(t *testing.T, svc *Service, payload CreatePayload) Referral {
	t.Helper()
	if payload.PatientID == "" {
		payload.PatientID = "p1"
	}
	if payload.PatientName == "" {
		payload.PatientName = "张三"
	}
	if payload.FromHospital == "" {
		payload.FromHospital = "吉林大学第二医院"
	}
	if payload.ToHospital == "" {
		payload.ToHospital = "北京同仁医院"
	}
	if payload.Direction == "" {
		payload.Direction = DirectionOutbound
	}
	if payload.TransferType == "" {
		payload.TransferType = TransferOutpatient
	}
	r, err := svc.Create(context.Background(), payload)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return r
}

func TestCreateTrimsTags(t *testing.T) {
	svc := newTestService(t)
	r := mustCreate(t, svc, CreatePayload{Tags: []string{" A ", "B", ""}})

	if !reflect.DeepEqual(r.Tags, []string{"A", "B"}) {
		t.Fatalf("tags = %v, want [A B]", r.Tags)
	}
}

func TestCreateStartsPendingWithAudit(t *testing.T) {
	svc := newTestService(t)
	r := mustCreate(t, svc, CreatePayload{CreatedBy: "doctor1"})

	if r.Status != StatusPending {
		t.Fatalf("status = %s, want pending", r.Status)
	}
	if len(r.AuditTrail) != 1 || r.AuditTrail[0].Step != "created" || r.AuditTrail[0].By != "doctor1" {
		t.Fatalf("audit trail = %+v", r.AuditTrail)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.Create(context.Background(), CreatePayload{PatientID: "p1"})
	if err == nil {
		t.Fatal("expected validation error for missing fields")
	}
}

func TestRejectPendingAppendsOneAuditEntry(t *testing.T) {
	svc := newTestService(t)
	r := mustCreate(t, svc, CreatePayload{})
	before := len(r.AuditTrail)

	updated, err := svc.UpdateStatus(context.Background(), r.ID, StatusRejected, "病情不适合转诊", "doctor2")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != StatusRejected {
		t.Fatalf("status = %s, want rejected", updated.Status)
	}
	if len(updated.AuditTrail) != before+1 {
		t.Fatalf("audit entries = %d, want %d", len(updated.AuditTrail), before+1)
	}
	last := updated.AuditTrail[len(updated.AuditTrail)-1]
	if last.Step != "rejected" || last.By != "doctor2" {
		t.Fatalf("last audit entry = %+v", last)
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	svc := newTestService(t)
	r := mustCreate(t, svc, CreatePayload{})
	if _, err := svc.UpdateStatus(context.Background(), r.ID, StatusRejected, "", "d"); err != nil {
		t.Fatal(err)
	}

	_, err := svc.UpdateStatus(context.Background(), r.ID, StatusAccepted, "", "d")
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != StatusRejected || invalid.To != StatusAccepted {
		t.Fatalf("error detail = %+v", invalid)
	}

	// The rejected transition must not have touched the case.
	got, _ := svc.Get(context.Background(), r.ID)
	if got.Status != StatusRejected || len(got.AuditTrail) != 2 {
		t.Fatalf("case changed by rejected transition: %+v", got)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.UpdateStatus(context.Background(), "ref-nope", StatusAccepted, "", "d")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSortsByStatusPriority(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	rejected := mustCreate(t, svc, CreatePayload{PatientName: "王五"})
	if _, err := svc.UpdateStatus(ctx, rejected.ID, StatusRejected, "", "d"); err != nil {
		t.Fatal(err)
	}
	accepted := mustCreate(t, svc, CreatePayload{PatientName: "李四"})
	if _, err := svc.UpdateStatus(ctx, accepted.ID, StatusAccepted, "", "d"); err != nil {
		t.Fatal(err)
	}
	pending := mustCreate(t, svc, CreatePayload{PatientName: "张三"})

	items, total := svc.List(ctx, Query{})
	if total != 3 {
		t.Fatalf("total = %d, want 3", total)
	}
	got := []string{items[0].ID, items[1].ID, items[2].ID}
	want := []string{pending.ID, accepted.ID, rejected.ID}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
}

func TestListFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, CreatePayload{PatientID: "p1", PatientName: "张三", Tags: []string{"眼科"}})
	mustCreate(t, svc, CreatePayload{PatientID: "p2", PatientName: "李四", ToHospital: "北京安贞医院"})

	items, total := svc.List(ctx, Query{Search: "安贞"})
	if total != 1 || items[0].PatientID != "p2" {
		t.Fatalf("search result = %+v (total %d)", items, total)
	}

	items, total = svc.List(ctx, Query{Search: "眼科"})
	if total != 1 || items[0].PatientID != "p1" {
		t.Fatalf("tag search result = %+v (total %d)", items, total)
	}

	_, total = svc.List(ctx, Query{PatientID: "p1", Status: StatusPending})
	if total != 1 {
		t.Fatalf("combined filter total = %d, want 1", total)
	}

	_, total = svc.List(ctx, Query{PatientID: "p1", Status: StatusAccepted})
	if total != 0 {
		t.Fatalf("combined filter total = %d, want 0", total)
	}
}

func TestListClampsNegativeOffset(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	mustCreate(t, svc, CreatePayload{PatientID: "p1", PatientName: "张三"})
	mustCreate(t, svc, CreatePayload{PatientID: "p2", PatientName: "李四"})

	items, total := svc.List(ctx, Query{Limit: 10, Offset: -5})
	if total != 2 || len(items) != 2 {
		t.Fatalf("got %d items (total %d), want the full first page", len(items), total)
	}
}

func TestAttachInpatientReportSynthesizesDownReferral(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, CreatePayload{TransferType: TransferInpatient})
	if _, err := svc.UpdateStatus(ctx, r.ID, StatusAccepted, "", "doctor1"); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.AttachTreatmentReport(ctx, r.ID, TreatmentReport{
		Type:      TransferInpatient,
		Diagnosis: "冠心病",
		Treatment: "支架植入术后恢复良好",
		Doctor:    "doctor9",
	})
	if err != nil {
		t.Fatalf("AttachTreatmentReport: %v", err)
	}
	if updated.Status != StatusInpatientCompleted {
		t.Fatalf("status = %s, want inpatient-completed", updated.Status)
	}
	dr := updated.DownReferral
	if dr == nil {
		t.Fatal("downReferral not synthesized")
	}
	if dr.Advice != "继续依医嘱治疗" {
		t.Fatalf("advice = %q, want default inpatient advice", dr.Advice)
	}
	// Hand-off flows back toward the originating hospital.
	if dr.FromHospital != r.ToHospital || dr.ToHospital != r.FromHospital {
		t.Fatalf("downReferral direction = %s -> %s", dr.FromHospital, dr.ToHospital)
	}
	if updated.InpatientReport == nil {
		t.Fatal("inpatient report not stored")
	}
}

func TestAttachReportRequiresAcceptedCase(t *testing.T) {
	svc := newTestService(t)
	r := mustCreate(t, svc, CreatePayload{})

	_, err := svc.AttachTreatmentReport(context.Background(), r.ID, TreatmentReport{Type: TransferOutpatient, Doctor: "d"})
	var invalid *InvalidTransitionError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}
}

func TestRecordFollowUpCompletesCase(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, CreatePayload{})
	if _, err := svc.UpdateStatus(ctx, r.ID, StatusAccepted, "", "d"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.AttachTreatmentReport(ctx, r.ID, TreatmentReport{Type: TransferOutpatient, Doctor: "d"}); err != nil {
		t.Fatal(err)
	}

	updated, err := svc.RecordFollowUp(ctx, r.ID, FollowUp{Summary: "恢复良好", By: "doctor1"})
	if err != nil {
		t.Fatalf("RecordFollowUp: %v", err)
	}
	if updated.Status != StatusFollowedUp {
		t.Fatalf("status = %s, want followed-up", updated.Status)
	}
	if len(updated.FollowUps) != 1 || updated.FollowUps[0].Summary != "恢复良好" {
		t.Fatalf("followUps = %+v", updated.FollowUps)
	}
}

func TestRecordPatientInstructionAnyStage(t *testing.T) {
	svc := newTestService(t)
	r := mustCreate(t, svc, CreatePayload{})

	updated, err := svc.RecordPatientInstruction(context.Background(), r.ID, "请携带既往病历前往就诊", "nurse1")
	if err != nil {
		t.Fatalf("RecordPatientInstruction: %v", err)
	}
	if updated.Status != StatusPending {
		t.Fatalf("status changed to %s", updated.Status)
	}
	if updated.InformedPatient == nil || updated.InformedPatient.By != "nurse1" {
		t.Fatalf("informedPatient = %+v", updated.InformedPatient)
	}
}

func TestExportIsPureProjection(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	r := mustCreate(t, svc, CreatePayload{Tags: []string{"眼科"}})

	text, err := svc.Export(ctx, r.ID)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	for _, section := range []string{"[患者信息]", "[转诊医院]", "[治疗情况]", "[随访记录]", "张三"} {
		if !strings.Contains(text, section) {
			t.Errorf("export missing %q", section)
		}
	}

	after, _ := svc.Get(ctx, r.ID)
	if !after.UpdatedAt.Equal(r.UpdatedAt) || len(after.AuditTrail) != len(r.AuditTrail) {
		t.Fatal("export mutated the case")
	}
}
