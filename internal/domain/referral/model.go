// Package referral implements the cross-hospital referral case workflow:
// a hand-off moves from pending through acceptance and treatment completion
// to follow-up, with every step captured on an audit trail.
package referral

import (
	"fmt"
	"strings"
	"time"
)

type Status string

const (
	StatusPending             Status = "pending"
	StatusAccepted            Status = "accepted"
	StatusOutpatientCompleted Status = "outpatient-completed"
	StatusInpatientCompleted  Status = "inpatient-completed"
	StatusFollowedUp          Status = "followed-up"
	StatusRejected            Status = "rejected"
)

type Direction string

const (
	DirectionInbound  Direction = "inbound"
	DirectionOutbound Direction = "outbound"
)

type TransferType string

const (
	TransferOutpatient TransferType = "outpatient"
	TransferInpatient  TransferType = "inpatient"
)

// statusPriority orders listings least-resolved first.
var statusPriority = map[Status]int{
	StatusPending:             0,
	StatusAccepted:            1,
	StatusOutpatientCompleted: 2,
	StatusInpatientCompleted:  2,
	StatusFollowedUp:          3,
	StatusRejected:            4,
}

// transitions holds the allowed status graph. followed-up and rejected are
// terminal.
var transitions = map[Status][]Status{
	StatusPending:             {StatusAccepted, StatusRejected},
	StatusAccepted:            {StatusOutpatientCompleted, StatusInpatientCompleted},
	StatusOutpatientCompleted: {StatusFollowedUp},
	StatusInpatientCompleted:  {StatusFollowedUp},
}

func canTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// AuditEntry is one step on a case's append-only trail.
type AuditEntry struct {
	Step string    `json:"step"`
	By   string    `json:"by"`
	At   time.Time `json:"at"`
	Note string    `json:"note,omitempty"`
}

// TreatmentReport is the receiving doctor's summary of completed treatment.
type TreatmentReport struct {
	Type        TransferType `json:"type"`
	Diagnosis   string       `json:"diagnosis"`
	Treatment   string       `json:"treatment"`
	Advice      string       `json:"advice,omitempty"`
	Doctor      string       `json:"doctor"`
	SubmittedAt time.Time    `json:"submittedAt"`
}

// DownReferral is the hand-off document sent back to the originating
// provider so community care can continue.
type DownReferral struct {
	PatientName  string    `json:"patientName"`
	FromHospital string    `json:"fromHospital"`
	ToHospital   string    `json:"toHospital"`
	Diagnosis    string    `json:"diagnosis"`
	Treatment    string    `json:"treatment"`
	Advice       string    `json:"advice"`
	IssuedBy     string    `json:"issuedBy"`
	IssuedAt     time.Time `json:"issuedAt"`
}

// PatientInstruction records that the patient was informed about the
// hand-off, independent of case stage.
type PatientInstruction struct {
	Instruction string    `json:"instruction"`
	By          string    `json:"by"`
	At          time.Time `json:"at"`
}

// FollowUp is one post-treatment check recorded by the originating doctor.
type FollowUp struct {
	Summary string    `json:"summary"`
	By      string    `json:"by"`
	At      time.Time `json:"at"`
	Note    string    `json:"note,omitempty"`
}

// Referral is a single cross-hospital hand-off case.
type Referral struct {
	ID           string       `json:"id"`
	PatientID    string       `json:"patientId"`
	PatientName  string       `json:"patientName"`
	FromHospital string       `json:"fromHospital"`
	ToHospital   string       `json:"toHospital"`
	Direction    Direction    `json:"direction"`
	TransferType TransferType `json:"transferType"`
	Tags         []string     `json:"tags,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`

	Status          Status              `json:"status"`
	Note            string              `json:"note,omitempty"`
	HandledBy       string              `json:"handledBy,omitempty"`
	HandledAt       *time.Time          `json:"handledAt,omitempty"`
	TreatmentPlan   string              `json:"treatmentPlan,omitempty"`
	InpatientReport *TreatmentReport    `json:"inpatientReport,omitempty"`
	InformedPatient *PatientInstruction `json:"informedPatient,omitempty"`
	DownReferral    *DownReferral       `json:"downReferral,omitempty"`
	FollowUps       []FollowUp          `json:"followUps"`
	AuditTrail      []AuditEntry        `json:"auditTrail"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func (r Referral) RecordID() string { return r.ID }

// normalizeTags trims each tag and drops empties.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// CreatePayload carries the immutable fields of a new case.
type CreatePayload struct {
	PatientID    string       `json:"patientId"`
	PatientName  string       `json:"patientName"`
	FromHospital string       `json:"fromHospital"`
	ToHospital   string       `json:"toHospital"`
	Direction    Direction    `json:"direction"`
	TransferType TransferType `json:"transferType"`
	Tags         []string     `json:"tags,omitempty"`
	Note         string       `json:"note,omitempty"`
	CreatedBy    string       `json:"createdBy"`
}

func (p CreatePayload) validate() error {
	if p.PatientID == "" {
		return fmt.Errorf("patientId is required")
	}
	if p.PatientName == "" {
		return fmt.Errorf("patientName is required")
	}
	if p.FromHospital == "" || p.ToHospital == "" {
		return fmt.Errorf("fromHospital and toHospital are required")
	}
	if p.Direction != DirectionInbound && p.Direction != DirectionOutbound {
		return fmt.Errorf("invalid direction: %s", p.Direction)
	}
	if p.TransferType != TransferOutpatient && p.TransferType != TransferInpatient {
		return fmt.Errorf("invalid transferType: %s", p.TransferType)
	}
	return nil
}

// Query restricts and pages a listing. All filters are AND-combined; a zero
// value means no constraint.
type Query struct {
	Search       string
	Status       Status
	Direction    Direction
	TransferType TransferType
	PatientID    string
	Limit        int
	Offset       int
}

func (q Query) matches(r Referral) bool {
	if q.Status != "" && r.Status != q.Status {
		return false
	}
	if q.Direction != "" && r.Direction != q.Direction {
		return false
	}
	if q.TransferType != "" && r.TransferType != q.TransferType {
		return false
	}
	if q.PatientID != "" && r.PatientID != q.PatientID {
		return false
	}
	if q.Search != "" {
		s := strings.ToLower(q.Search)
		hay := strings.ToLower(r.PatientName + " " + r.FromHospital + " " + r.ToHospital + " " + strings.Join(r.Tags, " "))
		if !strings.Contains(hay, s) {
			return false
		}
	}
	return true
}
