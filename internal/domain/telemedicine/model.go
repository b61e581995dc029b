// Package telemedicine implements remote consultation cases: application,
// assignment, scheduling, the consult session itself, diagnosis access for
// the patient side, report submission, feedback, and closure.
package telemedicine

import (
	"fmt"
	"time"
)

type Stage string

const (
	StageApplied         Stage = "applied"
	StageReview          Stage = "review"
	StageScheduled       Stage = "scheduled"
	StageInConsult       Stage = "in_consult"
	StageReportSubmitted Stage = "report_submitted"
	StageEvaluated       Stage = "evaluated"
	StageClosed          Stage = "closed"
	StageRejected        Stage = "rejected"
)

// terminal stages admit no further transitions.
func (s Stage) terminal() bool {
	return s == StageClosed || s == StageRejected
}

type CoarseStatus string

const (
	CoarsePending   CoarseStatus = "pending"
	CoarseScheduled CoarseStatus = "scheduled"
	CoarseCompleted CoarseStatus = "completed"
	CoarseRejected  CoarseStatus = "rejected"
)

type ServiceType string

const (
	ServiceVideoConsult   ServiceType = "video_consult"
	ServiceImagingConsult ServiceType = "imaging_consult"
	ServiceJointClinic    ServiceType = "joint_clinic"
	ServiceWardRound      ServiceType = "ward_round"
	ServiceReportReview   ServiceType = "report_review"
)

var validServiceTypes = map[ServiceType]struct{}{
	ServiceVideoConsult:   {},
	ServiceImagingConsult: {},
	ServiceJointClinic:    {},
	ServiceWardRound:      {},
	ServiceReportReview:   {},
}

type SupportTag string

const (
	TagImagingShare   SupportTag = "imaging_share"
	TagLabResults     SupportTag = "lab_results"
	TagLiveVideo      SupportTag = "live_video"
	TagCaseDiscussion SupportTag = "case_discussion"
	TagFollowUpPlan   SupportTag = "follow_up_plan"
)

type HistoryType string

const (
	HistoryStatus       HistoryType = "status"
	HistoryAssignment   HistoryType = "assignment"
	HistoryReport       HistoryType = "report"
	HistoryFeedback     HistoryType = "feedback"
	HistoryNote         HistoryType = "note"
	HistoryConfirmation HistoryType = "confirmation"
)

// HistoryEntry is one line of the case trail, newest at index 0.
type HistoryEntry struct {
	ID     string      `json:"id"`
	Actor  string      `json:"actor"`
	Action string      `json:"action"`
	Type   HistoryType `json:"type"`
	At     time.Time   `json:"at"`
}

type Schedule struct {
	ScheduledAt time.Time `json:"scheduledAt"`
	Method      string    `json:"method"`
	MeetingURL  string    `json:"meetingUrl,omitempty"`
	Note        string    `json:"note,omitempty"`
	AssignedBy  string    `json:"assignedBy"`
}

// DiagnosisAccess describes how the patient side joins the consult, either a
// link to an external platform or an in-app session.
type DiagnosisAccess struct {
	Provider    string    `json:"provider"` // external or in_app
	URL         string    `json:"url,omitempty"`
	AccessCode  string    `json:"accessCode,omitempty"`
	Note        string    `json:"note,omitempty"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type PatientConfirmation struct {
	ConfirmedAt time.Time `json:"confirmedAt"`
	ConfirmedBy string    `json:"confirmedBy"`
	Note        string    `json:"note,omitempty"`
}

type Report struct {
	Conclusion  string    `json:"conclusion"`
	Advice      string    `json:"advice"`
	Attachments []string  `json:"attachments,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	SubmittedBy string    `json:"submittedBy"`
}

type Feedback struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
	SubmittedBy string    `json:"submittedBy"`
}

type ServiceEvaluation struct {
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	Evaluator   string    `json:"evaluator"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Case is one telemedicine application moving through the consult lifecycle.
type Case struct {
	ID                  string               `json:"id"`
	ServiceType         ServiceType          `json:"serviceType"`
	PatientID           string               `json:"patientId"`
	PatientName         string               `json:"patientName"`
	PatientAge          int                  `json:"patientAge,omitempty"`
	PatientGender       string               `json:"patientGender,omitempty"`
	FromHospital        string               `json:"fromHospital"`
	Department          string               `json:"department,omitempty"`
	Description         string               `json:"description"`
	SupportTags         []SupportTag         `json:"supportTags"`
	AppliedBy           string               `json:"appliedBy"`
	AssignedDoctorID    string               `json:"assignedDoctorId,omitempty"`
	AssignedDoctorName  string               `json:"assignedDoctorName,omitempty"`
	AssignedHospital    string               `json:"assignedHospital,omitempty"`
	Stage               Stage                `json:"stage"`
	Status              CoarseStatus         `json:"status"`
	Schedule            *Schedule            `json:"schedule,omitempty"`
	DiagnosisAccess     *DiagnosisAccess     `json:"diagnosisAccess,omitempty"`
	PatientConfirmation *PatientConfirmation `json:"patientConfirmation,omitempty"`
	Report              *Report              `json:"report,omitempty"`
	Feedback            *Feedback            `json:"feedback,omitempty"`
	ServiceEvaluation   *ServiceEvaluation   `json:"serviceEvaluation,omitempty"`
	History             []HistoryEntry       `json:"history"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

func (c Case) RecordID() string { return c.ID }

type Filters struct {
	Status      CoarseStatus
	Stage       Stage
	ServiceType ServiceType
	PatientID   string
	DoctorID    string
	Search      string
}

type CreatePayload struct {
	ServiceType   ServiceType  `json:"serviceType"`
	PatientID     string       `json:"patientId"`
	PatientName   string       `json:"patientName"`
	PatientAge    int          `json:"patientAge,omitempty"`
	PatientGender string       `json:"patientGender,omitempty"`
	FromHospital  string       `json:"fromHospital"`
	Department    string       `json:"department,omitempty"`
	Description   string       `json:"description"`
	SupportTags   []SupportTag `json:"supportTags,omitempty"`
	AppliedBy     string       `json:"appliedBy"`
}

func (p CreatePayload) validate() error {
	if _, ok := validServiceTypes[p.ServiceType]; !ok {
		return fmt.Errorf("invalid serviceType: %s", p.ServiceType)
	}
	if p.PatientID == "" || p.PatientName == "" {
		return fmt.Errorf("patient is required")
	}
	if p.FromHospital == "" {
		return fmt.Errorf("fromHospital is required")
	}
	if p.Description == "" {
		return fmt.Errorf("description is required")
	}
	return nil
}

type AssignPayload struct {
	DoctorID    string    `json:"doctorId"`
	DoctorName  string    `json:"doctorName"`
	Hospital    string    `json:"hospital"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Method      string    `json:"method"`
	MeetingURL  string    `json:"meetingUrl,omitempty"`
	Note        string    `json:"note,omitempty"`
	AssignedBy  string    `json:"assignedBy"`
}

type ConfirmPayload struct {
	PatientID string `json:"patientId"`
	Note      string `json:"note,omitempty"`
}

type StartSessionPayload struct {
	Provider   string `json:"provider"` // external or in_app
	URL        string `json:"url,omitempty"`
	AccessCode string `json:"accessCode,omitempty"`
	Note       string `json:"note,omitempty"`
	StartedBy  string `json:"startedBy"`
}

type ReportPayload struct {
	Conclusion  string   `json:"conclusion"`
	Advice      string   `json:"advice"`
	Attachments []string `json:"attachments,omitempty"`
	SubmittedBy string   `json:"submittedBy"`
}

type FeedbackPayload struct {
	Rating      int    `json:"rating"`
	Comment     string `json:"comment,omitempty"`
	SubmittedBy string `json:"submittedBy"`
}

type ClosePayload struct {
	Rating   int    `json:"rating,omitempty"`
	Comment  string `json:"comment,omitempty"`
	ClosedBy string `json:"closedBy"`
}

type RejectPayload struct {
	Reason     string `json:"reason,omitempty"`
	RejectedBy string `json:"rejectedBy"`
}
