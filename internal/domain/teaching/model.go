// Package teaching implements the lecture lifecycle: application, review,
// notice publication, enrollment, live session, participant verification,
// reporting, and archival, with per-lecture visibility control.
package teaching

import (
	"fmt"
	"time"
)

type Stage string

const (
	StageApplied          Stage = "applied"
	StageUnderReview      Stage = "under_review"
	StageApproved         Stage = "approved"
	StageNoticePublished  Stage = "notice_published"
	StageEnrollmentClosed Stage = "enrollment_closed"
	StageInSession        Stage = "in_session"
	StagePostVerification Stage = "post_verification"
	StageReportReady      Stage = "report_ready"
	StageArchived         Stage = "archived"
	StageRejected         Stage = "rejected"
)

type CoarseStatus string

const (
	CoarsePending   CoarseStatus = "pending"
	CoarseActive    CoarseStatus = "active"
	CoarseCompleted CoarseStatus = "completed"
	CoarseRejected  CoarseStatus = "rejected"
)

type Category string

const (
	CategoryTeachingDiscussion Category = "teaching_discussion"
	CategoryWardRound          Category = "ward_round"
	CategoryKnowledgeShare     Category = "knowledge_share"
	CategoryLectureTraining    Category = "lecture_training"
	CategorySurgeryLive        Category = "surgery_live"
)

type Audience string

const (
	AudienceMedicalStaff Audience = "medical_staff"
	AudiencePatients     Audience = "patients"
	AudienceMixed        Audience = "mixed"
)

type Visibility string

const (
	VisibilityPrivate  Visibility = "private"
	VisibilityInternal Visibility = "internal"
	VisibilityNetwork  Visibility = "network"
	VisibilityPublic   Visibility = "public"
)

type Phase string

const (
	PhasePreCheck  Phase = "pre_check"
	PhaseLiveCheck Phase = "live_check"
	PhasePostCheck Phase = "post_check"
)

type Outcome string

const (
	OutcomePending Outcome = "pending"
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
)

type HistoryType string

const (
	HistoryStatus       HistoryType = "status"
	HistoryNotice       HistoryType = "notice"
	HistoryVerification HistoryType = "verification"
	HistoryMaterial     HistoryType = "material"
	HistoryReport       HistoryType = "report"
	HistorySystem       HistoryType = "system"
)

// HistoryEntry is one line of the lecture's trail. Entries are prepended so
// index 0 is always the most recent.
type HistoryEntry struct {
	ID     string      `json:"id"`
	Actor  string      `json:"actor"`
	Action string      `json:"action"`
	Type   HistoryType `json:"type"`
	At     time.Time   `json:"at"`
}

type Participant struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Role               string  `json:"role"`
	Organization       string  `json:"organization,omitempty"`
	Department         string  `json:"department,omitempty"`
	VerifiedPhases     []Phase `json:"verifiedPhases"`
	VerificationStatus Outcome `json:"verificationStatus"`
	Note               string  `json:"note,omitempty"`
}

type VerificationRecord struct {
	ID                   string    `json:"id"`
	Phase                Phase     `json:"phase"`
	PerformedBy          string    `json:"performedBy"`
	Status               Outcome   `json:"status"`
	Note                 string    `json:"note,omitempty"`
	CreatedAt            time.Time `json:"createdAt"`
	Attachments          []string  `json:"attachments,omitempty"`
	TargetParticipantIDs []string  `json:"targetParticipantIds,omitempty"`
}

type Notice struct {
	PublishedAt        time.Time  `json:"publishedAt"`
	PublishedBy        string     `json:"publishedBy"`
	Channel            string     `json:"channel"`
	Summary            string     `json:"summary"`
	Audience           Audience   `json:"audience"`
	EnrollmentClosesAt *time.Time `json:"enrollmentClosesAt,omitempty"`
	EnrollmentFormURL  string     `json:"enrollmentFormUrl,omitempty"`
	Attachments        []string   `json:"attachments,omitempty"`
}

type Session struct {
	ScheduledAt        time.Time `json:"scheduledAt"`
	DurationMinutes    int       `json:"durationMinutes"`
	MeetingURL         string    `json:"meetingUrl,omitempty"`
	OnsiteLocation     string    `json:"onsiteLocation,omitempty"`
	AccessCode         string    `json:"accessCode,omitempty"`
	LivestreamProvider string    `json:"livestreamProvider,omitempty"`
	Host               string    `json:"host,omitempty"`
	TechSupportContact string    `json:"techSupportContact,omitempty"`
}

type Material struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	Uploader   string    `json:"uploader"`
	UploadedAt time.Time `json:"uploadedAt"`
	URL        string    `json:"url,omitempty"`
	Audience   Audience  `json:"audience"`
}

type Report struct {
	GeneratedAt       time.Time `json:"generatedAt"`
	GeneratedBy       string    `json:"generatedBy"`
	Summary           string    `json:"summary"`
	AttendanceRate    float64   `json:"attendanceRate"`
	SatisfactionScore float64   `json:"satisfactionScore,omitempty"`
	Recommendations   []string  `json:"recommendations,omitempty"`
	Attachments       []string  `json:"attachments,omitempty"`
}

type Lecturer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	Hospital  string `json:"hospital,omitempty"`
}

// Lecture is one teaching activity moving through the lifecycle. Status is
// the coarse display projection of Stage.
type Lecture struct {
	ID                  string               `json:"id"`
	Title               string               `json:"title"`
	Category            Category             `json:"category"`
	TargetAudience      Audience             `json:"targetAudience"`
	Visibility          Visibility           `json:"visibility"`
	Tags                []string             `json:"tags"`
	Summary             string               `json:"summary"`
	Objectives          []string             `json:"objectives"`
	OrganizerID         string               `json:"organizerId"`
	OrganizerName       string               `json:"organizerName"`
	OrganizerHospital   string               `json:"organizerHospital"`
	OrganizerDepartment string               `json:"organizerDepartment,omitempty"`
	Lecturer            Lecturer             `json:"lecturer"`
	Stage               Stage                `json:"stage"`
	Status              CoarseStatus         `json:"status"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
	PlannedAt           *time.Time           `json:"plannedAt,omitempty"`
	DurationMinutes     int                  `json:"durationMinutes,omitempty"`
	Notice              *Notice              `json:"notice,omitempty"`
	Session             *Session             `json:"session,omitempty"`
	Materials           []Material           `json:"materials"`
	Participants        []Participant        `json:"participants"`
	VerificationRecords []VerificationRecord `json:"verificationRecords"`
	Report              *Report              `json:"report,omitempty"`
	History             []HistoryEntry       `json:"history"`
}

func (l Lecture) RecordID() string { return l.ID }

// Filters restricts a lecture listing. Viewer, when set, additionally drops
// lectures the viewer may not see.
type Filters struct {
	Stage         Stage
	Status        CoarseStatus
	OrganizerID   string
	ParticipantID string
	Visibility    Visibility
	Search        string
	Viewer        *Viewer
}

type CreatePayload struct {
	Title               string     `json:"title"`
	Category            Category   `json:"category"`
	TargetAudience      Audience   `json:"targetAudience"`
	Visibility          Visibility `json:"visibility"`
	Tags                []string   `json:"tags,omitempty"`
	Summary             string     `json:"summary"`
	Objectives          []string   `json:"objectives,omitempty"`
	PlannedAt           *time.Time `json:"plannedAt,omitempty"`
	DurationMinutes     int        `json:"durationMinutes,omitempty"`
	OrganizerID         string     `json:"organizerId"`
	OrganizerName       string     `json:"organizerName"`
	OrganizerHospital   string     `json:"organizerHospital"`
	OrganizerDepartment string     `json:"organizerDepartment,omitempty"`
	Lecturer            Lecturer   `json:"lecturer"`
}

func (p CreatePayload) validate() error {
	if p.Title == "" {
		return fmt.Errorf("title is required")
	}
	if p.OrganizerID == "" || p.OrganizerName == "" {
		return fmt.Errorf("organizer is required")
	}
	if p.OrganizerHospital == "" {
		return fmt.Errorf("organizerHospital is required")
	}
	switch p.Visibility {
	case VisibilityPrivate, VisibilityInternal, VisibilityNetwork, VisibilityPublic:
	default:
		return fmt.Errorf("invalid visibility: %s", p.Visibility)
	}
	return nil
}

type ReviewPayload struct {
	ReviewerID   string `json:"reviewerId"`
	ReviewerName string `json:"reviewerName"`
	Decision     string `json:"decision"` // approved or rejected
	Comment      string `json:"comment,omitempty"`
}

type PublishNoticePayload struct {
	PublishedBy        string     `json:"publishedBy"`
	PublishedByName    string     `json:"publishedByName"`
	Channel            string     `json:"channel"`
	Summary            string     `json:"summary"`
	Audience           Audience   `json:"audience"`
	EnrollmentClosesAt *time.Time `json:"enrollmentClosesAt,omitempty"`
	EnrollmentFormURL  string     `json:"enrollmentFormUrl,omitempty"`
	Attachments        []string   `json:"attachments,omitempty"`
}

type CloseEnrollmentPayload struct {
	ClosedBy     string `json:"closedBy"`
	ClosedByName string `json:"closedByName"`
	Note         string `json:"note,omitempty"`
}

type MarkLivePayload struct {
	Host               string `json:"host"`
	MeetingURL         string `json:"meetingUrl,omitempty"`
	AccessCode         string `json:"accessCode,omitempty"`
	LivestreamProvider string `json:"livestreamProvider,omitempty"`
	TechSupportContact string `json:"techSupportContact,omitempty"`
}

type VerificationPayload struct {
	Phase                Phase    `json:"phase"`
	PerformedBy          string   `json:"performedBy"`
	PerformerName        string   `json:"performerName"`
	Status               Outcome  `json:"status"`
	Note                 string   `json:"note,omitempty"`
	Attachments          []string `json:"attachments,omitempty"`
	TargetParticipantIDs []string `json:"targetParticipantIds,omitempty"`
}

type UploadMaterialPayload struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	URL          string   `json:"url,omitempty"`
	Uploader     string   `json:"uploader"`
	UploaderName string   `json:"uploaderName"`
	Audience     Audience `json:"audience"`
}

type CompileReportPayload struct {
	GeneratedBy       string   `json:"generatedBy"`
	GeneratedByName   string   `json:"generatedByName"`
	Summary           string   `json:"summary"`
	AttendanceRate    float64  `json:"attendanceRate"`
	SatisfactionScore float64  `json:"satisfactionScore,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
	Attachments       []string `json:"attachments,omitempty"`
}
