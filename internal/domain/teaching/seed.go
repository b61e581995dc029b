package teaching

import "time"

// SeedSignature marks the built-in demo lectures. Bump the suffix when the
// seed content changes so running deployments pick it up.
const SeedSignature = "teaching.lectures.seed.v5"

// SeedLectures returns the demo dataset loaded on first start.
func SeedLectures() []Lecture {
	now := time.Now().UTC()
	at := func(offsetHours int) time.Time { return now.Add(time.Duration(offsetHours) * time.Hour) }
	ptr := func(t time.Time) *time.Time { return &t }

	lecture1 := Lecture{
		ID:                  "lec-seed-001",
		Title:               "基层心血管疾病远程讲座",
		Category:            CategoryLectureTraining,
		TargetAudience:      AudienceMedicalStaff,
		Visibility:          VisibilityInternal,
		Tags:                []string{"心血管", "基层培训"},
		Summary:             "面向基层医生的高血压诊疗规范分享，涵盖案例讨论与远程随访经验。",
		Objectives:          []string{"统一诊疗路径", "掌握远程随访技巧"},
		OrganizerID:         "doc-001",
		OrganizerName:       "李医生",
		OrganizerHospital:   "吉林大学第二医院",
		OrganizerDepartment: "心内科",
		Lecturer:            Lecturer{ID: "exp-001", Name: "周兰", Title: "主任医师", Specialty: "心血管内科", Hospital: "吉林大学第二医院"},
		Stage:               StageNoticePublished,
		Status:              CoarseActive,
		CreatedAt:           at(-48),
		UpdatedAt:           at(-3),
		PlannedAt:           ptr(at(24)),
		DurationMinutes:     90,
		Notice: &Notice{
			PublishedAt:        at(-4),
			PublishedBy:        "admin-001",
			Channel:            "platform",
			Summary:            "请相关社区医生准时参加，并提前完成身份验证。",
			Audience:           AudienceMedicalStaff,
			EnrollmentClosesAt: ptr(at(6)),
		},
		Session: &Session{
			ScheduledAt:        at(24),
			DurationMinutes:    90,
			MeetingURL:         "https://example.com/live/cv-2025",
			AccessCode:         "CV-2025",
			LivestreamProvider: "external",
			Host:               "张护士",
		},
		Materials: []Material{
			{ID: "mat-001", Name: "讲座大纲.pdf", Type: "document", Uploader: "doc-001", UploadedAt: at(-5), Audience: AudienceMedicalStaff, URL: "https://cdn.example.com/materials/outline.pdf"},
		},
		Participants: []Participant{
			{ID: "doc-201", Name: "王卫", Role: "doctor", Organization: "吉林大学第二医院", VerifiedPhases: []Phase{PhasePreCheck}, VerificationStatus: OutcomePassed},
			{ID: "doc-202", Name: "刘峰", Role: "doctor", Organization: "吉林大学第二医院", VerifiedPhases: []Phase{}, VerificationStatus: OutcomePending},
		},
		VerificationRecords: []VerificationRecord{
			{ID: "ver-001", Phase: PhasePreCheck, PerformedBy: "admin-001", Status: OutcomePassed, Note: "社区医生完成工号验证", CreatedAt: at(-6), TargetParticipantIDs: []string{"doc-201"}},
		},
		History: []HistoryEntry{},
	}
	pushHistory(&lecture1, "李医生", "提交讲座申请", HistoryStatus)
	pushHistory(&lecture1, "管理员", "审核通过讲座申请", HistoryStatus)
	pushHistory(&lecture1, "管理员", "发布讲座开课通知", HistoryNotice)

	lecture2 := Lecture{
		ID:                  "lec-seed-002",
		Title:               "远程查房示范：糖尿病足救治",
		Category:            CategoryWardRound,
		TargetAudience:      AudienceMedicalStaff,
		Visibility:          VisibilityNetwork,
		Tags:                []string{"内分泌", "查房", "医联体"},
		Summary:             "示范医联体合作下的远程糖尿病足查房流程，涵盖跨院会诊与术后护理评估。",
		Objectives:          []string{"理解跨院远程查房流程", "掌握术后康复要点"},
		OrganizerID:         "doc-002",
		OrganizerName:       "赵医生",
		OrganizerHospital:   "吉林大学第二医院",
		OrganizerDepartment: "内分泌科",
		Lecturer:            Lecturer{ID: "exp-004", Name: "韩明", Title: "副主任医师", Specialty: "内分泌", Hospital: "吉林大学第二医院"},
		Stage:               StageInSession,
		Status:              CoarseActive,
		CreatedAt:           at(-72),
		UpdatedAt:           at(-1),
		PlannedAt:           ptr(at(-1)),
		DurationMinutes:     60,
		Notice: &Notice{
			PublishedAt: at(-30),
			PublishedBy: "admin-001",
			Channel:     "platform",
			Summary:     "请相关病区护士提前准备远程查房终端。",
			Audience:    AudienceMedicalStaff,
		},
		Session: &Session{
			ScheduledAt:        at(-1),
			DurationMinutes:    60,
			MeetingURL:         "https://example.com/live/ward-2025",
			LivestreamProvider: "hybrid",
			Host:               "赵医生",
		},
		Materials: []Material{
			{ID: "mat-002", Name: "病例介绍.pptx", Type: "slides", Uploader: "doc-002", UploadedAt: at(-40), Audience: AudienceMedicalStaff},
		},
		Participants: []Participant{
			{ID: "nurse-301", Name: "李娜", Role: "nurse", Organization: "吉林大学第二医院", Department: "内分泌科", VerifiedPhases: []Phase{PhasePreCheck, PhaseLiveCheck}, VerificationStatus: OutcomePassed},
			{ID: "doc-203", Name: "陈志", Role: "doctor", Organization: "吉林大学第二医院", VerifiedPhases: []Phase{PhasePreCheck}, VerificationStatus: OutcomePassed},
		},
		VerificationRecords: []VerificationRecord{
			{ID: "ver-002", Phase: PhasePreCheck, PerformedBy: "admin-001", Status: OutcomePassed, Note: "核验医护身份", CreatedAt: at(-32)},
			{ID: "ver-003", Phase: PhaseLiveCheck, PerformedBy: "doc-002", Status: OutcomePassed, Note: "直播点名确认", CreatedAt: at(-1)},
		},
		History: []HistoryEntry{},
	}
	pushHistory(&lecture2, "赵医生", "提交讲座申请", HistoryStatus)
	pushHistory(&lecture2, "管理员", "审核通过讲座申请", HistoryStatus)
	pushHistory(&lecture2, "管理员", "发布讲座开课通知", HistoryNotice)
	pushHistory(&lecture2, "赵医生", "启动远程查房直播", HistoryStatus)

	lecture3 := Lecture{
		ID:                  "lec-seed-003",
		Title:               "健康教育：慢阻肺居家康复指导",
		Category:            CategoryKnowledgeShare,
		TargetAudience:      AudienceMixed,
		Visibility:          VisibilityPublic,
		Tags:                []string{"慢病管理", "健康教育"},
		Summary:             "面向患者与家属的慢阻肺居家护理指南，包含呼吸操演示与注意事项。",
		Objectives:          []string{"普及慢阻肺知识", "指导患者家庭护理"},
		OrganizerID:         "doc-003",
		OrganizerName:       "王医生",
		OrganizerHospital:   "吉林大学第二医院",
		OrganizerDepartment: "呼吸科",
		Lecturer:            Lecturer{ID: "exp-005", Name: "李青", Title: "主任医师", Specialty: "呼吸与危重症", Hospital: "吉林大学第二医院"},
		Stage:               StageArchived,
		Status:              CoarseCompleted,
		CreatedAt:           at(-168),
		UpdatedAt:           at(-24),
		PlannedAt:           ptr(at(-96)),
		DurationMinutes:     75,
		Notice: &Notice{
			PublishedAt:       at(-120),
			PublishedBy:       "admin-002",
			Channel:           "mixed",
			Summary:           "向患者开放报名，提供点播入口。",
			Audience:          AudienceMixed,
			EnrollmentFormURL: "https://example.com/form/copd",
		},
		Session: &Session{
			ScheduledAt:        at(-96),
			DurationMinutes:    75,
			MeetingURL:         "https://example.com/live/copd",
			LivestreamProvider: "external",
			Host:               "王医生",
		},
		Materials: []Material{
			{ID: "mat-003", Name: "呼吸操视频.mp4", Type: "video", Uploader: "admin-002", UploadedAt: at(-95), Audience: AudienceMixed, URL: "https://cdn.example.com/videos/copd.mp4"},
		},
		Participants: []Participant{
			{ID: "patient-101", Name: "赵云", Role: "patient", VerifiedPhases: []Phase{PhasePreCheck, PhasePostCheck}, VerificationStatus: OutcomePassed},
			{ID: "patient-102", Name: "刘敏", Role: "patient", VerifiedPhases: []Phase{PhasePreCheck}, VerificationStatus: OutcomePassed},
		},
		VerificationRecords: []VerificationRecord{
			{ID: "ver-004", Phase: PhasePreCheck, PerformedBy: "admin-002", Status: OutcomePassed, Note: "患者实名验证", CreatedAt: at(-110)},
			{ID: "ver-005", Phase: PhasePostCheck, PerformedBy: "admin-002", Status: OutcomePassed, Note: "完成问卷与结课确认", CreatedAt: at(-90)},
		},
		Report: &Report{
			GeneratedAt:       at(-80),
			GeneratedBy:       "admin-002",
			Summary:           "共有 180 名患者报名，实时参与 120 人，满意度 4.8/5。",
			AttendanceRate:    0.77,
			SatisfactionScore: 4.8,
			Recommendations:   []string{"上线点播回看功能", "增加康复器材演示"},
		},
		History: []HistoryEntry{},
	}
	pushHistory(&lecture3, "王医生", "提交讲座申请", HistoryStatus)
	pushHistory(&lecture3, "管理员", "审核通过讲座申请", HistoryStatus)
	pushHistory(&lecture3, "管理员", "发布讲座通知", HistoryNotice)
	pushHistory(&lecture3, "王医生", "执行讲座直播", HistoryStatus)
	pushHistory(&lecture3, "管理员", "生成讲座报告并归档", HistoryReport)

	lecture4 := Lecture{
		ID:                  "lec-seed-004",
		Title:               "讲座彩排与资料确认会",
		Category:            CategoryTeachingDiscussion,
		TargetAudience:      AudienceMedicalStaff,
		Visibility:          VisibilityPrivate,
		Tags:                []string{"内部彩排", "流程校验"},
		Summary:             "组织团队内部的彩排会议，用于确认直播流程和资料完整性，仅限发起团队查看。",
		Objectives:          []string{"验证直播流程", "完善资料包"},
		OrganizerID:         "doc-001",
		OrganizerName:       "李医生",
		OrganizerHospital:   "吉林大学第二医院",
		OrganizerDepartment: "心内科",
		Lecturer:            Lecturer{ID: "exp-001", Name: "周兰", Title: "主任医师", Specialty: "心血管内科", Hospital: "吉林大学第二医院"},
		Stage:               StageApproved,
		Status:              CoarsePending,
		CreatedAt:           at(-18),
		UpdatedAt:           at(-2),
		PlannedAt:           ptr(at(18)),
		DurationMinutes:     45,
		Materials: []Material{
			{ID: "mat-009", Name: "彩排流程检查表.xlsx", Type: "document", Uploader: "doc-001", UploadedAt: at(-3), Audience: AudienceMedicalStaff},
		},
		Participants: []Participant{
			{ID: "nurse-888", Name: "宋晴", Role: "nurse", Organization: "吉林大学第二医院", Department: "心内科", VerifiedPhases: []Phase{}, VerificationStatus: OutcomePending},
		},
		VerificationRecords: []VerificationRecord{},
		History:             []HistoryEntry{},
	}
	pushHistory(&lecture4, "李医生", "发起内部彩排会", HistoryStatus)
	pushHistory(&lecture4, "李医生", "上传彩排检查表", HistoryMaterial)

	return []Lecture{lecture1, lecture2, lecture3, lecture4}
}
