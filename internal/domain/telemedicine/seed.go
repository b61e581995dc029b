package telemedicine

import "time"

const SeedSignature = "telemedicine.apps.seed.v1"

// SeedCases returns the demo dataset loaded into empty stores.
func SeedCases() []Case {
	base := time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)

	applied := Case{
		ID:            "tmc-seed-001",
		ServiceType:   ServiceImagingConsult,
		PatientID:     "pat-101",
		PatientName:   "张桂芳",
		PatientAge:    67,
		PatientGender: "female",
		FromHospital:  "梅河口市中心医院",
		Department:    "呼吸内科",
		Description:   "胸部CT提示右肺占位，申请上级医院影像会诊",
		SupportTags:   []SupportTag{TagImagingShare, TagCaseDiscussion},
		AppliedBy:     "孙医生",
		Stage:         StageApplied,
		Status:        CoarsePending,
		History:       []HistoryEntry{},
		CreatedAt:     base,
		UpdatedAt:     base,
	}
	pushHistory(&applied, "孙医生", "提交远程诊疗申请", HistoryStatus)

	scheduled := Case{
		ID:                 "tmc-seed-002",
		ServiceType:        ServiceVideoConsult,
		PatientID:          "pat-102",
		PatientName:        "王建国",
		PatientAge:         58,
		PatientGender:      "male",
		FromHospital:       "长春市双阳区医院",
		Department:         "心内科",
		Description:        "冠心病支架术后胸闷复发，申请视频会诊调整用药",
		SupportTags:        []SupportTag{TagLiveVideo, TagLabResults},
		AppliedBy:          "赵医生",
		AssignedDoctorID:   "doc-201",
		AssignedDoctorName: "周主任",
		AssignedHospital:   "吉林大学第二医院",
		Stage:              StageScheduled,
		Status:             CoarseScheduled,
		Schedule: &Schedule{
			ScheduledAt: base.Add(72 * time.Hour),
			Method:      "video",
			MeetingURL:  "https://meet.medunion.example/tmc-seed-002",
			AssignedBy:  "管理员",
		},
		History:   []HistoryEntry{},
		CreatedAt: base.Add(-48 * time.Hour),
		UpdatedAt: base,
	}
	pushHistory(&scheduled, "赵医生", "提交远程诊疗申请", HistoryStatus)
	pushHistory(&scheduled, "管理员", "指派专家：周主任", HistoryAssignment)

	closed := Case{
		ID:                 "tmc-seed-003",
		ServiceType:        ServiceReportReview,
		PatientID:          "pat-103",
		PatientName:        "李淑华",
		PatientAge:         72,
		PatientGender:      "female",
		FromHospital:       "四平市中心人民医院",
		Department:         "内分泌科",
		Description:        "糖尿病肾病随访报告复核",
		SupportTags:        []SupportTag{TagLabResults, TagFollowUpPlan},
		AppliedBy:          "钱医生",
		AssignedDoctorID:   "doc-202",
		AssignedDoctorName: "吴教授",
		AssignedHospital:   "吉林大学第二医院",
		Stage:              StageClosed,
		Status:             CoarseCompleted,
		Schedule: &Schedule{
			ScheduledAt: base.Add(-96 * time.Hour),
			Method:      "offline_review",
			AssignedBy:  "管理员",
		},
		Report: &Report{
			Conclusion:  "肾功能指标较上季度稳定，尿微量白蛋白轻度升高",
			Advice:      "调整ACEI剂量，三个月后复查",
			SubmittedAt: base.Add(-24 * time.Hour),
			SubmittedBy: "吴教授",
		},
		ServiceEvaluation: &ServiceEvaluation{
			Rating:      5,
			Comment:     "报告详尽，用药建议明确",
			Evaluator:   "钱医生",
			SubmittedAt: base,
		},
		History:   []HistoryEntry{},
		CreatedAt: base.Add(-168 * time.Hour),
		UpdatedAt: base,
	}
	pushHistory(&closed, "钱医生", "提交远程诊疗申请", HistoryStatus)
	pushHistory(&closed, "管理员", "指派专家：吴教授", HistoryAssignment)
	pushHistory(&closed, "吴教授", "提交会诊报告", HistoryReport)
	pushHistory(&closed, "钱医生", "结案并评价服务", HistoryFeedback)

	return []Case{applied, scheduled, closed}
}
