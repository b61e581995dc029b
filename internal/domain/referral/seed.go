package referral

import "time"

// SeedSignature marks the built-in demo dataset. Bump the suffix when the
// seed content changes so running deployments pick it up.
const SeedSignature = "referral.cases.seed.v2"

// SeedReferrals returns the demo cases loaded on first start.
func SeedReferrals() []Referral {
	now := time.Now().UTC()
	day := func(offset int) time.Time { return now.AddDate(0, 0, offset) }

	handled := day(-1)
	r2Audit := []AuditEntry{
		{Step: "created", By: "doctor2", At: day(-3), Note: "胸痛待查，建议上级医院会诊"},
		{Step: "accepted", By: "doctor1", At: handled, Note: "已预约会诊"},
	}

	return []Referral{
		{
			ID: "ref-seed-001", PatientID: "p1", PatientName: "张三",
			FromHospital: "吉林大学第二医院", ToHospital: "北京同仁医院",
			Direction: DirectionOutbound, TransferType: TransferOutpatient,
			Tags: []string{"眼科", "白内障"}, Status: StatusPending,
			CreatedAt: day(-2), UpdatedAt: day(-2),
			FollowUps: []FollowUp{},
			AuditTrail: []AuditEntry{
				{Step: "created", By: "doctor3", At: day(-2), Note: "建议白内障手术评估"},
			},
		},
		{
			ID: "ref-seed-002", PatientID: "p2", PatientName: "李四",
			FromHospital: "天津市人民医院", ToHospital: "吉林大学第二医院",
			Direction: DirectionInbound, TransferType: TransferInpatient,
			Tags: []string{"心内科"}, Status: StatusAccepted,
			Note: "已预约会诊", HandledBy: "doctor1", HandledAt: &handled,
			CreatedAt: day(-3), UpdatedAt: handled,
			FollowUps: []FollowUp{}, AuditTrail: r2Audit,
		},
		{
			ID: "ref-seed-003", PatientID: "p3", PatientName: "王五",
			FromHospital: "吉林大学第二医院", ToHospital: "北京大学人民医院",
			Direction: DirectionOutbound, TransferType: TransferOutpatient,
			Status:    StatusRejected,
			Note:      "病情不适合转诊",
			CreatedAt: day(-4), UpdatedAt: day(-4),
			FollowUps: []FollowUp{},
			AuditTrail: []AuditEntry{
				{Step: "created", By: "doctor2", At: day(-4)},
				{Step: "rejected", By: "doctor2", At: day(-4), Note: "病情不适合转诊"},
			},
		},
		{
			ID: "ref-seed-004", PatientID: "p4", PatientName: "赵六",
			FromHospital: "吉林大学第二医院", ToHospital: "北京安贞医院",
			Direction: DirectionOutbound, TransferType: TransferInpatient,
			Tags: []string{"心外科", "术后康复"}, Status: StatusPending,
			CreatedAt: day(-5), UpdatedAt: day(-5),
			FollowUps: []FollowUp{},
			AuditTrail: []AuditEntry{
				{Step: "created", By: "doctor4", At: day(-5)},
			},
		},
		{
			ID: "ref-seed-005", PatientID: "p5", PatientName: "钱七",
			FromHospital: "河北医科大学附属医院", ToHospital: "吉林大学第二医院",
			Direction: DirectionInbound, TransferType: TransferOutpatient,
			Status:    StatusPending,
			CreatedAt: day(-6), UpdatedAt: day(-6),
			FollowUps: []FollowUp{},
			AuditTrail: []AuditEntry{
				{Step: "created", By: "doctor5", At: day(-6)},
			},
		},
	}
}
