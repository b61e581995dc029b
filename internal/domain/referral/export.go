package referral

import (
	"context"
	"fmt"
	"strings"
)

var statusLabels = map[Status]string{
	StatusPending:             "待处理",
	StatusAccepted:            "已接收",
	StatusOutpatientCompleted: "门诊治疗完成",
	StatusInpatientCompleted:  "住院治疗完成",
	StatusFollowedUp:          "已随访",
	StatusRejected:            "已拒绝",
}

// Export renders a case as a multi-line text summary for printing or
// hand-off. It is a pure projection and changes no state.
func (s *Service) Export(ctx context.Context, id string) (string, error) {
	r, ok := s.store.Find(ctx, id)
	if !ok {
		return "", ErrNotFound
	}

	var b strings.Builder
	fmt.Fprintf(&b, "转诊单 %s\n", r.ID)
	fmt.Fprintf(&b, "状态：%s\n", statusLabels[r.Status])
	b.WriteString("\n[患者信息]\n")
	fmt.Fprintf(&b, "姓名：%s（编号 %s）\n", r.PatientName, r.PatientID)
	if len(r.Tags) > 0 {
		fmt.Fprintf(&b, "标签：%s\n", strings.Join(r.Tags, "、"))
	}

	b.WriteString("\n[转诊医院]\n")
	fmt.Fprintf(&b, "转出：%s\n", r.FromHospital)
	fmt.Fprintf(&b, "转入：%s\n", r.ToHospital)
	fmt.Fprintf(&b, "类型：%s / %s\n", r.Direction, r.TransferType)
	fmt.Fprintf(&b, "创建时间：%s\n", r.CreatedAt.Format("2006-01-02 15:04"))

	b.WriteString("\n[治疗情况]\n")
	if r.TreatmentPlan != "" {
		fmt.Fprintf(&b, "治疗方案：%s\n", r.TreatmentPlan)
	}
	if r.DownReferral != nil {
		fmt.Fprintf(&b, "下转诊断：%s\n", r.DownReferral.Diagnosis)
		fmt.Fprintf(&b, "下转建议：%s\n", r.DownReferral.Advice)
		fmt.Fprintf(&b, "签发医生：%s\n", r.DownReferral.IssuedBy)
	}
	if r.InformedPatient != nil {
		fmt.Fprintf(&b, "患者告知：%s（%s）\n", r.InformedPatient.Instruction, r.InformedPatient.By)
	}
	if r.TreatmentPlan == "" && r.DownReferral == nil && r.InformedPatient == nil {
		b.WriteString("暂无治疗记录\n")
	}

	b.WriteString("\n[随访记录]\n")
	if len(r.FollowUps) == 0 {
		b.WriteString("暂无随访\n")
	}
	for i, fu := range r.FollowUps {
		fmt.Fprintf(&b, "%d. %s %s（%s）\n", i+1, fu.At.Format("2006-01-02"), fu.Summary, fu.By)
	}

	return b.String(), nil
}
