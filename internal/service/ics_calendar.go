package service

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// ── 评审日历 ──────────────────────────────────────────────
//
// 将评审人未完成的分配导出为 iCalendar (RFC 5545)：
//   - 每个分配一个全天 VEVENT，日期为截止日
//   - UID 使用分配 ID，客户端重复订阅时可去重
//   - 已逾期的分配在标题前加 [逾期]
// ─────────────────────────────────────────────────────────────

const calendarProductID = "-//textbook-review//assignments//ZH"

// BuildReviewCalendar 生成评审截止日历
func BuildReviewCalendar(list []model.Assignment, baseURL string, now time.Time) []byte {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetName("教材评审截止日")

	for i := range list {
		a := &list[i]
		if a.Status == model.AssignmentStatusCompleted {
			continue
		}

		title := "教材评审"
		if a.Book != nil && a.Book.Title != "" {
			title = "评审《" + a.Book.Title + "》"
		}
		if a.EffectiveStatus(now) == model.AssignmentStatusOverdue {
			title = "[逾期] " + title
		}

		evt := cal.AddEvent(a.AssignmentID + "@textbook-review")
		evt.SetDtStampTime(now)
		evt.SetCreatedTime(a.AssignedAt)
		evt.SetAllDayStartAt(a.DueDate)
		evt.SetAllDayEndAt(a.DueDate.AddDate(0, 0, 1))
		evt.SetSummary(title)
		evt.SetDescription(fmt.Sprintf("状态: %s\n截止: %s", a.Status, a.DueDate.Format(timeLayout)))
		if baseURL != "" {
			evt.SetURL(strings.TrimRight(baseURL, "/") + "/api/v1/reviews/" + a.AssignmentID + "/review")
		}
	}

	return []byte(cal.Serialize())
}
