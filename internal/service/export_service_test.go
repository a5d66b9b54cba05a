package service

import (
	"context"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ── 测试辅助 ──

// setupAggregated 两名评审人完成评审并计算一次汇总
func setupAggregated(t *testing.T, env *testEnv) {
	t.Helper()
	ids := setupUnderReview(t, env, "rev-1", "rev-2")
	rsvc := NewReviewService(env.repo, env.audit, env.logger)
	if _, err := submit(rsvc, "rev-1", ids["rev-1"], false, map[string]any{"CONT-1": 4.0, "PED-1": 3.0}); err != nil {
		t.Fatalf("提交评审失败: %v", err)
	}
	if _, err := submit(rsvc, "rev-2", ids["rev-2"], false, map[string]any{"CONT-1": 2.0}); err != nil {
		t.Fatalf("提交评审失败: %v", err)
	}
	if _, err := NewAggregateService(env.repo, env.audit, env.logger).ComputeAggregate(context.Background(), committee, "book-1"); err != nil {
		t.Fatalf("计算汇总失败: %v", err)
	}
}

// ── ExportAggregate 测试 ──

func TestExportService_ExportAggregate_Success(t *testing.T) {
	env := newTestEnv()
	setupAggregated(t, env)
	svc := NewExportService(env.repo, env.logger)

	buf, filename, err := svc.ExportAggregate(context.Background(), secretariat, "book-1")
	if err != nil {
		t.Fatalf("ExportAggregate 应成功: %v", err)
	}
	if filename != "评审汇总_本草学基础.xlsx" {
		t.Errorf("文件名不符: %s", filename)
	}
	// Excel .xlsx 文件以 PK (0x504B) 开头
	if buf.Len() < 2 || buf.Bytes()[0] != 0x50 || buf.Bytes()[1] != 0x4B {
		t.Fatal("输出内容不是有效的 xlsx 文件格式（应以 PK 开头）")
	}

	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("打开导出文件失败: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != statsSheet || sheets[1] != reviewsSheet {
		t.Fatalf("Sheet 列表不符: %v", sheets)
	}

	// 第 3 行为编码最小的指标
	if v, _ := f.GetCellValue(statsSheet, "A3"); v != "CONT-1" {
		t.Errorf("A3 期望 CONT-1，实际: %s", v)
	}
	if v, _ := f.GetCellValue(statsSheet, "B3"); v != "内容准确性" {
		t.Errorf("B3 期望指标名称，实际: %s", v)
	}
	if v, _ := f.GetCellValue(statsSheet, "C3"); v != "3" {
		t.Errorf("CONT-1 均值期望 3，实际: %s", v)
	}
	if v, _ := f.GetCellValue(statsSheet, "H3"); v != "2" {
		t.Errorf("CONT-1 评分数期望 2，实际: %s", v)
	}

	rows, err := f.GetRows(reviewsSheet)
	if err != nil {
		t.Fatalf("读取明细失败: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("明细期望 1 行表头 + 2 行评审，实际: %d", len(rows))
	}
	if rows[0][2] != "CONT-1" || rows[0][3] != "PED-1" {
		t.Errorf("明细表头不符: %v", rows[0])
	}
	for _, r := range rows[1:] {
		if r[0] == "用户-rev-2" && r[3] != "-" {
			t.Errorf("未评分的指标应显示为 -，实际: %v", r)
		}
	}
}

func TestExportService_ExportAggregate_Errors(t *testing.T) {
	env := newTestEnv()
	env.seedBook("book-1", "UNDER_REVIEW")
	svc := NewExportService(env.repo, env.logger)
	ctx := context.Background()

	if _, _, err := svc.ExportAggregate(ctx, reviewerActor("rev-1"), "book-1"); !errors.Is(err, ErrForbidden) {
		t.Errorf("评审人期望 ErrForbidden，实际: %v", err)
	}
	if _, _, err := svc.ExportAggregate(ctx, committee, "missing"); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("期望 ErrBookNotFound，实际: %v", err)
	}
	if _, _, err := svc.ExportAggregate(ctx, committee, "book-1"); !errors.Is(err, ErrAggregateNotFound) {
		t.Errorf("尚未计算汇总期望 ErrAggregateNotFound，实际: %v", err)
	}
}
