package service

import (
	"math"
	"reflect"
	"testing"

	"gorm.io/datatypes"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

func almostEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeCriterionStats(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   model.CriterionStats
	}{
		{"空", nil, model.CriterionStats{}},
		{"单值", []float64{4}, model.CriterionStats{Mean: 4, Median: 4, Variance: 0, Min: 4, Max: 4, Count: 1}},
		{"奇数个", []float64{5, 1, 3}, model.CriterionStats{Mean: 3, Median: 3, Variance: 8.0 / 3, Min: 1, Max: 5, Count: 3}},
		// 偶数个取上中位数
		{"偶数个", []float64{4, 1, 3, 2}, model.CriterionStats{Mean: 2.5, Median: 3, Variance: 1.25, Min: 1, Max: 4, Count: 4}},
		// 总体方差：(2-3)^2+(4-3)^2 / 2 = 1
		{"两个值", []float64{4, 2}, model.CriterionStats{Mean: 3, Median: 4, Variance: 1, Min: 2, Max: 4, Count: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeCriterionStats(tt.values)
			if !almostEqual(got.Mean, tt.want.Mean) || !almostEqual(got.Median, tt.want.Median) ||
				!almostEqual(got.Variance, tt.want.Variance) || got.Min != tt.want.Min ||
				got.Max != tt.want.Max || got.Count != tt.want.Count {
				t.Errorf("期望 %+v，实际 %+v", tt.want, got)
			}
		})
	}
}

func TestComputeCriterionStats_DoesNotMutateInput(t *testing.T) {
	in := []float64{5, 1, 3}
	ComputeCriterionStats(in)
	if !reflect.DeepEqual(in, []float64{5, 1, 3}) {
		t.Errorf("输入切片被修改: %v", in)
	}
}

func TestAggregateScores_CountPerCriterion(t *testing.T) {
	reviews := []model.Review{
		{Scores: datatypes.NewJSONType(model.ScoreMap{"CONT-1": 4, "CONT-2": 5})},
		{Scores: datatypes.NewJSONType(model.ScoreMap{"CONT-1": 2})},
	}
	stats := AggregateScores(reviews)
	if stats["CONT-1"].Count != 2 || stats["CONT-2"].Count != 1 {
		t.Errorf("计数不符: %+v", stats)
	}
	if len(stats) != 2 {
		t.Errorf("只应统计出现过的指标，实际: %d", len(stats))
	}
}

func TestOverallMean_And_WeightedScore(t *testing.T) {
	stats := model.StatsMap{
		"A": {Mean: 3},
		"B": {Mean: 4},
		"C": {Mean: 2},
	}
	if got := OverallMean(stats); !almostEqual(got, 3) {
		t.Errorf("综合均分期望 3，实际 %v", got)
	}
	if got := OverallMean(model.StatsMap{}); got != 0 {
		t.Errorf("空统计期望 0，实际 %v", got)
	}

	// (3*0.5 + 4*0.25) / 0.75，C 权重为 0 不参与
	ws := WeightedScore(stats, map[string]float64{"A": 0.5, "B": 0.25, "C": 0})
	if ws == nil || !almostEqual(*ws, 2.5/0.75) {
		t.Errorf("加权得分不符: %v", ws)
	}
	if ws := WeightedScore(stats, map[string]float64{}); ws != nil {
		t.Errorf("无正权重时期望 nil，实际 %v", *ws)
	}
}

func TestRankCriteria(t *testing.T) {
	stats := model.StatsMap{
		"A": {Mean: 4},
		"B": {Mean: 2},
		"C": {Mean: 4},
		"D": {Mean: 1},
		"E": {Mean: 3},
	}
	strengths, weaknesses := RankCriteria(stats)

	// 均值相同按编码升序
	if want := []string{"A", "C", "E"}; !reflect.DeepEqual(strengths, want) {
		t.Errorf("优势期望 %v，实际 %v", want, strengths)
	}
	if want := []string{"D", "B", "E"}; !reflect.DeepEqual(weaknesses, want) {
		t.Errorf("薄弱期望 %v，实际 %v", want, weaknesses)
	}

	s, w := RankCriteria(model.StatsMap{"X": {Mean: 3}})
	if len(s) != 1 || len(w) != 1 {
		t.Errorf("不足 3 项时全部返回，实际 %v %v", s, w)
	}
}

func TestBuildSummaryText(t *testing.T) {
	text := BuildSummaryText([]string{"CONT-2"}, []string{"CONT-1"}, 3.5, map[string]string{"CONT-2": "内容覆盖度"})
	want := "综合平均分 3.50（满分 5）。优势指标：内容覆盖度（CONT-2）。薄弱指标：CONT-1。"
	if text != want {
		t.Errorf("期望 %q，实际 %q", want, text)
	}
	if got := BuildSummaryText(nil, nil, 0, nil); got != "综合平均分 0.00（满分 5）。优势指标：无。薄弱指标：无。" {
		t.Errorf("空列表摘要不符: %q", got)
	}
}
