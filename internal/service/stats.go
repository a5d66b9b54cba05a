package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Akash00404/Ayush-Textbook-Assesment/internal/model"
)

// ── 评审统计 ──────────────────────────────────────────────
//
//   - 方差为总体方差（除以 N）
//   - 中位数取排序后下标 floor(N/2) 的元素，N 为偶数时即上中位数
//   - 综合均分为各指标均值的算术平均，不使用权重
//   - 加权得分单独计算：Σ(mean·w)/Σw，只统计 w>0 的指标
// ─────────────────────────────────────────────────────────────

// 汇总摘要中优势/薄弱指标的数量
const rankSize = 3

// ComputeCriterionStats 计算一组评分的统计量，values 为空时返回零值
func ComputeCriterionStats(values []float64) model.CriterionStats {
	n := len(values)
	if n == 0 {
		return model.CriterionStats{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(n)

	var sq float64
	for _, v := range sorted {
		d := v - mean
		sq += d * d
	}

	return model.CriterionStats{
		Mean:     mean,
		Median:   sorted[n/2],
		Variance: sq / float64(n),
		Min:      sorted[0],
		Max:      sorted[n-1],
		Count:    n,
	}
}

// AggregateScores 对出现在任一评审中的指标编码逐一统计
func AggregateScores(reviews []model.Review) model.StatsMap {
	values := make(map[string][]float64)
	for i := range reviews {
		for code, score := range reviews[i].ScoreData() {
			values[code] = append(values[code], score)
		}
	}

	stats := make(model.StatsMap, len(values))
	for code, vs := range values {
		stats[code] = ComputeCriterionStats(vs)
	}
	return stats
}

// OverallMean 各指标均值的算术平均
func OverallMean(stats model.StatsMap) float64 {
	if len(stats) == 0 {
		return 0
	}
	var sum float64
	for _, code := range sortedKeys(stats) {
		sum += stats[code].Mean
	}
	return sum / float64(len(stats))
}

// WeightedScore 按指标权重加权的得分；没有正权重指标时返回 nil
func WeightedScore(stats model.StatsMap, weights map[string]float64) *float64 {
	var num, den float64
	for _, code := range sortedKeys(stats) {
		w := weights[code]
		if w <= 0 {
			continue
		}
		num += stats[code].Mean * w
		den += w
	}
	if den == 0 {
		return nil
	}
	score := num / den
	return &score
}

// RankCriteria 优势为均值最高的前 3 项（降序），薄弱为最低的 3 项（升序）
// 均值相同时按编码升序
func RankCriteria(stats model.StatsMap) (strengths, weaknesses []string) {
	codes := sortedKeys(stats)

	desc := make([]string, len(codes))
	copy(desc, codes)
	sort.SliceStable(desc, func(i, j int) bool {
		return stats[desc[i]].Mean > stats[desc[j]].Mean
	})

	asc := make([]string, len(codes))
	copy(asc, codes)
	sort.SliceStable(asc, func(i, j int) bool {
		return stats[asc[i]].Mean < stats[asc[j]].Mean
	})

	return head(desc, rankSize), head(asc, rankSize)
}

// BuildSummaryText 生成模板化的汇总摘要
func BuildSummaryText(strengths, weaknesses []string, overall float64, labels map[string]string) string {
	return fmt.Sprintf("综合平均分 %.2f（满分 %d）。优势指标：%s。薄弱指标：%s。",
		overall, MaxScore, joinLabels(strengths, labels), joinLabels(weaknesses, labels))
}

func joinLabels(codes []string, labels map[string]string) string {
	if len(codes) == 0 {
		return "无"
	}
	parts := make([]string, 0, len(codes))
	for _, code := range codes {
		if l := labels[code]; l != "" {
			parts = append(parts, fmt.Sprintf("%s（%s）", l, code))
		} else {
			parts = append(parts, code)
		}
	}
	return strings.Join(parts, "、")
}

func head(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
