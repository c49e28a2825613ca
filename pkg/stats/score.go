package stats

import (
	"github.com/lunban/lunban/pkg/model"
)

// Score 把校验结果与公平性指标折算成单一标量分
// 分数越低越好，零分表示完美方案。多种子寻优以此分数比较候选。
func Score(w model.ScoreWeights, validation *model.ValidationResult, fairness *model.FairnessMetrics) float64 {
	score := 0.0
	if validation != nil {
		score += w.Unfilled * float64(validation.UnfilledSlots)
		score += w.Duplicates * float64(validation.DuplicateSameDay)
		score += w.NightThenWork * float64(validation.NightFollowedByWork)
		score += w.Clopening * float64(validation.EveningThenDay)
		score += w.WeeklyDeviation * float64(validation.WeeklyDeviation)
		score += w.HorizonDeviation * float64(validation.HorizonDeviation)
		score += w.Rolling48h * float64(validation.Rolling48hCount)
	}
	if fairness != nil {
		score += w.NightStdDev * fairness.NightStdSum
		score += w.EveningStdDev * fairness.EveningStdSum
	}
	return score
}
