// Package stats 提供排班结果的统计分析
package stats

import (
	"github.com/lunban/lunban/pkg/model"
)

// FairnessCalculator 公平性计算器
// 按配置的分组模式统计各组夜班与晚班数量的总体标准差
type FairnessCalculator struct {
	mode model.FairnessMode
}

// NewFairnessCalculator 创建公平性计算器
func NewFairnessCalculator(mode model.FairnessMode) *FairnessCalculator {
	return &FairnessCalculator{mode: mode}
}

// Calculate 计算公平性指标
//
// 每个分组各算一个标准差，单人分组恒为零。
// 晚班指标只统计可排晚班的人员，不排晚班者既不抬高也不拉低组内离散度。
func (f *FairnessCalculator) Calculate(people []model.Person, sched *model.Schedule) *model.FairnessMetrics {
	metrics := &model.FairnessMetrics{
		NightStdDev:   make(map[string]float64),
		EveningStdDev: make(map[string]float64),
	}
	if sched == nil {
		return metrics
	}

	cohorts := model.Cohorts(people, f.mode)
	for _, key := range model.CohortKeys(cohorts) {
		members := cohorts[key]

		var nights []float64
		var evenings []float64
		for _, p := range members {
			counts := sched.ShiftCounts(p.Name)
			nights = append(nights, float64(counts[model.ShiftNight]))
			if !p.NoEvening {
				evenings = append(evenings, float64(counts[model.ShiftEvening]))
			}
		}

		metrics.NightStdDev[key] = model.PopulationStdDev(nights)
		metrics.EveningStdDev[key] = model.PopulationStdDev(evenings)
		metrics.NightStdSum += metrics.NightStdDev[key]
		metrics.EveningStdSum += metrics.EveningStdDev[key]
	}

	return metrics
}
