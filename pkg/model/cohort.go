// Package model 定义轮班求解引擎的核心数据模型
package model

import (
	"fmt"
	"sort"
)

// Cohorts 按公平性模式划分分组
// 返回 分组名 → 组内人员（姓名字典序），分组名有序可复现。
// 模式为 none 时返回空表，公平性目标整体关闭。
func Cohorts(people []Person, mode FairnessMode) map[string][]Person {
	out := make(map[string][]Person)
	switch mode {
	case FairnessNone:
		return out
	case FairnessTeam:
		for _, p := range people {
			key := p.Team
			if key == "" {
				key = "default"
			}
			out[key] = append(out[key], p)
		}
	case FairnessGlobal:
		for _, p := range people {
			out["global"] = append(out["global"], p)
		}
	default: // FairnessWorkdays
		for _, p := range people {
			key := fmt.Sprintf("wd%d", p.WorkdaysPerWeek)
			out[key] = append(out[key], p)
		}
	}
	for key := range out {
		sort.Slice(out[key], func(i, j int) bool {
			return out[key][i].Name < out[key][j].Name
		})
	}
	return out
}

// CohortKeys 返回有序的分组名列表
func CohortKeys(cohorts map[string][]Person) []string {
	keys := make([]string, 0, len(cohorts))
	for k := range cohorts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
