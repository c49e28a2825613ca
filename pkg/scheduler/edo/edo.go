// Package edo 负责轮休（EDO）计划的分配
//
// 符合条件的人员按每周工作天数分组，组内按姓名字典序排序后
// 对半切分：奇数周前半组轮休，偶数周后半组轮休。
// 每个符合条件的人恰好在一半的周数获得轮休，切分稳定可复现。
package edo

import (
	"sort"

	"github.com/lunban/lunban/pkg/logger"
	"github.com/lunban/lunban/pkg/model"
)

// Allocate 计算整个周期的轮休计划
func Allocate(people []model.Person, weeks int) *model.EDOPlan {
	plan := model.NewEDOPlan()

	// 按每周工作天数分组
	cohorts := make(map[int][]string)
	for _, p := range people {
		if !p.EDOEligible {
			continue
		}
		cohorts[p.WorkdaysPerWeek] = append(cohorts[p.WorkdaysPerWeek], p.Name)
		if p.HasFixedEDO() {
			plan.Fixed[p.Name] = p.EDOFixedDay
		}
	}

	keys := make([]int, 0, len(cohorts))
	for k := range cohorts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	granted := 0
	for _, k := range keys {
		names := cohorts[k]
		sort.Strings(names)

		// 前半组向上取整
		half := (len(names) + 1) / 2
		first, second := names[:half], names[half:]

		for w := 0; w < weeks; w++ {
			// 周号从 1 起算：奇数周前半组，偶数周后半组
			var batch []string
			if (w+1)%2 == 1 {
				batch = first
			} else {
				batch = second
			}
			for _, name := range batch {
				plan.Grant(w, name)
				granted++
			}
		}
	}

	logger.Info().
		Int("weeks", weeks).
		Int("cohorts", len(cohorts)).
		Int("grants", granted).
		Msg("轮休计划分配完成")

	return plan
}
