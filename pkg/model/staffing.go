// Package model 定义轮班求解引擎的核心数据模型
package model

// WeekStaffing 某一周的人力需求表
type WeekStaffing struct {
	Week int `json:"week"`
	// Required 按天、按班种记录槽位数（白/夜按对计，晚按人计）
	Required map[int]map[Shift]int `json:"required"`
	// TotalPersonDays 当周可用人日（各人每周工作天数之和减轮休损耗）
	TotalPersonDays int `json:"total_person_days"`
	// RequiredPersonDays 需求人日（对×2 + 单人）
	RequiredPersonDays int `json:"required_person_days"`
	// Understaffed 需求人日超出可用人日时为真；仅作诊断，不中止求解
	Understaffed bool `json:"understaffed"`
}

// SlotCount 返回某天某班种的槽位数
func (w *WeekStaffing) SlotCount(day int, s Shift) int {
	if w.Required[day] == nil {
		return 0
	}
	return w.Required[day][s]
}

// HeadCount 返回某天某班种所需人数
func (w *WeekStaffing) HeadCount(day int, s Shift) int {
	n := w.SlotCount(day, s)
	if s.IsPair() {
		return n * 2
	}
	return n
}
