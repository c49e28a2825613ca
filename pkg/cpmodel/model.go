// Package cpmodel 提供约束模型的声明接口与时间受限的求解引擎
//
// 模型只暴露一个小的能力面：声明布尔变量、发布线性约束、
// 登记带权软目标项、在截止时间内求解、读取变量取值。
// 覆盖约束的整数亏缺变量由引擎隐式维护（亏缺 = 需求 − 实际），
// 调用方通过 Solution.Deficit 读取。
package cpmodel

import "fmt"

// BoolVar 布尔决策变量句柄
type BoolVar int

// Term 线性项：系数 × 变量
type Term struct {
	Var  BoolVar
	Coef int
}

// Sum 构造系数全为 1 的线性项列表
func Sum(vars ...BoolVar) []Term {
	terms := make([]Term, len(vars))
	for i, v := range vars {
		terms[i] = Term{Var: v, Coef: 1}
	}
	return terms
}

// linearCon 线性约束 lb ≤ Σ coef·x ≤ ub
type linearCon struct {
	name  string
	terms []Term
	lb    int
	ub    int
}

// coverage 覆盖约束：Σ x ≤ required，亏缺 = required − Σ x
type coverage struct {
	name     string
	vars     []BoolVar
	required int
	conIdx   int
}

type objKind int

const (
	objLinear objKind = iota
	objAbsDev
	objShortfall
	objSpread
	objBothPositive
	objPositive
)

// objTerm 软目标项，引擎直接求值
type objTerm struct {
	kind    objKind
	weight  int64
	terms   []Term
	b       []Term  // bothPositive 的第二侧
	target  int     // absDev / shortfall 的目标值
	members [][]Term // spread 的各成员和
	offsets []int    // spread 各成员的常量偏移
}

// Model 约束模型，构建阶段独占使用，Solve 期间不得并发修改
type Model struct {
	nvars         int
	names         []string
	cons          []linearCon
	covers        []coverage
	deficitWeight int64
	terms         []objTerm
}

// New 创建空模型
func New() *Model {
	return &Model{}
}

// NewBool 声明布尔变量
func (m *Model) NewBool(name string) BoolVar {
	v := BoolVar(m.nvars)
	m.nvars++
	m.names = append(m.names, name)
	return v
}

// NumVars 返回变量数
func (m *Model) NumVars() int {
	return m.nvars
}

// NumConstraints 返回线性约束数
func (m *Model) NumConstraints() int {
	return len(m.cons)
}

// AddLinear 发布线性约束 lb ≤ Σ coef·x ≤ ub
func (m *Model) AddLinear(name string, terms []Term, lb, ub int) {
	m.cons = append(m.cons, linearCon{name: name, terms: terms, lb: lb, ub: ub})
}

// AddLinearLE 发布上界约束 Σ ≤ ub
func (m *Model) AddLinearLE(name string, terms []Term, ub int) {
	m.AddLinear(name, terms, minInt, ub)
}

// AddAtMostOne 同组变量至多一个为真
func (m *Model) AddAtMostOne(name string, vars ...BoolVar) {
	m.AddLinearLE(name, Sum(vars...), 1)
}

// AddImplicationOff a 为真时 b 必为假
func (m *Model) AddImplicationOff(name string, a, b BoolVar) {
	m.AddAtMostOne(name, a, b)
}

// AddForbid 强制变量为假
func (m *Model) AddForbid(name string, v BoolVar) {
	m.AddLinear(name, Sum(v), 0, 0)
}

// AddCoverage 发布覆盖约束并返回覆盖句柄
// 实际指派数不超过需求，缺口由隐式亏缺变量吸收，永不导致硬性无解
func (m *Model) AddCoverage(name string, vars []BoolVar, required int) int {
	m.AddLinearLE(name, Sum(vars...), required)
	m.covers = append(m.covers, coverage{
		name:     name,
		vars:     vars,
		required: required,
		conIdx:   len(m.cons) - 1,
	})
	return len(m.covers) - 1
}

// SetDeficitWeight 设定每个未满足槽位的目标权重
func (m *Model) SetDeficitWeight(w int64) {
	m.deficitWeight = w
}

// AddObjLinear 登记线性目标项 weight × Σ coef·x
func (m *Model) AddObjLinear(weight int64, terms []Term) {
	if weight == 0 {
		return
	}
	m.terms = append(m.terms, objTerm{kind: objLinear, weight: weight, terms: terms})
}

// AddObjAbsDeviation 登记绝对偏差项 weight × |Σ − target|
func (m *Model) AddObjAbsDeviation(weight int64, terms []Term, target int) {
	if weight == 0 {
		return
	}
	m.terms = append(m.terms, objTerm{kind: objAbsDev, weight: weight, terms: terms, target: target})
}

// AddObjShortfall 登记欠额项 weight × max(0, target − Σ)
func (m *Model) AddObjShortfall(weight int64, terms []Term, target int) {
	if weight == 0 {
		return
	}
	m.terms = append(m.terms, objTerm{kind: objShortfall, weight: weight, terms: terms, target: target})
}

// AddObjSpread 登记极差项 weight × (max − min)，成员和可带常量偏移
func (m *Model) AddObjSpread(weight int64, members [][]Term, offsets []int) {
	if weight == 0 || len(members) < 2 {
		return
	}
	if offsets == nil {
		offsets = make([]int, len(members))
	}
	m.terms = append(m.terms, objTerm{kind: objSpread, weight: weight, members: members, offsets: offsets})
}

// AddObjBothPositive 登记共现罚项：两侧和都大于零时计 weight
func (m *Model) AddObjBothPositive(weight int64, a, b []Term) {
	if weight == 0 {
		return
	}
	m.terms = append(m.terms, objTerm{kind: objBothPositive, weight: weight, terms: a, b: b})
}

// AddObjPositive 登记出现罚项：和大于零时计 weight
func (m *Model) AddObjPositive(weight int64, terms []Term) {
	if weight == 0 {
		return
	}
	m.terms = append(m.terms, objTerm{kind: objPositive, weight: weight, terms: terms})
}

// VarName 返回变量名，调试用
func (m *Model) VarName(v BoolVar) string {
	if int(v) < len(m.names) {
		return m.names[v]
	}
	return fmt.Sprintf("x%d", v)
}

const minInt = -1 << 40
