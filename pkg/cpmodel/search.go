// Package cpmodel 提供约束模型的声明接口与时间受限的求解引擎
package cpmodel

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Status 求解终态
type Status string

const (
	Optimal    Status = "optimal"
	Feasible   Status = "feasible"
	Infeasible Status = "infeasible"
	Unknown    Status = "unknown"
)

// Params 求解参数
type Params struct {
	Deadline time.Duration // 墙钟预算
	Workers  int           // 并行搜索线程数，各自独立随机种子
	Seed     int64
}

// Solution 求解结果，创建后只读
type Solution struct {
	Status    Status
	Objective int64
	WallTime  time.Duration
	values    []bool
	deficits  []int
}

// Value 读取布尔变量取值
func (s *Solution) Value(v BoolVar) bool {
	if s.values == nil || int(v) >= len(s.values) {
		return false
	}
	return s.values[v]
}

// Deficit 读取覆盖约束的亏缺（需求 − 实际指派）
func (s *Solution) Deficit(cover int) int {
	if s.deficits == nil || cover >= len(s.deficits) {
		return 0
	}
	return s.deficits[cover]
}

// conRef 变量到约束的反向引用
type conRef struct {
	idx  int
	coef int
}

// termRef 变量到目标项的反向引用
// side: 0 = 主侧, 1 = bothPositive 第二侧, 2 = spread 成员
type termRef struct {
	idx    int
	side   int
	member int
	coef   int
}

// adjacency 只读反向索引，所有工作线程共享
type adjacency struct {
	varCons  [][]conRef
	varTerms [][]termRef
	terms    []objTerm // 含亏缺项的有效目标项
}

// buildAdjacency 构建反向索引，覆盖亏缺作为欠额目标项物化
func buildAdjacency(m *Model) *adjacency {
	terms := make([]objTerm, len(m.terms))
	copy(terms, m.terms)
	if m.deficitWeight > 0 {
		for _, c := range m.covers {
			terms = append(terms, objTerm{
				kind:   objShortfall,
				weight: m.deficitWeight,
				terms:  Sum(c.vars...),
				target: c.required,
			})
		}
	}

	adj := &adjacency{
		varCons:  make([][]conRef, m.nvars),
		varTerms: make([][]termRef, m.nvars),
		terms:    terms,
	}
	for i, c := range m.cons {
		for _, t := range c.terms {
			adj.varCons[t.Var] = append(adj.varCons[t.Var], conRef{idx: i, coef: t.Coef})
		}
	}
	for i, t := range terms {
		for _, tm := range t.terms {
			adj.varTerms[tm.Var] = append(adj.varTerms[tm.Var], termRef{idx: i, side: 0, coef: tm.Coef})
		}
		for _, tm := range t.b {
			adj.varTerms[tm.Var] = append(adj.varTerms[tm.Var], termRef{idx: i, side: 1, coef: tm.Coef})
		}
		for mi, member := range t.members {
			for _, tm := range member {
				adj.varTerms[tm.Var] = append(adj.varTerms[tm.Var], termRef{idx: i, side: 2, member: mi, coef: tm.Coef})
			}
		}
	}
	return adj
}

// termState 目标项的增量求值状态
type termState struct {
	sum        int
	sumB       int
	memberSums []int
	cost       int64
}

// searchState 单个工作线程的搜索状态
type searchState struct {
	m      *Model
	adj    *adjacency
	x      []bool
	conSum []int
	ts     []termState
	total  int64
}

func newSearchState(m *Model, adj *adjacency) *searchState {
	s := &searchState{
		m:      m,
		adj:    adj,
		x:      make([]bool, m.nvars),
		conSum: make([]int, len(m.cons)),
		ts:     make([]termState, len(adj.terms)),
	}
	for i, t := range adj.terms {
		if t.kind == objSpread {
			s.ts[i].memberSums = make([]int, len(t.members))
		}
		s.ts[i].cost = s.evalTerm(i)
		s.total += s.ts[i].cost
	}
	return s
}

// evalTerm 根据缓存的和重算单个目标项的代价
func (s *searchState) evalTerm(i int) int64 {
	t := &s.adj.terms[i]
	st := &s.ts[i]
	switch t.kind {
	case objLinear:
		return t.weight * int64(st.sum)
	case objAbsDev:
		d := st.sum - t.target
		if d < 0 {
			d = -d
		}
		return t.weight * int64(d)
	case objShortfall:
		d := t.target - st.sum
		if d < 0 {
			d = 0
		}
		return t.weight * int64(d)
	case objSpread:
		lo, hi := 0, 0
		for mi, v := range st.memberSums {
			v += t.offsets[mi]
			if mi == 0 {
				lo, hi = v, v
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
		return t.weight * int64(hi-lo)
	case objBothPositive:
		if st.sum > 0 && st.sumB > 0 {
			return t.weight
		}
		return 0
	case objPositive:
		if st.sum > 0 {
			return t.weight
		}
		return 0
	}
	return 0
}

// flip 翻转变量并增量更新约束和与目标代价，无条件执行
func (s *searchState) flip(v BoolVar) {
	delta := 1
	if s.x[v] {
		delta = -1
	}
	s.x[v] = !s.x[v]
	for _, cr := range s.adj.varCons[v] {
		s.conSum[cr.idx] += delta * cr.coef
	}
	for _, tr := range s.adj.varTerms[v] {
		st := &s.ts[tr.idx]
		switch tr.side {
		case 0:
			st.sum += delta * tr.coef
		case 1:
			st.sumB += delta * tr.coef
		case 2:
			st.memberSums[tr.member] += delta * tr.coef
		}
		old := st.cost
		st.cost = s.evalTerm(tr.idx)
		s.total += st.cost - old
	}
}

// feasibleAround 检查与变量相邻的约束是否全部在界内
func (s *searchState) feasibleAround(v BoolVar) bool {
	for _, cr := range s.adj.varCons[v] {
		c := &s.m.cons[cr.idx]
		if s.conSum[cr.idx] < c.lb || s.conSum[cr.idx] > c.ub {
			return false
		}
	}
	return true
}

// tryFlip 尝试单变量翻转，仅在可行且严格降低代价时保留
func (s *searchState) tryFlip(v BoolVar) bool {
	before := s.total
	s.flip(v)
	if !s.feasibleAround(v) || s.total >= before {
		s.flip(v)
		return false
	}
	return true
}

// trySwap 尝试同覆盖组内的对换（一降一升），仅可行且改进时保留
func (s *searchState) trySwap(on, off BoolVar) bool {
	before := s.total
	s.flip(off)
	s.flip(on)
	if !s.feasibleAround(on) || !s.feasibleAround(off) || s.total >= before {
		s.flip(on)
		s.flip(off)
		return false
	}
	return true
}

// repairInit 从全假起点修复下界约束，失败视为无解
func (s *searchState) repairInit() bool {
	feasible := func() (int, bool) {
		for i, c := range s.m.cons {
			if s.conSum[i] < c.lb || s.conSum[i] > c.ub {
				return i, false
			}
		}
		return 0, true
	}
	limit := 4 * (s.m.nvars + 1)
	for attempt := 0; attempt < limit; attempt++ {
		idx, ok := feasible()
		if ok {
			return true
		}
		c := &s.m.cons[idx]
		progressed := false
		for _, t := range c.terms {
			need := 0
			if s.conSum[idx] < c.lb {
				need = 1
			} else {
				need = -1
			}
			// 翻转一个能把约束和推向界内的变量
			gain := t.Coef
			if s.x[t.Var] {
				gain = -t.Coef
			}
			if gain*need <= 0 {
				continue
			}
			s.flip(t.Var)
			if s.feasibleAround(t.Var) || s.conSum[idx] >= c.lb && s.conSum[idx] <= c.ub {
				progressed = true
				break
			}
			s.flip(t.Var)
		}
		if !progressed {
			return false
		}
	}
	_, ok := feasible()
	return ok
}

// snapshot 当前取值的副本
func (s *searchState) snapshot() ([]bool, int64) {
	values := make([]bool, len(s.x))
	copy(values, s.x)
	return values, s.total
}

// restore 恢复到给定取值
func (s *searchState) restore(values []bool) {
	for v := 0; v < len(s.x); v++ {
		if s.x[v] != values[v] {
			s.flip(BoolVar(v))
		}
	}
}

// workerResult 单个工作线程的最终产出
type workerResult struct {
	id         int
	found      bool
	infeasible bool
	cost       int64
	values     []bool
}

// runWorker 单线程搜索：贪心填充 + 严格下降翻转/对换 + 扰动重启
func runWorker(m *Model, adj *adjacency, id int, seed int64, deadline time.Time, ctx context.Context) workerResult {
	rng := rand.New(rand.NewSource(seed))
	s := newSearchState(m, adj)
	if !s.repairInit() {
		return workerResult{id: id, infeasible: true}
	}

	bestValues, bestCost := s.snapshot()
	expired := func() bool {
		select {
		case <-ctx.Done():
			return true
		default:
		}
		return !time.Now().Before(deadline)
	}

	for !expired() && bestCost > 0 {
		improved := false

		// 单变量下降遍历
		for i, v := range rng.Perm(m.nvars) {
			if i%128 == 0 && expired() {
				break
			}
			if s.tryFlip(BoolVar(v)) {
				improved = true
			}
		}

		// 覆盖组内对换，随机采样
		if !improved && len(m.covers) > 0 {
			samples := 4 * len(m.covers)
			for k := 0; k < samples && !expired(); k++ {
				c := &m.covers[rng.Intn(len(m.covers))]
				if len(c.vars) < 2 {
					continue
				}
				a := c.vars[rng.Intn(len(c.vars))]
				b := c.vars[rng.Intn(len(c.vars))]
				if a == b || s.x[a] == s.x[b] {
					continue
				}
				on, off := a, b
				if s.x[a] {
					on, off = b, a
				}
				if s.trySwap(on, off) {
					improved = true
				}
			}
		}

		if s.total < bestCost {
			bestValues, bestCost = s.snapshot()
		}

		if !improved {
			// 扰动：回到最优解并随机走几步可行翻转
			s.restore(bestValues)
			kicks := 1 + rng.Intn(3)
			for k := 0; k < kicks && m.nvars > 0; k++ {
				v := BoolVar(rng.Intn(m.nvars))
				s.flip(v)
				if !s.feasibleAround(v) {
					s.flip(v)
				}
			}
		}
	}

	if s.total < bestCost {
		bestValues, bestCost = s.snapshot()
	}
	return workerResult{id: id, found: true, cost: bestCost, values: bestValues}
}

// Solve 在截止时间内求解模型
// 每个工作线程使用独立种子运行同一搜索，最终取代价最低者；
// 平手时取线程号最小者，保证同种子结果可复现
func (m *Model) Solve(ctx context.Context, params Params) *Solution {
	start := time.Now()
	if params.Workers <= 0 {
		params.Workers = 1
	}
	if params.Deadline <= 0 {
		return &Solution{Status: Unknown, WallTime: time.Since(start)}
	}
	deadline := start.Add(params.Deadline)
	adj := buildAdjacency(m)

	results := make([]workerResult, params.Workers)
	var wg sync.WaitGroup
	for i := 0; i < params.Workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results[id] = runWorker(m, adj, id, params.Seed+int64(id), deadline, ctx)
		}(i)
	}
	wg.Wait()

	var best *workerResult
	infeasible := false
	for i := range results {
		r := &results[i]
		if r.infeasible {
			infeasible = true
			continue
		}
		if !r.found {
			continue
		}
		if best == nil || r.cost < best.cost || (r.cost == best.cost && r.id < best.id) {
			best = r
		}
	}

	sol := &Solution{WallTime: time.Since(start)}
	switch {
	case best != nil:
		sol.values = best.values
		sol.Objective = best.cost
		if best.cost == 0 {
			sol.Status = Optimal
		} else {
			sol.Status = Feasible
		}
		sol.deficits = make([]int, len(m.covers))
		for i, c := range m.covers {
			assigned := 0
			for _, v := range c.vars {
				if sol.values[v] {
					assigned++
				}
			}
			sol.deficits[i] = c.required - assigned
		}
	case infeasible:
		sol.Status = Infeasible
	default:
		sol.Status = Unknown
	}
	return sol
}
