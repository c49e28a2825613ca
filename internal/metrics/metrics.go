// Package metrics 提供Prometheus文本格式的监控指标
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry 指标注册表
type Registry struct {
	counters   map[string]*Counter
	gauges     map[string]*Gauge
	histograms map[string]*Histogram
	mu         sync.RWMutex
}

// Counter 计数器
type Counter struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Gauge 仪表盘
type Gauge struct {
	Name   string
	Help   string
	Labels []string
	values map[string]float64
	mu     sync.RWMutex
}

// Histogram 直方图
type Histogram struct {
	Name    string
	Help    string
	Labels  []string
	Buckets []float64
	counts  map[string][]int
	sums    map[string]float64
	mu      sync.RWMutex
}

var (
	registry *Registry
	once     sync.Once
)

// GetRegistry 获取全局注册表
func GetRegistry() *Registry {
	once.Do(func() {
		registry = &Registry{
			counters:   make(map[string]*Counter),
			gauges:     make(map[string]*Gauge),
			histograms: make(map[string]*Histogram),
		}
		initDefaultMetrics()
	})
	return registry
}

// initDefaultMetrics 初始化默认指标
func initDefaultMetrics() {
	// HTTP层
	registry.NewCounter("lunban_http_requests_total", "HTTP请求总数", []string{"method", "path", "status"})
	registry.NewHistogram("lunban_http_request_duration_seconds", "HTTP请求延迟",
		[]string{"method", "path"},
		[]float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0, 30.0})

	// 求解层
	registry.NewCounter("lunban_solve_attempts_total", "求解尝试次数", []string{"status"})
	registry.NewHistogram("lunban_solve_duration_seconds", "单种子求解耗时",
		[]string{},
		[]float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0})
	registry.NewGauge("lunban_best_score", "最近一次寻优的最优分数", []string{})
	registry.NewGauge("lunban_unfilled_slots", "最近一次寻优的缺口槽位数", []string{})
	registry.NewGauge("lunban_active_solves", "进行中的求解数", []string{})

	// 数据库
	registry.NewGauge("lunban_db_connections", "数据库连接数", []string{"state"})
}

// NewCounter 创建计数器
func (r *Registry) NewCounter(name, help string, labels []string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := &Counter{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.counters[name] = c
	return c
}

// NewGauge 创建仪表盘
func (r *Registry) NewGauge(name, help string, labels []string) *Gauge {
	r.mu.Lock()
	defer r.mu.Unlock()

	g := &Gauge{
		Name:   name,
		Help:   help,
		Labels: labels,
		values: make(map[string]float64),
	}
	r.gauges[name] = g
	return g
}

// NewHistogram 创建直方图
func (r *Registry) NewHistogram(name, help string, labels []string, buckets []float64) *Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := &Histogram{
		Name:    name,
		Help:    help,
		Labels:  labels,
		Buckets: buckets,
		counts:  make(map[string][]int),
		sums:    make(map[string]float64),
	}
	r.histograms[name] = h
	return h
}

// GetCounter 获取计数器
func (r *Registry) GetCounter(name string) *Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.counters[name]
}

// GetGauge 获取仪表盘
func (r *Registry) GetGauge(name string) *Gauge {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gauges[name]
}

// GetHistogram 获取直方图
func (r *Registry) GetHistogram(name string) *Histogram {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.histograms[name]
}

// Inc 增加计数
func (c *Counter) Inc(labelValues ...string) {
	c.Add(1, labelValues...)
}

// Add 增加指定值
func (c *Counter) Add(value float64, labelValues ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[labelKey(labelValues)] += value
}

// Set 设置值
func (g *Gauge) Set(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] = value
}

// Inc 增加
func (g *Gauge) Inc(labelValues ...string) {
	g.Add(1, labelValues...)
}

// Dec 减少
func (g *Gauge) Dec(labelValues ...string) {
	g.Add(-1, labelValues...)
}

// Add 增加指定值
func (g *Gauge) Add(value float64, labelValues ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.values[labelKey(labelValues)] += value
}

// Observe 记录观测值
func (h *Histogram) Observe(value float64, labelValues ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := labelKey(labelValues)
	if _, exists := h.counts[key]; !exists {
		h.counts[key] = make([]int, len(h.Buckets)+1)
	}

	for i, bucket := range h.Buckets {
		if value <= bucket {
			h.counts[key][i]++
		}
	}
	h.counts[key][len(h.Buckets)]++ // +Inf桶

	h.sums[key] += value
}

// labelKey 生成标签键
func labelKey(labels []string) string {
	return strings.Join(labels, ",")
}

// Handler 返回Prometheus文本格式的指标HTTP处理器
func Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		reg := GetRegistry()
		reg.mu.RLock()
		defer reg.mu.RUnlock()

		for _, name := range sortedKeys(reg.counters) {
			c := reg.counters[name]
			fmt.Fprintf(w, "# HELP %s %s\n", c.Name, c.Help)
			fmt.Fprintf(w, "# TYPE %s counter\n", c.Name)
			c.mu.RLock()
			for key, value := range c.values {
				if key == "" {
					fmt.Fprintf(w, "%s %f\n", c.Name, value)
				} else {
					fmt.Fprintf(w, "%s{%s} %f\n", c.Name, formatLabels(c.Labels, key), value)
				}
			}
			c.mu.RUnlock()
		}

		for _, name := range sortedKeys(reg.gauges) {
			g := reg.gauges[name]
			fmt.Fprintf(w, "# HELP %s %s\n", g.Name, g.Help)
			fmt.Fprintf(w, "# TYPE %s gauge\n", g.Name)
			g.mu.RLock()
			for key, value := range g.values {
				if key == "" {
					fmt.Fprintf(w, "%s %f\n", g.Name, value)
				} else {
					fmt.Fprintf(w, "%s{%s} %f\n", g.Name, formatLabels(g.Labels, key), value)
				}
			}
			g.mu.RUnlock()
		}

		for _, name := range sortedKeys(reg.histograms) {
			h := reg.histograms[name]
			fmt.Fprintf(w, "# HELP %s %s\n", h.Name, h.Help)
			fmt.Fprintf(w, "# TYPE %s histogram\n", h.Name)
			h.mu.RLock()
			for key, counts := range h.counts {
				cumulative := 0
				for i, bucket := range h.Buckets {
					cumulative += counts[i]
					if key == "" {
						fmt.Fprintf(w, "%s_bucket{le=\"%f\"} %d\n", h.Name, bucket, cumulative)
					} else {
						fmt.Fprintf(w, "%s_bucket{%s,le=\"%f\"} %d\n", h.Name, formatLabels(h.Labels, key), bucket, cumulative)
					}
				}
				cumulative += counts[len(h.Buckets)]
				if key == "" {
					fmt.Fprintf(w, "%s_bucket{le=\"+Inf\"} %d\n", h.Name, cumulative)
					fmt.Fprintf(w, "%s_sum %f\n", h.Name, h.sums[key])
					fmt.Fprintf(w, "%s_count %d\n", h.Name, cumulative)
				} else {
					fmt.Fprintf(w, "%s_bucket{%s,le=\"+Inf\"} %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
					fmt.Fprintf(w, "%s_sum{%s} %f\n", h.Name, formatLabels(h.Labels, key), h.sums[key])
					fmt.Fprintf(w, "%s_count{%s} %d\n", h.Name, formatLabels(h.Labels, key), cumulative)
				}
			}
			h.mu.RUnlock()
		}
	})
}

// sortedKeys 按名称排序，保证输出稳定
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatLabels 格式化标签
func formatLabels(names []string, values string) string {
	vals := strings.Split(values, ",")
	parts := make([]string, 0, len(names))
	for i, name := range names {
		val := ""
		if i < len(vals) {
			val = vals[i]
		}
		parts = append(parts, fmt.Sprintf("%s=%q", name, val))
	}
	return strings.Join(parts, ",")
}

// RecordRequest 记录HTTP请求指标
func RecordRequest(method, path string, status int, duration time.Duration) {
	reg := GetRegistry()

	if c := reg.GetCounter("lunban_http_requests_total"); c != nil {
		c.Inc(method, path, fmt.Sprintf("%d", status))
	}
	if h := reg.GetHistogram("lunban_http_request_duration_seconds"); h != nil {
		h.Observe(duration.Seconds(), method, path)
	}
}

// RecordSolveAttempt 记录一次种子求解
func RecordSolveAttempt(status string, duration time.Duration) {
	reg := GetRegistry()

	if c := reg.GetCounter("lunban_solve_attempts_total"); c != nil {
		c.Inc(status)
	}
	if h := reg.GetHistogram("lunban_solve_duration_seconds"); h != nil {
		h.Observe(duration.Seconds())
	}
}

// SetBestScore 记录最近一次寻优的最优分数
func SetBestScore(score float64) {
	if g := GetRegistry().GetGauge("lunban_best_score"); g != nil {
		g.Set(score)
	}
}

// SetUnfilledSlots 记录最近一次寻优的缺口槽位数
func SetUnfilledSlots(count int) {
	if g := GetRegistry().GetGauge("lunban_unfilled_slots"); g != nil {
		g.Set(float64(count))
	}
}

// SolveStarted 标记求解开始
func SolveStarted() {
	if g := GetRegistry().GetGauge("lunban_active_solves"); g != nil {
		g.Inc()
	}
}

// SolveFinished 标记求解结束
func SolveFinished() {
	if g := GetRegistry().GetGauge("lunban_active_solves"); g != nil {
		g.Dec()
	}
}

// SetDBConnections 记录数据库连接池状态
func SetDBConnections(open, inUse, idle int) {
	g := GetRegistry().GetGauge("lunban_db_connections")
	if g == nil {
		return
	}
	g.Set(float64(open), "open")
	g.Set(float64(inUse), "in_use")
	g.Set(float64(idle), "idle")
}
