package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// DefaultPercentiles 為報告預設輸出的分位數。
var DefaultPercentiles = []float64{0.25, 0.5, 0.75, 0.9, 0.99}

// DefaultConfidence 為報告信賴區間的信心水準。
const DefaultConfidence = 0.95

// 信賴區間
type CI struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Report 模擬統計報告
type Report struct {
	Summary     *SummaryReport   `json:"Summary" yaml:"summary"`
	Percentiles []PercentileStat `json:"Percentiles" yaml:"percentiles"`
	Budgets     []BudgetStat     `json:"Budgets,omitempty" yaml:"budgets,omitempty"`
	Dist        *DistReport      `json:"Dist" yaml:"dist"`

	hist   *Histogram
	opt    ReportOptions
	isDone bool
}

type SummaryReport struct {
	Name    string  `json:"Name" yaml:"name"`
	Banner  string  `json:"Banner" yaml:"banner"`
	Goal    string  `json:"Goal" yaml:"goal"`
	Trials  uint64  `json:"Trials" yaml:"trials"`
	Mean    float64 `json:"Mean" yaml:"mean"`
	MeanCI  CI      `json:"MeanCI" yaml:"mean_ci"`
	Std     float64 `json:"Std" yaml:"std"`
	Min     int     `json:"Min" yaml:"min"`
	Max     int     `json:"Max" yaml:"max"`
	Elapsed string  `json:"Elapsed,omitempty" yaml:"elapsed,omitempty"`
}

// PercentileStat 為分位數點估計（orbs）與順序統計量信賴區間。
type PercentileStat struct {
	Pct  float64 `json:"Pct" yaml:"pct"`
	Orbs int     `json:"Orbs" yaml:"orbs"`
	CI   CI      `json:"CI" yaml:"ci"`
}

// BudgetStat 為「預算 Orbs 內達成目標」的機率與 Clopper-Pearson 信賴區間。
type BudgetStat struct {
	Orbs   int     `json:"Orbs" yaml:"orbs"`
	Chance float64 `json:"Chance" yaml:"chance"`
	CI     CI      `json:"CI" yaml:"ci"`
}

// ReportOptions 描述報告的標籤與要估計的量。
type ReportOptions struct {
	Name        string
	Banner      string
	Goal        string
	Percentiles []float64
	Budgets     []int
	Confidence  float64
	Elapsed     time.Duration
}

// NewReport 以 histogram 的快照建立報告；之後對 h 的修改不影響報告。
func NewReport(h *Histogram, opt ReportOptions) *Report {
	if len(opt.Percentiles) == 0 {
		opt.Percentiles = DefaultPercentiles
	}
	if opt.Confidence <= 0 || opt.Confidence >= 1 {
		opt.Confidence = DefaultConfidence
	}
	return &Report{
		Summary: &SummaryReport{Name: opt.Name, Banner: opt.Banner, Goal: opt.Goal},
		Dist:    &DistReport{},
		hist:    h.Clone(),
		opt:     opt,
	}
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 一次性計算所有統計值；重複呼叫無作用。
func (r *Report) Done() *Report {
	if r.isDone {
		return r
	}
	h := r.hist
	s := r.Summary
	s.Trials = h.Total()
	s.Min = h.Min()
	s.Max = h.Max()
	s.Mean, s.Std = meanStd(h)
	s.MeanCI = meanCI(s.Mean, s.Std, s.Trials, r.opt.Confidence)
	if r.opt.Elapsed > 0 {
		s.Elapsed = r.opt.Elapsed.Round(time.Millisecond).String()
	}

	vals := h.Percentiles(r.opt.Percentiles)
	r.Percentiles = make([]PercentileStat, len(vals))
	for i, v := range vals {
		lo, hi := quantileCI(h, r.opt.Percentiles[i], r.opt.Confidence)
		r.Percentiles[i] = PercentileStat{Pct: r.opt.Percentiles[i], Orbs: v, CI: CI{Lo: float64(lo), Hi: float64(hi)}}
	}

	r.Budgets = r.Budgets[:0]
	for _, b := range r.opt.Budgets {
		chance, ci := proportionCICP(h.CountAtMost(b), h.Total(), r.opt.Confidence)
		r.Budgets = append(r.Budgets, BudgetStat{Orbs: b, Chance: chance, CI: ci})
	}

	*r.Dist = costDist(h)
	r.isDone = true
	return r
}

// Histogram 回傳報告使用的 histogram 快照。
func (r *Report) Histogram() *Histogram { return r.hist }

// Percentile 回傳指定分位數的點估計。
func (r *Report) Percentile(pct float64) int { return r.hist.Percentile(pct) }

func (r *Report) WriteWith(w io.Writer, rep ReportRender) error {
	r.Done()
	return rep.Write(w, r)
}

// StdOut 以表格印出報告。
func (r *Report) StdOut() {
	_ = r.WriteWith(os.Stdout, &TableReportRender{})
}

// ============================================================
// ** 內部方法 **
// ============================================================

func (r *Report) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	s := r.Summary
	basic := map[string]string{
		"Banner":       s.Banner,
		"Goal":         s.Goal,
		"Trials":       p.Sprintf("%d", s.Trials),
		"Mean Orbs":    p.Sprintf("%.2f", s.Mean),
		"Mean CI":      p.Sprintf("[%.2f, %.2f] @%.0f%%", s.MeanCI.Lo, s.MeanCI.Hi, 100*r.opt.Confidence),
		"STD":          p.Sprintf("%.2f", s.Std),
		"Min / Max":    p.Sprintf("%d / %d", s.Min, s.Max),
		"Elapsed Time": s.Elapsed,
	}
	keys := []string{"Banner", "Goal", "Trials", "Mean Orbs", "Mean CI", "STD", "Min / Max"}
	if s.Elapsed != "" {
		keys = append(keys, "Elapsed Time")
	}
	for _, ps := range r.Percentiles {
		k := fmt.Sprintf("P%g", math.Round(1000*ps.Pct)/10)
		basic[k] = p.Sprintf("%d  [%.0f, %.0f]", ps.Orbs, ps.CI.Lo, ps.CI.Hi)
		keys = append(keys, k)
	}
	for _, b := range r.Budgets {
		k := p.Sprintf("<= %d orbs", b.Orbs)
		basic[k] = p.Sprintf("%.2f%%  [%.2f%%, %.2f%%]", 100*b.Chance, 100*b.CI.Lo, 100*b.CI.Hi)
		keys = append(keys, k)
	}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for _, k := range keys {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(msg[k]); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2
	titleW := runewidth.StringWidth(title)
	if d := titleW + 2 - (maxKeyLen + maxValLen + 1); d > 0 {
		maxValLen += d
	}

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		v := msg[k]
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), v, blank(maxValLen-2-runewidth.StringWidth(v))))
	}
	sb.WriteString(divider)
	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
