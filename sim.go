// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package orblab

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/goal"
	"github.com/zintix-labs/orblab/sdk/core"
	"github.com/zintix-labs/orblab/spec"
	"github.com/zintix-labs/orblab/stats"
)

// pbChunk 每跑這麼多次試驗才更新一次進度條。
const pbChunk = 1000

// Simulator 為 CLI / HTTP 使用的模擬入口：持有設定、共享的 Model 與累積結果。
//
// 同一個 Simulator 不可被多個 goroutine 同時呼叫；RunMP 內部自行管理平行的 Driver。
type Simulator struct {
	setting   *spec.SimSetting
	model     *banner.Model
	mBuf      []*Driver // mBuf[0] 為主 driver，其餘給 RunMP 使用
	hist      *stats.Histogram
	initSeed  int64
	seedmaker *seedMaker
	cf        core.PRNGFactory
	clock     Clock
	log       *slog.Logger
}

// SimOption 設定 Simulator。
type SimOption func(*Simulator)

// WithSeed 指定初始 seed；優先於設定檔內的 seed。
func WithSeed(seed int64) SimOption {
	return func(s *Simulator) { s.initSeed = seed }
}

// WithPRNG 以自訂 PRNG 工廠建立 Core。
func WithPRNG(cf core.PRNGFactory) SimOption {
	return func(s *Simulator) {
		if cf != nil {
			s.cf = cf
		}
	}
}

// WithSimClock 設定 RunFor 使用的時鐘。
func WithSimClock(c Clock) SimOption {
	return func(s *Simulator) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger 設定結果摘要的 logger；預設不輸出。
func WithLogger(l *slog.Logger) SimOption {
	return func(s *Simulator) {
		if l != nil {
			s.log = l
		}
	}
}

// withHistogram 讓 Simulator 累積到呼叫端提供的 histogram（SimPool 重用緩衝用）。
func withHistogram(h *stats.Histogram) SimOption {
	return func(s *Simulator) {
		if h != nil {
			h.Reset()
			s.hist = h
		}
	}
}

// NewSimulator 依設定建立 Simulator。seed 來源依序為 WithSeed、設定檔 seed、加密隨機。
func NewSimulator(setting *spec.SimSetting, opts ...SimOption) (*Simulator, error) {
	if setting == nil {
		return nil, errs.NewFatal("orblab: nil sim setting")
	}
	setting = setting.Clone()
	if err := setting.Init(); err != nil {
		return nil, err
	}
	s := &Simulator{
		setting:  setting,
		hist:     stats.NewHistogram(),
		initSeed: -1,
		cf:       core.Default(),
		clock:    SystemClock{},
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.initSeed < 0 {
		if setting.Seed != nil {
			s.initSeed = *setting.Seed
		} else {
			s.initSeed = core.NewSeed()
		}
	}
	s.seedmaker = newSeedMaker(s.initSeed)
	if err := s.build(s.initSeed); err != nil {
		return nil, err
	}
	return s, nil
}

// Configure 換成新的卡池與目標：重建 Model 與 Driver，並清空累積結果。
func (s *Simulator) Configure(cfg banner.Config, g goal.Goal) error {
	next := s.setting.Clone()
	next.Banner = spec.BannerFromConfig(cfg)
	next.Goal = spec.GoalFromGoal(g)
	if err := next.Init(); err != nil {
		return err
	}
	prev := s.setting
	s.setting = next
	if err := s.build(s.seedmaker.next()); err != nil {
		s.setting = prev
		return err
	}
	s.hist.Reset()
	return nil
}

func (s *Simulator) build(seed int64) error {
	m, err := banner.NewModel(s.setting.BannerConfig())
	if err != nil {
		return errs.Wrap(err, "orblab: build banner model")
	}
	d, err := NewDriverWithModel(m, s.setting.TargetGoal(), core.New(s.cf.New(seed)))
	if err != nil {
		return err
	}
	s.model = m
	s.mBuf = []*Driver{d}
	return nil
}

// Setting 回傳目前使用的設定（副本）。
func (s *Simulator) Setting() *spec.SimSetting { return s.setting.Clone() }

// Seed 回傳初始 seed，用於重現。
func (s *Simulator) Seed() int64 { return s.initSeed }

// Histogram 回傳累積結果；呼叫端不應修改。
func (s *Simulator) Histogram() *stats.Histogram { return s.hist }

// Reset 清空累積結果，保留設定與亂數狀態。
func (s *Simulator) Reset() { s.hist.Reset() }

// Report 以目前累積的結果產生報告。
func (s *Simulator) Report(elapsed time.Duration) *stats.Report {
	return stats.NewReport(s.hist, stats.ReportOptions{
		Name:        s.setting.Name,
		Banner:      spec.FormatBanner(s.setting.BannerConfig()),
		Goal:        s.setting.TargetGoal().String(),
		Percentiles: s.setting.Percentiles,
		Budgets:     s.setting.Budgets,
		Elapsed:     elapsed,
	}).Done()
}

// Run 單線模擬器：以一個 Driver 連續跑 trials 次（0 表示用設定檔的 trials），回傳報告與用時。
func (s *Simulator) Run(trials int, showpb bool) (*stats.Report, time.Duration, error) {
	trials, err := s.trials(trials)
	if err != nil {
		return nil, 0, err
	}
	d := s.mBuf[0]
	bar := pb.StartNew(trials)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for done := 0; done < trials; done += pbChunk {
		n := min(pbChunk, trials-done)
		d.RunTrials(n, s.hist)
		bar.Add(n)
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	return s.finish(trials, used), used, nil
}

// RunMP 平行執行 mp 個 Driver（共享 Model、各自的 Core），總計 trials 次試驗，合併後回傳報告與用時。
func (s *Simulator) RunMP(trials int, mp int, showpb bool) (*stats.Report, time.Duration, error) {
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if mp == 1 {
		return s.Run(trials, showpb)
	}
	trials, err := s.trials(trials)
	if err != nil {
		return nil, 0, err
	}
	for len(s.mBuf) < mp {
		d, err := NewDriverWithModel(s.model, s.setting.TargetGoal(), core.New(s.cf.New(s.seedmaker.next())))
		if err != nil {
			return nil, 0, err
		}
		s.mBuf = append(s.mBuf, d)
	}

	hBuf := make([]*stats.Histogram, mp)
	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(trials)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		// 前 trials%mp 個 driver 多跑一次
		n := trials / mp
		if i < trials%mp {
			n++
		}
		hBuf[i] = stats.NewHistogram()
		go func(d *Driver, h *stats.Histogram, n int) {
			defer wg.Done()
			for done := 0; done < n; done += pbChunk {
				k := min(pbChunk, n-done)
				d.RunTrials(k, h)
				bar.Add(k)
			}
		}(s.mBuf[i], hBuf[i], n)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	for _, h := range hBuf {
		s.hist.Merge(h)
	}
	return s.finish(trials, used), used, nil
}

// RunFor 在 budget 時間內以加倍批次盡量多跑（maxTrials > 0 時另設上限），回傳報告與批次統計。
func (s *Simulator) RunFor(ctx context.Context, budget time.Duration, maxTrials int) (*stats.Report, BatchStats, error) {
	if budget <= 0 && s.setting.BudgetMS > 0 {
		budget = time.Duration(s.setting.BudgetMS) * time.Millisecond
	}
	r, err := NewRunner(s.mBuf[0], s.hist, WithClock(s.clock), WithBudget(budget), WithMaxTrials(maxTrials))
	if err != nil {
		return nil, BatchStats{}, err
	}
	bs, err := r.Step(ctx)
	if err != nil {
		return nil, bs, err
	}
	return s.finish(bs.Trials, bs.Elapsed), bs, nil
}

func (s *Simulator) trials(n int) (int, error) {
	if n == 0 {
		n = s.setting.Trials
	}
	if n < 1 {
		return 0, errs.NewWarn("trials must > 0")
	}
	return n, nil
}

func (s *Simulator) finish(trials int, used time.Duration) *stats.Report {
	rep := s.Report(used)
	s.log.Info("simulation done",
		slog.String("name", s.setting.Name),
		slog.String("banner", rep.Summary.Banner),
		slog.String("goal", rep.Summary.Goal),
		slog.Int("trials", trials),
		slog.Duration("elapsed", used),
		slog.Int("p50", rep.Percentile(0.5)),
	)
	return rep
}

const mask63 = uint64(1<<63) - 1

// seedMaker 由初始 seed 推導後續 Driver 的 seed。
type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 走全週期 LCG（不重複），再用可逆 mix63 打散；CAS 迴圈確保併發下每次取得唯一的 state。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
