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
	"time"

	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/stats"
)

const (
	// DefaultBudget 為每次 Step 的預設時間預算。
	DefaultBudget = 500 * time.Millisecond
	// DefaultInitialBatch 為每次 Step 第一批的試驗數，之後每批加倍。
	DefaultInitialBatch = 10
	// maxBatch 限制單批大小，避免時鐘不前進時批次無限加倍。
	maxBatch = 1 << 22
)

// Clock 提供目前時間；測試以假時鐘控制預算。
type Clock interface {
	Now() time.Time
}

// SystemClock 使用 time.Now。
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// BatchStats 為一次 Step（或 RunUntil）的執行統計。
type BatchStats struct {
	Trials  int           `json:"trials"`
	Batches int           `json:"batches"`
	Elapsed time.Duration `json:"elapsed"`
}

func (b *BatchStats) add(o BatchStats) {
	b.Trials += o.Trials
	b.Batches += o.Batches
	b.Elapsed += o.Elapsed
}

// Runner 以加倍批次在時間預算內盡量多跑試驗，結果累積在同一個 histogram。
//
// 預算只在批次之間檢查，單次試驗不會被中斷。
type Runner struct {
	d         *Driver
	h         *stats.Histogram
	clock     Clock
	budget    time.Duration
	initial   int
	maxTrials int
}

// RunnerOption 設定 Runner。
type RunnerOption func(*Runner)

func WithClock(c Clock) RunnerOption {
	return func(r *Runner) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithBudget 設定每次 Step 的時間預算；<= 0 時沿用預設值。
func WithBudget(b time.Duration) RunnerOption {
	return func(r *Runner) {
		if b > 0 {
			r.budget = b
		}
	}
}

func WithInitialBatch(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.initial = n
		}
	}
}

// WithMaxTrials 限制每次 Step 的試驗數上限；0 表示只受時間預算限制。
func WithMaxTrials(n int) RunnerOption {
	return func(r *Runner) {
		if n >= 0 {
			r.maxTrials = n
		}
	}
}

func NewRunner(d *Driver, h *stats.Histogram, opts ...RunnerOption) (*Runner, error) {
	if d == nil || h == nil {
		return nil, errs.NewFatal("orblab: runner needs a driver and a histogram")
	}
	r := &Runner{
		d:       d,
		h:       h,
		clock:   SystemClock{},
		budget:  DefaultBudget,
		initial: DefaultInitialBatch,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Histogram 回傳累積結果的 histogram。
func (r *Runner) Histogram() *stats.Histogram { return r.h }

// Step 以 10, 20, 40... 的批次執行，直到時間預算用完（或達到 WithMaxTrials 上限）。
// ctx 在每批開始前檢查；取消時回傳已完成的統計與 ctx.Err()。
func (r *Runner) Step(ctx context.Context) (BatchStats, error) {
	return r.step(ctx, r.maxTrials)
}

// RunUntil 重複 Step 直到本次呼叫累積 total 次試驗，或 ctx 結束。
func (r *Runner) RunUntil(ctx context.Context, total int) (BatchStats, error) {
	var all BatchStats
	for all.Trials < total {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		limit := total - all.Trials
		if r.maxTrials > 0 {
			limit = min(limit, r.maxTrials)
		}
		bs, err := r.step(ctx, limit)
		all.add(bs)
		if err != nil {
			return all, err
		}
	}
	return all, nil
}

func (r *Runner) step(ctx context.Context, limit int) (BatchStats, error) {
	var bs BatchStats
	start := r.clock.Now()
	deadline := start.Add(r.budget)
	batch := r.initial
	for {
		if err := ctx.Err(); err != nil {
			bs.Elapsed = r.clock.Now().Sub(start)
			return bs, err
		}
		n := batch
		if limit > 0 {
			n = min(n, limit-bs.Trials)
		}
		r.d.RunTrials(n, r.h)
		bs.Trials += n
		bs.Batches++

		now := r.clock.Now()
		if !now.Before(deadline) || (limit > 0 && bs.Trials >= limit) {
			bs.Elapsed = now.Sub(start)
			return bs, nil
		}
		batch = min(batch*2, maxBatch)
	}
}
