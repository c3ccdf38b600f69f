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
	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/goal"
	"github.com/zintix-labs/orblab/sdk/core"
	"github.com/zintix-labs/orblab/stats"
)

// MaxTrialCost 單次試驗花費上限；通過 goal.Check 的目標不會接近此值，超過代表內部狀態錯誤。
const MaxTrialCost = 1 << 24

// Driver 為 SimulationDriver：反覆模擬「抽到目標為止」並回傳花費。
//
// Driver 持有自己的 Core 與 GoalState，不可跨 goroutine 共用；
// 需要平行時每個 goroutine 各建一個，Model 可以共享。
type Driver struct {
	model   *banner.Model
	cfg     banner.Config
	goal    goal.Goal
	state   *goal.State
	core    *core.Core
	draws   [SessionSize]Draw
	charges int
}

// NewDriver 以加密隨機 seed 建立 Driver。
func NewDriver(cfg banner.Config, g goal.Goal) (*Driver, error) {
	return NewDriverWithSeed(cfg, g, core.NewSeed())
}

// NewDriverWithSeed 以指定 seed 建立 Driver；相同設定與 seed 產生相同的結果序列。
func NewDriverWithSeed(cfg banner.Config, g goal.Goal, seed int64) (*Driver, error) {
	m, err := banner.NewModel(cfg)
	if err != nil {
		return nil, errs.Wrap(err, "orblab: build banner model")
	}
	return NewDriverWithModel(m, g, core.NewWithSeed(seed))
}

// NewDriverWithModel 以既有的 Model 與 Core 建立 Driver。
// 目標在卡池上不可達成時回傳的錯誤可用 errors.Is(err, errs.ErrUnsatisfiable) 判斷。
func NewDriverWithModel(m *banner.Model, g goal.Goal, c *core.Core) (*Driver, error) {
	if m == nil {
		return nil, errs.NewFatal("orblab: nil banner model")
	}
	if c == nil {
		return nil, errs.NewFatal("orblab: nil core")
	}
	cfg := m.Config()
	if err := goal.Check(g, cfg); err != nil {
		return nil, errs.WrapWithExtra(err, "orblab: goal "+g.String(), "banner "+cfg.String())
	}
	st, err := goal.NewState(goal.AsCustom(g, cfg), cfg)
	if err != nil {
		return nil, errs.Wrap(err, "orblab: build goal state")
	}
	return &Driver{
		model: m,
		cfg:   cfg,
		goal:  g,
		state: st,
		core:  c,
	}, nil
}

// Model 回傳 Driver 使用的機率模型。
func (d *Driver) Model() *banner.Model { return d.model }

// Goal 回傳 Driver 追蹤的目標。
func (d *Driver) Goal() goal.Goal { return d.goal }

// RunOneTrial 從零保底開始一路抽到目標達成，回傳總花費（orbs）。
func (d *Driver) RunOneTrial() int {
	d.state.Reset()
	d.charges = 0
	counter, cost := 0, 0
	for !d.state.Satisfied() {
		level := banner.Level(counter)
		for i := range d.draws {
			t, col := d.model.Sample(d.core, level)
			d.draws[i] = Draw{Tier: t, Color: col}
		}
		r := d.session()
		cost += SessionCost(r.Kept)
		counter = d.nextPity(counter, r)
		if cost > MaxTrialCost {
			panic(errs.Fatalf("orblab: trial exceeded %d orbs without meeting %s", MaxTrialCost, d.goal))
		}
	}
	return cost
}

// RunTrials 跑 n 次試驗並記錄到 h。
func (d *Driver) RunTrials(n int, h *stats.Histogram) {
	for range n {
		h.Increment(d.RunOneTrial())
	}
}

// nextPity 依保底策略推進保底計數。
func (d *Driver) nextPity(counter int, r SessionResult) int {
	if d.cfg.Pity == banner.PityDecay {
		switch {
		case r.FocusKept > 0:
			return 0
		case r.FivestarKept > 0:
			return max(0, counter-DecayPerFivestar*r.FivestarKept)
		}
		return counter + r.Kept
	}
	if r.Reset {
		return 0
	}
	return counter + r.Kept
}
