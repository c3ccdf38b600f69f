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

package spec

import (
	"math"

	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/goal"
	"gopkg.in/yaml.v3"
)

// DefaultTrials 為設定檔未指定 trials 時的試驗次數。
const DefaultTrials = 100_000

// maxTrials 單一設定檔可要求的試驗上限。
const maxTrials = 100_000_000

// SimSetting 包含一次模擬所需的所有高階設定（卡池、目標、試驗次數與報告選項）。
type SimSetting struct {
	Name        string        `yaml:"name"         json:"name"`
	Banner      BannerSetting `yaml:"banner"       json:"banner"`
	Goal        GoalSetting   `yaml:"goal"         json:"goal"`
	Trials      int           `yaml:"trials"       json:"trials,omitempty"`
	Seed        *int64        `yaml:"seed"         json:"seed,omitempty"`
	Percentiles []float64     `yaml:"percentiles"  json:"percentiles,omitempty"`
	Budgets     []int         `yaml:"budgets"      json:"budgets,omitempty"`
	BudgetMS    int           `yaml:"budget_ms"    json:"budget_ms,omitempty"`

	cfg    banner.Config
	target goal.Goal
	ready  bool
}

// NewSimSetting 以已經建好的卡池與目標組出設定，並執行與解析設定檔相同的檢查。
func NewSimSetting(name string, cfg banner.Config, g goal.Goal) (*SimSetting, error) {
	s := &SimSetting{
		Name:   name,
		Banner: BannerFromConfig(cfg),
		Goal:   GoalFromGoal(g),
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init 補上預設值、把卡池與目標轉成執行期型別並檢查。可重複呼叫。
func (s *SimSetting) Init() error {
	s.ready = false
	if s.Trials == 0 {
		s.Trials = DefaultTrials
	}
	cfg, err := s.Banner.Config()
	if err != nil {
		return errs.WrapWithExtra(err, "invalid banner", s.Name)
	}
	g, err := s.Goal.Goal()
	if err != nil {
		return errs.WrapWithExtra(err, "invalid goal", s.Name)
	}
	s.cfg = cfg
	s.target = g
	if err := s.valid(); err != nil {
		return err
	}
	s.ready = true
	return nil
}

// BannerConfig 回傳解析後的卡池設定；須先 Init。
func (s *SimSetting) BannerConfig() banner.Config { return s.cfg }

// TargetGoal 回傳解析後的目標；須先 Init。
func (s *SimSetting) TargetGoal() goal.Goal { return s.target }

// IsReady 回報設定是否已通過 Init。
func (s *SimSetting) IsReady() bool { return s.ready }

// Clone 回傳獨立副本，可安全修改後重新 Init。
func (s *SimSetting) Clone() *SimSetting {
	c := *s
	c.Banner = s.Banner.clone()
	c.Goal.Parts = append([]goal.Part(nil), s.Goal.Parts...)
	c.Percentiles = append([]float64(nil), s.Percentiles...)
	c.Budgets = append([]int(nil), s.Budgets...)
	if s.Seed != nil {
		v := *s.Seed
		c.Seed = &v
	}
	return &c
}

// YAML 以設定檔格式輸出。
func (s *SimSetting) YAML() ([]byte, error) {
	b, err := yaml.Marshal(s)
	if err != nil {
		return nil, errs.Wrap(err, "spec: marshal sim setting")
	}
	return b, nil
}

func (s *SimSetting) valid() error {
	if s.Trials < 0 || s.Trials > maxTrials {
		return errs.Warnf("%s: trials must be in [1, %d], got %d", s.Name, maxTrials, s.Trials)
	}
	for _, p := range s.Percentiles {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return errs.Warnf("%s: percentile %v out of [0, 1]", s.Name, p)
		}
	}
	for _, b := range s.Budgets {
		if b < 1 {
			return errs.Warnf("%s: budget must be positive, got %d", s.Name, b)
		}
	}
	if s.BudgetMS < 0 {
		return errs.Warnf("%s: budget_ms must be >= 0, got %d", s.Name, s.BudgetMS)
	}
	if s.Seed != nil && *s.Seed < 0 {
		return errs.Warnf("%s: seed must be >= 0, got %d", s.Name, *s.Seed)
	}
	if err := s.cfg.Validate(); err != nil {
		return errs.WrapWithExtra(err, "invalid banner", s.Name)
	}
	if err := goal.Check(s.target, s.cfg); err != nil {
		return errs.WrapWithExtra(err, "goal can not be met on banner "+s.cfg.String(), s.Name)
	}
	return nil
}
