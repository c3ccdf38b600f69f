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

// Package banner 描述卡池設定與抽卡機率模型。
//
// 一次抽卡分兩段：先依當前保底等級抽階層（Tier），再依該階層的顏色分布抽顏色（Color）。
// 階層分布在 NewModel 時對每個保底等級預先算好（WeightTable），模擬期間唯讀共享。
package banner

import (
	"fmt"
	"strings"

	"github.com/zintix-labs/orblab/errs"
)

// RateCeiling 為提升 + 一般 5★ 起始機率的上限（百分點）。
// 保底最多累加 12 個百分點（24 級 × 0.5），起始機率超過 88 就沒有保底空間。
const RateCeiling = 88

// maxFocusPerColor 限制單色提升角色數，避免目標槽位失控。
const maxFocusPerColor = 32

// Rates 為 5★ 起始機率（百分點）。
type Rates struct {
	Focus    int `yaml:"focus" json:"focus"`
	Fivestar int `yaml:"fivestar" json:"fivestar"`
}

func (r Rates) Total() int { return r.Focus + r.Fivestar }

// PityPolicy 決定抽到 5★ 後保底計數如何變化。
type PityPolicy uint8

const (
	// PityReset 抽到任何保留下來的 5★ 即歸零。
	PityReset PityPolicy = iota
	// PityDecay 抽到提升 5★ 歸零；抽到一般 5★ 只扣回 20 抽。
	PityDecay
)

func (p PityPolicy) String() string {
	switch p {
	case PityReset:
		return "reset"
	case PityDecay:
		return "decay"
	}
	return "unknown"
}

func ParsePityPolicy(s string) (PityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "reset":
		return PityReset, nil
	case "decay":
		return PityDecay, nil
	}
	return 0, errs.Warnf("banner: unknown pity policy %q", s)
}

func (p PityPolicy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *PityPolicy) UnmarshalText(b []byte) error {
	v, err := ParsePityPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// Config 為卡池設定（BannerConfig）。零值 PoolVersion / Pity 視為預設。
type Config struct {
	// FocusSizes 為各色提升角色數（r/b/g/c）。
	FocusSizes [NumColors]int
	Rates      Rates
	// FocusCharges 開啟「連續未中提升 5★ 累積三次後，下一隻 5★ 必為提升」機制。
	FocusCharges bool
	// Bonus 指定 4★ 提升角色的顏色；nil 表示沒有 4★ 提升階層。
	Bonus *Color
	// FourstarSpecial 開啟 3% 的 4★ 特別提供階層。
	FourstarSpecial bool
	Pity            PityPolicy
	// PoolVersion 選擇內建的非提升池大小表（1 或 2）。
	PoolVersion int
	// PoolSizes 覆寫非提升池大小；優先於 PoolVersion。
	PoolSizes *PoolSizes
}

// DefaultConfig 回傳各色各一隻提升、3%/3% 的一般卡池。
func DefaultConfig() Config {
	return Config{
		FocusSizes:  [NumColors]int{1, 1, 1, 1},
		Rates:       Rates{Focus: 3, Fivestar: 3},
		PoolVersion: 1,
	}
}

// FocusSize 回傳指定顏色的提升角色數。
func (c Config) FocusSize(col Color) int {
	return c.FocusSizes[col.Index()]
}

func (c Config) TotalFocus() int {
	n := 0
	for _, v := range c.FocusSizes {
		n += v
	}
	return n
}

func (c Config) HasBonus() bool { return c.Bonus != nil }

// WithBonus 回傳設定好 bonus 顏色的副本。
func (c Config) WithBonus(col Color) Config {
	c.Bonus = &col
	return c
}

// Validate 檢查設定是否能建立非退化的機率模型。
func (c Config) Validate() error {
	for _, col := range Colors {
		n := c.FocusSize(col)
		if n < 0 {
			return errs.Warnf("banner: negative focus size %d for %s", n, col)
		}
		if n > maxFocusPerColor {
			return errs.Warnf("banner: focus size %d for %s exceeds %d", n, col, maxFocusPerColor)
		}
	}
	if c.Rates.Focus < 0 || c.Rates.Fivestar < 0 {
		return errs.Warnf("banner: negative rates (%d, %d)", c.Rates.Focus, c.Rates.Fivestar)
	}
	if c.Rates.Total() == 0 {
		return errs.NewWarn("banner: focus and fivestar rates are both zero")
	}
	if c.Rates.Total() > RateCeiling {
		return errs.Warnf("banner: starting rates %d%% exceed ceiling %d%%", c.Rates.Total(), RateCeiling)
	}
	if c.Rates.Focus > 0 && c.TotalFocus() == 0 {
		return errs.Warnf("banner: focus rate %d%% with no focus units", c.Rates.Focus)
	}
	if c.Bonus != nil && !c.Bonus.Valid() {
		return errs.Warnf("banner: invalid bonus color %d", uint8(*c.Bonus))
	}
	if c.Pity != PityReset && c.Pity != PityDecay {
		return errs.Warnf("banner: invalid pity policy %d", uint8(c.Pity))
	}
	pools, err := c.Pools()
	if err != nil {
		return err
	}
	return pools.validate(c)
}

// String 以 "r/b/g/c (focus, fivestar)" 簡寫表示卡池。
func (c Config) String() string {
	f := c.FocusSizes
	return fmt.Sprintf("%d/%d/%d/%d (%d, %d)", f[0], f[1], f[2], f[3], c.Rates.Focus, c.Rates.Fivestar)
}

// RatePreset 為具名的起始機率組合。
type RatePreset struct {
	Name  string `yaml:"name" json:"name"`
	Label string `yaml:"label" json:"label"`
	Rates Rates  `yaml:"rates" json:"rates"`
}

var ratePresets = []RatePreset{
	{Name: "normal", Label: "3%/3% (Normal)", Rates: Rates{Focus: 3, Fivestar: 3}},
	{Name: "herofest", Label: "5%/3% (Hero Fest)", Rates: Rates{Focus: 5, Fivestar: 3}},
	{Name: "legendary", Label: "8%/0% (Legendary)", Rates: Rates{Focus: 8, Fivestar: 0}},
}

// Presets 回傳內建機率組合的副本。
func Presets() []RatePreset {
	out := make([]RatePreset, len(ratePresets))
	copy(out, ratePresets)
	return out
}

func PresetByName(name string) (RatePreset, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range ratePresets {
		if p.Name == name {
			return p, true
		}
	}
	return RatePreset{}, false
}
