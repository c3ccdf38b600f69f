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

// Package goal 描述抽卡目標，以及追蹤單次試驗中目標完成進度的狀態機（State）。
package goal

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
)

const (
	// MaxCopies 為單一目標可要求的最多隻數。
	MaxCopies = 64
	// MaxExpectedCost 為目標估計單次試驗花費（orb）的上限；超過視為不可達成。
	MaxExpectedCost = 1 << 19
	// maxOrbsPerDraw 為每顆寶珠最多攤到的花費（20 orb / 5 顆）。
	maxOrbsPerDraw = 4
	// chargeCycle 為提升保證的週期：每 4 隻保留的一般 5★ 有 1 隻轉為提升。
	chargeCycle = 4
)

// Kind 決定多個目標之間的關係。
type Kind uint8

const (
	// All 所有目標都完成才算達成。
	All Kind = iota
	// Any 任一目標完成即達成，其餘目標直接清除。
	Any
)

func (k Kind) String() string {
	switch k {
	case All:
		return "all"
	case Any:
		return "any"
	}
	return "unknown"
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return All, nil
	case "any":
		return Any, nil
	}
	return 0, errs.Warnf("goal: unknown kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Part 為單一目標：某顏色的一隻提升角色（或 bonus 4★ 角色）需要 Copies 隻。
//
// 同色的多個非 bonus Part 依序對應該色的不同提升角色。
type Part struct {
	Color  banner.Color `yaml:"color" json:"color"`
	Copies int          `yaml:"copies" json:"copies"`
	Bonus  bool         `yaml:"bonus,omitempty" json:"bonus,omitempty"`
}

// Custom 為展開後的目標。
type Custom struct {
	Kind  Kind   `yaml:"kind" json:"kind"`
	Parts []Part `yaml:"parts" json:"parts"`
}

func (c Custom) clone() Custom {
	out := Custom{Kind: c.Kind, Parts: make([]Part, len(c.Parts))}
	copy(out.Parts, c.Parts)
	return out
}

func (c Custom) String() string {
	parts := make([]string, len(c.Parts))
	for i, p := range c.Parts {
		s := fmt.Sprintf("%s x%d", p.Color, p.Copies)
		if p.Bonus {
			s += " bonus"
		}
		parts[i] = s
	}
	return c.Kind.String() + "[" + strings.Join(parts, ", ") + "]"
}

// Preset 為常用目標。
type Preset uint8

const (
	AnyFocus Preset = iota
	AllFocus
	RedFocus
	BlueFocus
	GreenFocus
	ColorlessFocus
	BonusFocus
)

var presetNames = [...]string{
	AnyFocus:       "any_focus",
	AllFocus:       "all_focus",
	RedFocus:       "red_focus",
	BlueFocus:      "blue_focus",
	GreenFocus:     "green_focus",
	ColorlessFocus: "colorless_focus",
	BonusFocus:     "bonus_focus",
}

func (p Preset) String() string {
	if int(p) < len(presetNames) {
		return presetNames[p]
	}
	return "unknown"
}

// Presets 依序列出所有內建目標。
func Presets() []Preset {
	return []Preset{AnyFocus, AllFocus, RedFocus, BlueFocus, GreenFocus, ColorlessFocus, BonusFocus}
}

func ParsePreset(s string) (Preset, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range presetNames {
		if name == s {
			return Preset(i), nil
		}
	}
	return 0, errs.Warnf("goal: unknown preset %q", s)
}

func (p Preset) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

func (p *Preset) UnmarshalText(b []byte) error {
	v, err := ParsePreset(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// color 回傳單色目標的顏色。
func (p Preset) color() (banner.Color, bool) {
	switch p {
	case RedFocus:
		return banner.Red, true
	case BlueFocus:
		return banner.Blue, true
	case GreenFocus:
		return banner.Green, true
	case ColorlessFocus:
		return banner.Colorless, true
	}
	return 0, false
}

// Goal 為內建目標加數量，或自訂目標。以 FromPreset / FromCustom 建立。
type Goal struct {
	preset Preset
	count  int
	custom *Custom
}

// FromPreset 建立「某內建目標 count 隻」。
func FromPreset(p Preset, count int) Goal {
	return Goal{preset: p, count: count}
}

// FromCustom 建立自訂目標；c 會被複製。
func FromCustom(c Custom) Goal {
	cc := c.clone()
	return Goal{custom: &cc}
}

func (g Goal) IsPreset() bool { return g.custom == nil }

// Preset 回傳內建目標與數量；自訂目標回傳 false。
func (g Goal) Preset() (Preset, int, bool) {
	if g.custom != nil {
		return 0, 0, false
	}
	return g.preset, g.count, true
}

func (g Goal) String() string {
	if g.custom != nil {
		return g.custom.String()
	}
	return fmt.Sprintf("%s:%d", g.preset, g.count)
}

// Parse 解析 "preset" 或 "preset:count"（預設 1 隻）。
func Parse(s string) (Goal, error) {
	name, num, found := strings.Cut(strings.TrimSpace(s), ":")
	p, err := ParsePreset(name)
	if err != nil {
		return Goal{}, err
	}
	count := 1
	if found {
		n, err := strconv.Atoi(strings.TrimSpace(num))
		if err != nil {
			return Goal{}, errs.Warnf("goal: invalid count %q", num)
		}
		count = n
	}
	return FromPreset(p, count), nil
}

// AsCustom 將目標展開為自訂目標。純函數，可重複呼叫，不修改輸入。
//
// 內建目標依卡池的提升角色數展開：每一隻提升角色一個 Part。
func AsCustom(g Goal, b banner.Config) Custom {
	if g.custom != nil {
		return g.custom.clone()
	}
	out := Custom{}
	switch g.preset {
	case AnyFocus, AllFocus:
		out.Kind = Any
		if g.preset == AllFocus {
			out.Kind = All
		}
		for _, col := range banner.Colors {
			for u := 0; u < b.FocusSize(col); u++ {
				out.Parts = append(out.Parts, Part{Color: col, Copies: g.count})
			}
		}
	case BonusFocus:
		out.Kind = All
		if b.Bonus != nil {
			out.Parts = []Part{{Color: *b.Bonus, Copies: g.count, Bonus: true}}
		}
	default:
		out.Kind = Any
		if col, ok := g.preset.color(); ok {
			for u := 0; u < b.FocusSize(col); u++ {
				out.Parts = append(out.Parts, Part{Color: col, Copies: g.count})
			}
		}
	}
	return out
}

// Check 回傳目標在卡池上無法達成的原因；可達成時回傳 nil。
// 不可達成的錯誤以 errors.Is(err, errs.ErrUnsatisfiable) 判斷。
func Check(g Goal, b banner.Config) error {
	if g.custom == nil && int(g.preset) >= len(presetNames) {
		return errs.Warnf("goal: unknown preset %d", uint8(g.preset))
	}
	return checkCustom(AsCustom(g, b), b)
}

// IsAvailable 判斷目標是否可能在卡池上達成。
func IsAvailable(g Goal, b banner.Config) bool {
	return Check(g, b) == nil
}

func checkCustom(c Custom, b banner.Config) error {
	if c.Kind != All && c.Kind != Any {
		return errs.Warnf("goal: invalid kind %d", uint8(c.Kind))
	}
	if len(c.Parts) == 0 {
		return errs.Unsatisfiable("goal: no targets on banner %s", b)
	}
	var perColor [banner.NumColors]int
	for _, p := range c.Parts {
		if !p.Color.Valid() {
			return errs.Warnf("goal: invalid color %d", uint8(p.Color))
		}
		if p.Copies < 1 {
			return errs.Warnf("goal: %s target needs at least one copy, got %d", p.Color, p.Copies)
		}
		if p.Copies > MaxCopies {
			return errs.Unsatisfiable("goal: %s target asks for %d copies, limit %d", p.Color, p.Copies, MaxCopies)
		}
		if p.Bonus {
			if b.Bonus == nil || *b.Bonus != p.Color {
				return errs.Unsatisfiable("goal: banner %s has no %s bonus unit", b, p.Color)
			}
			continue
		}
		perColor[p.Color.Index()]++
		if n := b.FocusSize(p.Color); perColor[p.Color.Index()] > n {
			return errs.Unsatisfiable("goal: %d %s targets but banner %s has %d %s focus units",
				perColor[p.Color.Index()], p.Color, b, n, p.Color)
		}
		if !focusReachable(b, p.Color) {
			return errs.Unsatisfiable("goal: %s focus units can never be drawn on banner %s", p.Color, b)
		}
	}
	if est := expectedCost(c, b); est > MaxExpectedCost {
		return errs.Unsatisfiable("goal: %s needs about %.0f orbs per trial on banner %s, limit %d",
			c, est, b, MaxExpectedCost)
	}
	return nil
}

// expectedCost 粗估單次試驗花費的上界：忽略保底，每顆寶珠以 maxOrbsPerDraw 計。
// All 取各目標之和，Any 取最小值。
func expectedCost(c Custom, b banner.Config) float64 {
	out := math.Inf(1)
	if c.Kind == All {
		out = 0
	}
	for _, p := range c.Parts {
		h := hitChance(p, b)
		cost := math.Inf(1)
		if h > 0 {
			cost = float64(p.Copies) * maxOrbsPerDraw / h
		}
		if c.Kind == All {
			out += cost
		} else {
			out = min(out, cost)
		}
	}
	return out
}

// hitChance 估計保底 0 級時單顆寶珠命中目標 p 的機率。
func hitChance(p Part, b banner.Config) float64 {
	if p.Bonus {
		// 保底上升會壓縮 4★ 階層，取一半。
		return b.BonusChance() / 2
	}
	var h float64
	if n := b.TotalFocus(); n > 0 {
		h = float64(b.Rates.Focus) / 100 / float64(n)
	}
	size := b.FocusSize(p.Color)
	if !b.FocusCharges || b.Rates.Fivestar == 0 || size == 0 {
		return h
	}
	pools, err := b.Pools()
	if err != nil {
		return h
	}
	sum := 0
	for _, n := range pools.Fivestar {
		sum += n
	}
	if sum == 0 {
		return h
	}
	share := float64(pools.Fivestar[p.Color.Index()]) / float64(sum)
	return h + float64(b.Rates.Fivestar)/100*share/chargeCycle/float64(size)
}

// focusReachable 判斷提升階層是否抽得到：提升機率 > 0，或靠提升保證從一般 5★ 轉換。
func focusReachable(b banner.Config, col banner.Color) bool {
	if b.Rates.Focus > 0 {
		return true
	}
	if !b.FocusCharges || b.Rates.Fivestar == 0 {
		return false
	}
	pools, err := b.Pools()
	if err != nil {
		return false
	}
	return pools.Fivestar[col.Index()] > 0
}
