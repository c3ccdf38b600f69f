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

package banner

import (
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/sdk/core"
	"github.com/zintix-labs/orblab/sdk/sampler"
)

const (
	// MaxPityLevel 為最高保底等級；保底計數 >= 120 時抵達，5★ 必出。
	MaxPityLevel = 24
	// PityStep 為每一級保底轉移到 5★ 的百分點。
	PityStep = 0.5
	// pullsPerLevel 為每升一級所需的保留抽數。
	pullsPerLevel = 5
)

// residual 分配比例（/94）：非 5★ 的機率依此拆給各低階層。
const (
	residualDenom    = 94.0
	shareThreestar   = 36.0
	shareFourstarAll = 58.0
	shareExtraTier   = 3.0
)

// BonusChance 回傳保底 0 級時抽到 4★ 提升（bonus）階層的機率（0..1）；沒有 bonus 時為 0。
func (c Config) BonusChance() float64 {
	if c.Bonus == nil {
		return 0
	}
	return float64(100-c.Rates.Total()) * shareExtraTier / residualDenom / 100
}

// Model 為 PoolModel：由 Config 推導各保底等級的階層機率與各階層的顏色分布。
// 建立後不可變，可在多個 driver 間唯讀共享。
type Model struct {
	cfg    Config
	tiers  []Tier
	bases  []float64
	table  *WeightTable
	colors [numTiers]sampler.LUT
}

// NewModel 驗證設定並預先建好 WeightTable 與顏色表。
func NewModel(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.PoolVersion == 0 && cfg.PoolSizes == nil {
		cfg.PoolVersion = 1
	}
	if cfg.Bonus != nil {
		b := *cfg.Bonus
		cfg.Bonus = &b
	}
	if cfg.PoolSizes != nil {
		p := *cfg.PoolSizes
		cfg.PoolSizes = &p
	}

	m := &Model{cfg: cfg}
	m.tiers, m.bases = bases(cfg)

	if err := m.buildColors(); err != nil {
		return nil, err
	}
	t, err := newWeightTable(m)
	if err != nil {
		return nil, errs.Wrap(err, "banner: build weight table")
	}
	m.table = t
	return m, nil
}

// Config 回傳模型使用的設定（已補上預設值）。
func (m *Model) Config() Config { return m.cfg }

// Tiers 回傳啟用中的階層，順序即抽樣器的分類順序。
func (m *Model) Tiers() []Tier {
	out := make([]Tier, len(m.tiers))
	copy(out, m.tiers)
	return out
}

// Bases 回傳不受保底影響的各階層機率（百分點）。
func (m *Model) Bases() []float64 {
	out := make([]float64, len(m.bases))
	copy(out, m.bases)
	return out
}

// Probabilities 回傳保底等級 level 的各階層機率（百分點）。
//
// level < MaxPityLevel 時從低階層轉移 level*0.5 個百分點到兩個 5★ 階層；
// level == MaxPityLevel 時低階層全部轉移。兩個 5★ 階層依起始比例分配轉入量，
// 低階層之間也維持原本比例等比縮小。
func (m *Model) Probabilities(level int) []float64 {
	level = clampLevel(level)
	b := m.bases
	top := b[0] + b[1]
	rest := 100 - top

	pity := float64(level) * PityStep
	if level == MaxPityLevel || pity > rest {
		pity = rest
	}

	p := make([]float64, len(b))
	p[0] = b[0] + pity*b[0]/top
	p[1] = b[1] + pity*b[1]/top
	scale := (rest - pity) / rest
	for i := 2; i < len(b); i++ {
		p[i] = b[i] * scale
	}
	return p
}

// Table 回傳預先計算的各保底等級抽樣器。
func (m *Model) Table() *WeightTable { return m.table }

// Level 將保底計數換算為保底等級。
func Level(counter int) int {
	return clampLevel(counter / pullsPerLevel)
}

// ColorSampler 回傳階層 t 的顏色查找表；未啟用的階層回傳 nil。
func (m *Model) ColorSampler(t Tier) sampler.LUT {
	return m.colors[t.index()]
}

// Sample 在保底等級 level 抽一次，回傳階層與顏色。
func (m *Model) Sample(c *core.Core, level int) (Tier, Color) {
	t := m.tiers[m.table.levels[clampLevel(level)].Pick(c)]
	col := Colors[m.colors[t.index()].Pick(c)]
	return t, col
}

func (m *Model) buildColors() error {
	pools, err := m.cfg.Pools()
	if err != nil {
		return err
	}
	rows := map[Tier][NumColors]int{
		Focus:     m.cfg.FocusSizes,
		Fivestar:  pools.Fivestar,
		Fourstar:  pools.Fourstar,
		Threestar: pools.Threestar,
	}
	if m.cfg.FourstarSpecial {
		rows[FourstarSpecial] = pools.Fourstar
	}
	if m.cfg.Bonus != nil {
		var row [NumColors]int
		row[m.cfg.Bonus.Index()] = 1
		rows[FourstarFocus] = row
	}
	for i, t := range m.tiers {
		row := rows[t]
		lut, err := sampler.NewLUT(row[:])
		if err != nil {
			// 機率為 0 的階層永遠抽不到，不需要顏色表。
			if m.bases[i] == 0 {
				continue
			}
			return errs.Wrap(err, "banner: empty color pool for "+t.String())
		}
		m.colors[t.index()] = lut
	}
	return nil
}

// bases 依設定選出啟用階層與其起始機率。
func bases(cfg Config) ([]Tier, []float64) {
	f := float64(cfg.Rates.Focus)
	g := float64(cfg.Rates.Fivestar)
	rest := 100 - f - g

	tiers := []Tier{Focus, Fivestar}
	out := []float64{f, g}
	fourstar := shareFourstarAll
	if cfg.Bonus != nil {
		tiers = append(tiers, FourstarFocus)
		out = append(out, rest*shareExtraTier/residualDenom)
		fourstar -= shareExtraTier
	}
	if cfg.FourstarSpecial {
		tiers = append(tiers, FourstarSpecial)
		out = append(out, rest*shareExtraTier/residualDenom)
		fourstar -= shareExtraTier
	}
	tiers = append(tiers, Fourstar, Threestar)
	out = append(out, rest*fourstar/residualDenom, rest*shareThreestar/residualDenom)
	return tiers, out
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > MaxPityLevel {
		return MaxPityLevel
	}
	return level
}

// WeightTable 為每個保底等級預先建好的階層抽樣器（0..MaxPityLevel）。
type WeightTable struct {
	levels [MaxPityLevel + 1]sampler.Weighted
	probs  [MaxPityLevel + 1][]float64
}

func newWeightTable(m *Model) (*WeightTable, error) {
	t := new(WeightTable)
	for lv := 0; lv <= MaxPityLevel; lv++ {
		p := m.Probabilities(lv)
		w, err := sampler.NewWeighted(p)
		if err != nil {
			return nil, errs.WrapWithExtra(err, "banner: degenerate tier weights", m.cfg.String())
		}
		t.levels[lv] = w
		t.probs[lv] = p
	}
	return t, nil
}

// At 回傳保底等級 level 的抽樣器。
func (t *WeightTable) At(level int) sampler.Weighted {
	return t.levels[clampLevel(level)]
}

// Probabilities 回傳建表時使用的機率（百分點）副本。
func (t *WeightTable) Probabilities(level int) []float64 {
	p := t.probs[clampLevel(level)]
	out := make([]float64, len(p))
	copy(out, p)
	return out
}
