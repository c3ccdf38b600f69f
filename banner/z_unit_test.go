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
	"math"
	"testing"

	"github.com/zintix-labs/orblab/sdk/core"
)

func sum(p []float64) float64 {
	s := 0.0
	for _, v := range p {
		s += v
	}
	return s
}

func configs() []Config {
	base := DefaultConfig()
	hf := base
	hf.Rates = Rates{Focus: 5, Fivestar: 3}
	leg := base
	leg.Rates = Rates{Focus: 8, Fivestar: 0}
	bonus := base.WithBonus(Green)
	special := base
	special.FourstarSpecial = true
	both := special.WithBonus(Blue)
	v2 := base
	v2.PoolVersion = 2
	edge := base
	edge.Rates = Rates{Focus: 80, Fivestar: 8}
	return []Config{base, hf, leg, bonus, special, both, v2, edge}
}

func TestBasesSplit(t *testing.T) {
	m, err := NewModel(DefaultConfig())
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	b := m.Bases()
	want := []float64{3, 3, 94 * 58.0 / 94, 94 * 36.0 / 94}
	for i := range want {
		if math.Abs(b[i]-want[i]) > 1e-9 {
			t.Fatalf("bases[%d] = %v, want %v", i, b[i], want[i])
		}
	}
	if tiers := m.Tiers(); len(tiers) != 4 || tiers[2] != Fourstar || tiers[3] != Threestar {
		t.Fatalf("unexpected tiers %v", tiers)
	}
}

func TestArityByFlags(t *testing.T) {
	cases := []struct {
		cfg   Config
		arity int
	}{
		{DefaultConfig(), 4},
		{DefaultConfig().WithBonus(Red), 5},
		{func() Config { c := DefaultConfig(); c.FourstarSpecial = true; return c }(), 5},
		{func() Config { c := DefaultConfig().WithBonus(Red); c.FourstarSpecial = true; return c }(), 6},
	}
	for _, tc := range cases {
		m, err := NewModel(tc.cfg)
		if err != nil {
			t.Fatalf("new model: %v", err)
		}
		if got := m.Table().At(0).Arity(); got != tc.arity {
			t.Fatalf("arity = %d, want %d", got, tc.arity)
		}
		if math.Abs(sum(m.Bases())-100) > 1e-9 {
			t.Fatalf("bases do not sum to 100: %v", m.Bases())
		}
	}
}

func TestProbabilitiesAtZeroEqualBases(t *testing.T) {
	for _, cfg := range configs() {
		m, err := NewModel(cfg)
		if err != nil {
			t.Fatalf("new model %s: %v", cfg, err)
		}
		b := m.Bases()
		p := m.Probabilities(0)
		for i := range b {
			if p[i] != b[i] {
				t.Fatalf("%s: probabilities(0)[%d] = %v, bases = %v", cfg, i, p[i], b[i])
			}
		}
	}
}

func TestProbabilitiesPityMonotone(t *testing.T) {
	for _, cfg := range configs() {
		m, err := NewModel(cfg)
		if err != nil {
			t.Fatalf("new model %s: %v", cfg, err)
		}
		b := m.Bases()
		prevTop := -1.0
		for lv := 0; lv <= MaxPityLevel; lv++ {
			p := m.Probabilities(lv)
			if math.Abs(sum(p)-100) > 1e-9 {
				t.Fatalf("%s level %d sums to %v", cfg, lv, sum(p))
			}
			top := p[0] + p[1]
			if top < prevTop {
				t.Fatalf("%s: top mass decreased at level %d", cfg, lv)
			}
			prevTop = top
			if lv < MaxPityLevel {
				want := b[0] + b[1] + float64(lv)*PityStep
				if math.Abs(top-want) > 1e-9 {
					t.Fatalf("%s level %d: top = %v, want %v", cfg, lv, top, want)
				}
			}
			// 兩個 5★ 階層維持起始比例
			if b[0] > 0 && b[1] > 0 && math.Abs(p[0]/p[1]-b[0]/b[1]) > 1e-9 {
				t.Fatalf("%s level %d: top split drifted", cfg, lv)
			}
			// 低階層之間維持比例
			if lv < MaxPityLevel {
				for i := 2; i < len(b)-1; i++ {
					if math.Abs(p[i]/p[len(b)-1]-b[i]/b[len(b)-1]) > 1e-9 {
						t.Fatalf("%s level %d: lower split drifted", cfg, lv)
					}
				}
			}
		}
		if math.Abs(prevTop-100) > 1e-9 {
			t.Fatalf("%s: max pity top mass = %v, want 100", cfg, prevTop)
		}
	}
}

func TestLevel(t *testing.T) {
	cases := map[int]int{0: 0, 4: 0, 5: 1, 119: 23, 120: 24, 500: 24, -3: 0}
	for counter, want := range cases {
		if got := Level(counter); got != want {
			t.Fatalf("Level(%d) = %d, want %d", counter, got, want)
		}
	}
}

func TestMaxPityAlwaysTop(t *testing.T) {
	m, err := NewModel(DefaultConfig())
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	c := core.NewWithSeed(3)
	for i := 0; i < 10_000; i++ {
		tier, _ := m.Sample(c, MaxPityLevel)
		if !tier.IsTop() {
			t.Fatalf("max pity drew %s", tier)
		}
	}
}

func TestColorSampling(t *testing.T) {
	cfg := Config{FocusSizes: [NumColors]int{0, 2, 0, 0}, Rates: Rates{Focus: 8}}
	cfg = cfg.WithBonus(Colorless)
	m, err := NewModel(cfg)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	c := core.NewWithSeed(21)
	for i := 0; i < 20_000; i++ {
		tier, col := m.Sample(c, 10)
		switch tier {
		case Focus:
			if col != Blue {
				t.Fatalf("focus drew %s", col)
			}
		case FourstarFocus:
			if col != Colorless {
				t.Fatalf("bonus tier drew %s", col)
			}
		case Fivestar:
			t.Fatalf("fivestar rate is zero but was drawn")
		}
	}
	if m.ColorSampler(FourstarSpecial) != nil {
		t.Fatalf("inactive tier should have no color table")
	}
	if got := m.ColorSampler(Fivestar).Weight(Red.Index()); got != 41 {
		t.Fatalf("fivestar red weight = %d", got)
	}
}

func TestValidate(t *testing.T) {
	bad := []Config{
		{FocusSizes: [NumColors]int{1, 0, 0, 0}, Rates: Rates{Focus: 80, Fivestar: 9}},
		{FocusSizes: [NumColors]int{-1, 0, 0, 0}, Rates: Rates{Focus: 3, Fivestar: 3}},
		{Rates: Rates{Focus: 3, Fivestar: 3}},
		{FocusSizes: [NumColors]int{1, 0, 0, 0}},
		{FocusSizes: [NumColors]int{1, 0, 0, 0}, Rates: Rates{Focus: 3}, PoolVersion: 9},
		{FocusSizes: [NumColors]int{1, 0, 0, 0}, Rates: Rates{Focus: 3}, PoolSizes: &PoolSizes{}},
		{FocusSizes: [NumColors]int{1, 0, 0, 0}, Rates: Rates{Focus: 3}, Pity: PityPolicy(7)},
	}
	for i, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected error for %s", i, cfg)
		}
		if _, err := NewModel(cfg); err == nil {
			t.Fatalf("case %d: NewModel accepted invalid config", i)
		}
	}
	ok := Config{FocusSizes: [NumColors]int{1, 0, 0, 0}, Rates: Rates{Focus: 3}, PoolSizes: &PoolSizes{
		Fourstar:  [NumColors]int{1, 1, 1, 1},
		Threestar: [NumColors]int{1, 1, 1, 1},
	}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("custom pool without fivestar rate should be valid: %v", err)
	}
}

func TestColorText(t *testing.T) {
	for _, col := range Colors {
		b, err := col.MarshalText()
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		var back Color
		if err := back.UnmarshalText(b); err != nil || back != col {
			t.Fatalf("round trip %s -> %s (%v)", col, back, err)
		}
	}
	if c, err := ParseColor("C"); err != nil || c != Colorless {
		t.Fatalf("short name parse failed")
	}
	if _, err := ParseColor("purple"); err == nil {
		t.Fatalf("expected error for unknown color")
	}
	if p, err := ParsePityPolicy("decay"); err != nil || p != PityDecay {
		t.Fatalf("pity parse failed")
	}
}

func TestPresets(t *testing.T) {
	p, ok := PresetByName("Legendary")
	if !ok || p.Rates != (Rates{Focus: 8, Fivestar: 0}) {
		t.Fatalf("unexpected legendary preset %+v", p)
	}
	if len(Presets()) != 3 {
		t.Fatalf("expected 3 presets")
	}
	if s := DefaultConfig().String(); s != "1/1/1/1 (3, 3)" {
		t.Fatalf("unexpected string %q", s)
	}
}
