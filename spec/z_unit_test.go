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
	"errors"
	"strings"
	"testing"

	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/goal"
)

func TestParseBanner(t *testing.T) {
	cfg, err := ParseBanner(" 1/0/2/0 (5, 3) ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.FocusSizes != [banner.NumColors]int{1, 0, 2, 0} || cfg.Rates != (banner.Rates{Focus: 5, Fivestar: 3}) {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if FormatBanner(cfg) != "1/0/2/0 (5, 3)" {
		t.Fatalf("format mismatch: %s", FormatBanner(cfg))
	}
	back, err := ParseBanner(FormatBanner(cfg))
	if err != nil || back.FocusSizes != cfg.FocusSizes || back.Rates != cfg.Rates {
		t.Fatalf("round trip failed: %+v %v", back, err)
	}

	def, err := ParseBanner("1/1/1/1")
	if err != nil || def.Rates != (banner.Rates{Focus: 3, Fivestar: 3}) {
		t.Fatalf("rates should default to 3/3: %+v %v", def, err)
	}

	for _, bad := range []string{"", "1/1/1", "a/b/c/d", "1/1/1/1 (3)", "1/1/1/1 (80, 9)", "-1/1/1/1"} {
		if _, err := ParseBanner(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		} else if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("banner parse errors should be warn: %v", err)
		}
	}
}

func TestSimSettingYAMLShorthand(t *testing.T) {
	raw := []byte(`
name: red
banner: "1/0/0/0 (3, 3)"
goal: red_focus:2
trials: 500
seed: 7
percentiles: [0.5, 0.9]
budgets: [100, 200]
`)
	s, err := GetSimSettingByYAML(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Trials != 500 || s.Seed == nil || *s.Seed != 7 || len(s.Percentiles) != 2 || len(s.Budgets) != 2 {
		t.Fatalf("unexpected setting %+v", s)
	}
	if s.BannerConfig().String() != "1/0/0/0 (3, 3)" {
		t.Fatalf("banner mismatch: %s", s.BannerConfig())
	}
	if s.TargetGoal().String() != "red_focus:2" {
		t.Fatalf("goal mismatch: %s", s.TargetGoal())
	}
	if !s.IsReady() {
		t.Fatalf("setting should be ready after decode")
	}
}

func TestSimSettingYAMLStructured(t *testing.T) {
	raw := []byte(`
name: bonus
banner:
  focus: [1, 1, 1, 1]
  preset: herofest
  bonus: blue
  fourstar_special: true
  focus_charges: true
  pity_policy: decay
  pool_version: 2
goal:
  kind: all
  parts:
    - {color: red, copies: 1}
    - {color: blue, copies: 2, bonus: true}
`)
	s, err := GetSimSettingByYAML(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cfg := s.BannerConfig()
	if cfg.Rates != (banner.Rates{Focus: 5, Fivestar: 3}) || cfg.Bonus == nil || *cfg.Bonus != banner.Blue {
		t.Fatalf("unexpected banner %+v", cfg)
	}
	if !cfg.FourstarSpecial || !cfg.FocusCharges || cfg.Pity != banner.PityDecay || cfg.PoolVersion != 2 {
		t.Fatalf("flags lost: %+v", cfg)
	}
	if s.Trials != DefaultTrials {
		t.Fatalf("trials should default to %d", DefaultTrials)
	}
	c := goal.AsCustom(s.TargetGoal(), cfg)
	if c.Kind != goal.All || len(c.Parts) != 2 || !c.Parts[1].Bonus {
		t.Fatalf("unexpected custom goal %+v", c)
	}
}

func TestSimSettingRejectsUnknownFields(t *testing.T) {
	cases := map[string]string{
		"top":    "name: x\nbanner: \"1/1/1/1\"\ngoal: any_focus\ntrails: 10\n",
		"banner": "name: x\nbanner: {focus: [1,1,1,1], bonnus: red}\ngoal: any_focus\n",
		"goal":   "name: x\ngoal: {preset: any_focus, cnt: 2}\n",
	}
	for name, raw := range cases {
		if _, err := GetSimSettingByYAML([]byte(raw)); err == nil {
			t.Fatalf("%s: expected unknown field error", name)
		}
	}
	if _, err := GetSimSettingByJSON([]byte(`{"name":"x","goal":"any_focus","extra":1}`)); err == nil {
		t.Fatalf("json: expected unknown field error")
	}
	if _, err := GetSimSettingByJSON([]byte(`{"name":"x","banner":{"focus":[1,1,1,1],"zzz":1},"goal":"any_focus"}`)); err == nil {
		t.Fatalf("json banner: expected unknown field error")
	}
}

func TestSimSettingJSON(t *testing.T) {
	s, err := GetSimSettingByJSON([]byte(`{"name":"j","banner":"0/2/0/0 (8, 0)","goal":{"preset":"blue_focus","count":1},"trials":10}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.BannerConfig().FocusSize(banner.Blue) != 2 || s.BannerConfig().Rates.Fivestar != 0 {
		t.Fatalf("unexpected banner %s", s.BannerConfig())
	}
	if _, err := GetSimSettingByExt("a.json", []byte(`{"name":"j","goal":"any_focus"}`)); err != nil {
		t.Fatalf("by ext: %v", err)
	}
	if _, err := GetSimSettingByExt("a.toml", nil); err == nil {
		t.Fatalf("expected unsupported format")
	}
}

func TestSimSettingUnsatisfiable(t *testing.T) {
	_, err := GetSimSettingByYAML([]byte("name: x\nbanner: \"1/0/0/0 (3, 3)\"\ngoal: green_focus:1\n"))
	if !errors.Is(err, errs.ErrUnsatisfiable) {
		t.Fatalf("expected ErrUnsatisfiable, got %v", err)
	}
}

func TestSimSettingInvalid(t *testing.T) {
	cases := []string{
		"name: x\ngoal: any_focus\ntrials: -1\n",
		"name: x\ngoal: any_focus\npercentiles: [1.5]\n",
		"name: x\ngoal: any_focus\nbudgets: [0]\n",
		"name: x\nbanner: {shorthand: \"1/1/1/1\", focus: [1,1,1,1]}\ngoal: any_focus\n",
		"name: x\nbanner: {shorthand: \"1/1/1/1 (3, 3)\", preset: normal}\ngoal: any_focus\n",
		"name: x\nbanner: {focus: [1,1,1]}\ngoal: any_focus\n",
		"name: x\nbanner: {preset: nope}\ngoal: any_focus\n",
		"name: x\n",
		"name: x\ngoal: {preset: any_focus, parts: [{color: red, copies: 1}]}\n",
		"",
	}
	for _, raw := range cases {
		_, err := GetSimSettingByYAML([]byte(raw))
		if err == nil {
			t.Fatalf("expected error for:\n%s", raw)
		}
		if errs.LevelOf(err) != errs.Warn {
			t.Fatalf("config errors should be warn level, got %v for:\n%s", err, raw)
		}
	}
}

func TestNewSimSettingRoundTrip(t *testing.T) {
	cfg := banner.DefaultConfig().WithBonus(banner.Green)
	s, err := NewSimSetting("rt", cfg, goal.FromPreset(goal.BonusFocus, 2))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	raw, err := s.YAML()
	if err != nil {
		t.Fatalf("yaml: %v", err)
	}
	back, err := GetSimSettingByYAML(raw)
	if err != nil {
		t.Fatalf("decode own output: %v\n%s", err, raw)
	}
	if back.BannerConfig().String() != cfg.String() || back.TargetGoal().String() != "bonus_focus:2" {
		t.Fatalf("round trip mismatch:\n%s", raw)
	}
	if b := back.BannerConfig().Bonus; b == nil || *b != banner.Green {
		t.Fatalf("bonus lost:\n%s", raw)
	}

	cc := s.Clone()
	cc.Budgets = append(cc.Budgets, 10)
	if len(s.Budgets) != 0 {
		t.Fatalf("clone shares budgets")
	}
	if !strings.Contains(string(raw), "pity_policy: reset") {
		t.Fatalf("pity policy should be written:\n%s", raw)
	}
}
