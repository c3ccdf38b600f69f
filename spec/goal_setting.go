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
	"bytes"
	"encoding/json"

	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/goal"
	"gopkg.in/yaml.v3"
)

// GoalSetting 為設定檔中的目標描述。
//
// 簡寫 "red_focus:2" 等同 {preset: red_focus, count: 2}；
// 自訂目標寫 {kind: all, parts: [{color: red, copies: 1}, ...]}。
type GoalSetting struct {
	Preset string      `yaml:"preset,omitempty" json:"preset,omitempty"`
	Count  int         `yaml:"count,omitempty"  json:"count,omitempty"`
	Kind   goal.Kind   `yaml:"kind,omitempty"   json:"kind,omitempty"`
	Parts  []goal.Part `yaml:"parts,omitempty"  json:"parts,omitempty"`
}

type goalPlain GoalSetting

func (g *GoalSetting) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		return g.fromShorthand(n.Value)
	}
	var p goalPlain
	if err := DecodeStrict(n, &p); err != nil {
		return err
	}
	*g = GoalSetting(p)
	return nil
}

func (g *GoalSetting) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errs.WrapWarn(err, "spec: goal shorthand must be a string")
		}
		return g.fromShorthand(s)
	}
	var p goalPlain
	if err := decodeJSON(data, &p); err != nil {
		return err
	}
	*g = GoalSetting(p)
	return nil
}

func (g *GoalSetting) fromShorthand(s string) error {
	parsed, err := goal.Parse(s)
	if err != nil {
		return err
	}
	p, n, _ := parsed.Preset()
	*g = GoalSetting{Preset: p.String(), Count: n}
	return nil
}

// GoalFromGoal 把執行期目標轉回設定檔描述。
func GoalFromGoal(g goal.Goal) GoalSetting {
	if p, n, ok := g.Preset(); ok {
		return GoalSetting{Preset: p.String(), Count: n}
	}
	// 自訂目標展開時與卡池無關
	c := goal.AsCustom(g, banner.Config{})
	return GoalSetting{Kind: c.Kind, Parts: c.Parts}
}

// Goal 轉成 goal.Goal。未指定 count 的內建目標視為 1 隻。
func (g GoalSetting) Goal() (goal.Goal, error) {
	switch {
	case g.Preset != "" && len(g.Parts) > 0:
		return goal.Goal{}, errs.NewWarn("spec: goal preset and parts are mutually exclusive")
	case g.Preset != "":
		p, err := goal.ParsePreset(g.Preset)
		if err != nil {
			return goal.Goal{}, err
		}
		count := g.Count
		if count == 0 {
			count = 1
		}
		if count < 1 {
			return goal.Goal{}, errs.Warnf("spec: goal count must be positive, got %d", g.Count)
		}
		return goal.FromPreset(p, count), nil
	case len(g.Parts) > 0:
		if g.Count != 0 {
			return goal.Goal{}, errs.NewWarn("spec: count applies to preset goals only, set copies per part")
		}
		return goal.FromCustom(goal.Custom{Kind: g.Kind, Parts: g.Parts}), nil
	}
	return goal.Goal{}, errs.NewWarn("spec: goal required (preset or parts)")
}
