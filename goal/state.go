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

package goal

import (
	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
)

// State 追蹤單次試驗中尚未完成的目標（GoalState）。
//
// 每色保留 FocusSize 個角色槽位，非 bonus 目標依序佔用前幾個槽位，其餘槽位為 0。
// 抽到提升角色時由呼叫端均勻抽出槽位，命中剩餘數 > 0 的槽位才算消耗。
// bonus 目標另外保存，抽到 bonus 角色時固定消耗第一個未完成的 bonus 目標。
//
// State 只屬於一個 driver；Reset 重用內部切片，不重新配置記憶體。
type State struct {
	kind Kind

	units [banner.NumColors][]int
	bonus [banner.NumColors][]int

	initUnits [banner.NumColors][]int
	initBonus [banner.NumColors][]int

	relevant    [banner.NumColors]bool
	outstanding int
	satisfied   bool
}

// NewState 依展開後的目標建立狀態；目標不可達成時回傳錯誤。
func NewState(c Custom, b banner.Config) (*State, error) {
	if err := checkCustom(c, b); err != nil {
		return nil, err
	}
	s := &State{kind: c.Kind}
	var next [banner.NumColors]int
	for _, col := range banner.Colors {
		i := col.Index()
		s.initUnits[i] = make([]int, b.FocusSize(col))
	}
	for _, p := range c.Parts {
		i := p.Color.Index()
		if p.Bonus {
			s.initBonus[i] = append(s.initBonus[i], p.Copies)
			continue
		}
		s.initUnits[i][next[i]] = p.Copies
		next[i]++
	}
	for i := range s.units {
		s.units[i] = make([]int, len(s.initUnits[i]))
		s.bonus[i] = make([]int, len(s.initBonus[i]))
	}
	s.Reset()
	return s, nil
}

// Reset 還原到試驗開始時的目標。
func (s *State) Reset() {
	s.outstanding = 0
	s.satisfied = false
	for i := range s.units {
		copy(s.units[i], s.initUnits[i])
		copy(s.bonus[i], s.initBonus[i])
		for _, n := range s.units[i] {
			if n > 0 {
				s.outstanding++
			}
		}
		for _, n := range s.bonus[i] {
			if n > 0 {
				s.outstanding++
			}
		}
		s.relevant[i] = s.colorOutstanding(i)
	}
}

// Satisfied 回報目標是否已達成。
func (s *State) Satisfied() bool { return s.satisfied }

// Relevant 回報該色是否仍有未完成的目標。
func (s *State) Relevant(col banner.Color) bool {
	return s.relevant[col.Index()]
}

// Remaining 回傳該色所有未完成目標的剩餘隻數總和。
func (s *State) Remaining(col banner.Color) int {
	i := col.Index()
	n := 0
	for _, v := range s.units[i] {
		n += v
	}
	for _, v := range s.bonus[i] {
		n += v
	}
	return n
}

// Outstanding 回傳尚未完成的目標數。
func (s *State) Outstanding() int { return s.outstanding }

// MatchFocus 以提升角色槽位 unit 嘗試消耗一隻；命中未完成的目標回傳 true。
func (s *State) MatchFocus(col banner.Color, unit int) bool {
	i := col.Index()
	slots := s.units[i]
	if unit < 0 || unit >= len(slots) || slots[unit] == 0 {
		return false
	}
	slots[unit]--
	if slots[unit] == 0 {
		s.complete(i)
	}
	return true
}

// MatchBonus 消耗該色第一個未完成的 bonus 目標。
func (s *State) MatchBonus(col banner.Color) bool {
	i := col.Index()
	for j, n := range s.bonus[i] {
		if n == 0 {
			continue
		}
		s.bonus[i][j]--
		if s.bonus[i][j] == 0 {
			s.complete(i)
		}
		return true
	}
	return false
}

func (s *State) complete(i int) {
	if s.outstanding <= 0 {
		panic(errs.NewFatal("goal: completed a target with nothing outstanding"))
	}
	s.outstanding--
	if s.kind == Any || s.outstanding == 0 {
		s.finish()
		return
	}
	s.relevant[i] = s.colorOutstanding(i)
}

// finish 清除所有剩餘目標並標記達成。
func (s *State) finish() {
	for i := range s.units {
		clear(s.units[i])
		clear(s.bonus[i])
		s.relevant[i] = false
	}
	s.outstanding = 0
	s.satisfied = true
}

func (s *State) colorOutstanding(i int) bool {
	for _, n := range s.units[i] {
		if n > 0 {
			return true
		}
	}
	for _, n := range s.bonus[i] {
		if n > 0 {
			return true
		}
	}
	return false
}
