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
)

const (
	// SessionSize 每次召喚畫面固定出現的抽數。
	SessionSize = 5
	// MaxFocusCharges 累積到此數時，下一隻保留的一般 5★ 轉為提升角色。
	MaxFocusCharges = 3
	// DecayPerFivestar PityDecay 下每保留一隻一般 5★ 扣回的保底計數。
	DecayPerFivestar = 20
)

// sessionCost 為同一畫面保留 n 抽的總花費（orbs），越後面越便宜。
var sessionCost = [SessionSize + 1]int{0, 5, 9, 13, 17, 20}

// SessionCost 回傳一個畫面保留 kept 抽的花費。kept 超出 1..5 屬於內部錯誤，直接 panic。
func SessionCost(kept int) int {
	if kept < 1 || kept > SessionSize {
		panic(errs.Fatalf("orblab: session kept %d draws, want 1..%d", kept, SessionSize))
	}
	return sessionCost[kept]
}

// Draw 為畫面上的一抽。
type Draw struct {
	Tier  banner.Tier
	Color banner.Color
}

// SessionResult 為一個畫面的結算。
type SessionResult struct {
	// Kept 保留（付費）的抽數，恆為 1..5。
	Kept int
	// Reset 保留的抽數中是否有 5★（提升或一般）。
	Reset bool
	// FocusKept 保留的提升 5★ 數（含由提升保證轉換的）。
	FocusKept int
	// FivestarKept 保留的一般 5★ 數。
	FivestarKept int
	// Matched 推進目標的抽數。
	Matched int
}

// session 依序結算 d.draws：
// 顏色仍有未完成目標就保留；目標達成後剩下的抽數不再看。
// 一抽都沒保留時，從五抽中均勻挑一抽強制保留，該抽不推進目標。
func (d *Driver) session() SessionResult {
	var r SessionResult
	for i := range d.draws {
		if d.state.Satisfied() {
			break
		}
		dr := &d.draws[i]
		if !d.state.Relevant(dr.Color) {
			continue
		}
		r.Kept++
		d.keep(dr, &r, true)
	}
	if r.Kept == 0 {
		r.Kept = 1
		d.keep(&d.draws[d.core.IntN(SessionSize)], &r, false)
	}
	return r
}

// keep 結算一抽保留下來的效果；match 為 false 時只影響保底與提升保證。
func (d *Driver) keep(dr *Draw, r *SessionResult, match bool) {
	d.charge(dr)
	switch dr.Tier {
	case banner.Focus:
		r.FocusKept++
		r.Reset = true
		if match && d.state.MatchFocus(dr.Color, d.core.IntN(d.cfg.FocusSize(dr.Color))) {
			r.Matched++
		}
	case banner.Fivestar:
		r.FivestarKept++
		r.Reset = true
	case banner.FourstarFocus:
		if match && d.cfg.Bonus != nil && *d.cfg.Bonus == dr.Color && d.state.MatchBonus(dr.Color) {
			r.Matched++
		}
	}
}

// charge 處理提升保證：累積滿 MaxFocusCharges 後，有提升角色的顏色抽到一般 5★ 會轉為提升。
func (d *Driver) charge(dr *Draw) {
	if !d.cfg.FocusCharges || dr.Tier != banner.Fivestar {
		return
	}
	if d.charges >= MaxFocusCharges && d.cfg.FocusSize(dr.Color) > 0 {
		dr.Tier = banner.Focus
		d.charges = 0
		return
	}
	d.charges = min(d.charges+1, MaxFocusCharges)
}
