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

// Package sampler 提供模擬熱路徑上使用的加權抽樣器。
//
// 本檔案 (weighted.go) 實作固定分類數 (4 / 5 / 6) 的加權抽樣。
//
// 演算法原理：
//   - 建構時把權重正規化為累積比例 cum[i] = sum(w[0..i]) / total。
//   - 抽樣時以一個 [0,1) 均勻值 u 走過固定形狀的比較樹，找出第一個 u < cum[i] 的 i。
//
// 特性：
//   - 分類數在編譯期固定，不需要迴圈或二分搜尋，分支數為 ceil(log2(n))。
//   - 權重為 0 的分類永遠不會被抽中。
//   - 總權重為 0、負權重、NaN / Inf 在建構時直接回傳錯誤。
package sampler

import (
	"math"

	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/sdk/core"
)

// Weighted 是固定分類數加權抽樣器的共同介面。
type Weighted interface {
	// Sample 以 u ∈ [0,1) 回傳分類索引。
	Sample(u float64) int
	// Pick 從 Core 取一個 Float64 後呼叫 Sample。
	Pick(c *core.Core) int
	// Arity 回傳分類數。
	Arity() int
}

// NewWeighted 依權重長度選擇 Weighted4 / Weighted5 / Weighted6。
func NewWeighted[T Numbers](weights []T) (Weighted, error) {
	switch len(weights) {
	case 4:
		var w [4]float64
		for i, v := range weights {
			w[i] = float64(v)
		}
		return NewWeighted4(w)
	case 5:
		var w [5]float64
		for i, v := range weights {
			w[i] = float64(v)
		}
		return NewWeighted5(w)
	case 6:
		var w [6]float64
		for i, v := range weights {
			w[i] = float64(v)
		}
		return NewWeighted6(w)
	default:
		return nil, errs.Fatalf("sampler: unsupported arity %d (want 4, 5 or 6)", len(weights))
	}
}

// Weighted4 為四分類抽樣器，cum 只需保存前三個累積門檻。
type Weighted4 struct {
	cum [3]float64
}

func NewWeighted4(w [4]float64) (*Weighted4, error) {
	s := new(Weighted4)
	if err := cumulative(s.cum[:], w[:]); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Weighted4) Sample(u float64) int {
	if u < s.cum[1] {
		if u < s.cum[0] {
			return 0
		}
		return 1
	}
	if u < s.cum[2] {
		return 2
	}
	return 3
}

func (s *Weighted4) Pick(c *core.Core) int { return s.Sample(c.Float64()) }

func (s *Weighted4) Arity() int { return 4 }

// Weighted5 為五分類抽樣器。
type Weighted5 struct {
	cum [4]float64
}

func NewWeighted5(w [5]float64) (*Weighted5, error) {
	s := new(Weighted5)
	if err := cumulative(s.cum[:], w[:]); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Weighted5) Sample(u float64) int {
	if u < s.cum[1] {
		if u < s.cum[0] {
			return 0
		}
		return 1
	}
	if u < s.cum[2] {
		return 2
	}
	if u < s.cum[3] {
		return 3
	}
	return 4
}

func (s *Weighted5) Pick(c *core.Core) int { return s.Sample(c.Float64()) }

func (s *Weighted5) Arity() int { return 5 }

// Weighted6 為六分類抽樣器。
type Weighted6 struct {
	cum [5]float64
}

func NewWeighted6(w [6]float64) (*Weighted6, error) {
	s := new(Weighted6)
	if err := cumulative(s.cum[:], w[:]); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Weighted6) Sample(u float64) int {
	if u < s.cum[2] {
		if u < s.cum[0] {
			return 0
		}
		if u < s.cum[1] {
			return 1
		}
		return 2
	}
	if u < s.cum[3] {
		return 3
	}
	if u < s.cum[4] {
		return 4
	}
	return 5
}

func (s *Weighted6) Pick(c *core.Core) int { return s.Sample(c.Float64()) }

func (s *Weighted6) Arity() int { return 6 }

// cumulative 將 w 正規化為累積門檻寫入 dst（len(dst) == len(w)-1）。
//
// 從最後一個正權重開始的門檻一律設為 1，確保尾端權重為 0 的分類不會因浮點誤差被抽中。
func cumulative(dst []float64, w []float64) error {
	total := 0.0
	last := -1
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.Fatalf("sampler: invalid weight %v at index %d", v, i)
		}
		if v > 0 {
			last = i
		}
		total += v
	}
	if last < 0 {
		return errs.NewFatal("sampler: total weight is zero")
	}
	acc := 0.0
	for i := range dst {
		if i >= last {
			dst[i] = 1
			continue
		}
		acc += w[i]
		dst[i] = acc / total
	}
	return nil
}
