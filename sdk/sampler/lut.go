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

// Package sampler 的 lut.go 實作查找表 (Look-Up Table) 加權抽樣。
//
// 權重展開為一個長陣列，索引 i 出現 w[i] 次；抽樣只需一次 IntN。
// 顏色池的權重是小整數（各色角色數），總和通常在百位以內，適合 LUT。
package sampler

import (
	"math"

	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/sdk/core"
)

const maxLUTCap uint64 = 1_000_000

// LUT 為展開後的查找表。
//
// 舉例：各色角色數 [3,5,0,1] 展開為 [0,0,0,1,1,1,1,1,3]。
type LUT []int

// NewLUT 根據非負整數權重建立查找表；負權重、總和為 0 或超過上限回傳錯誤。
func NewLUT[T Integers](src []T) (LUT, error) {
	acc := uint64(0)
	for i, v := range src {
		if v < 0 {
			return nil, errs.Fatalf("lut: negative weight %d at index %d", int64(v), i)
		}
		uv := uint64(v)
		if acc > math.MaxUint64-uv {
			return nil, errs.NewFatal("lut: total weight overflows uint64")
		}
		acc += uv
	}
	if acc == 0 {
		return nil, errs.NewFatal("lut: all weights are zero")
	}
	if acc > maxLUTCap {
		return nil, errs.Fatalf("lut: total weight %d exceeds limit %d", acc, maxLUTCap)
	}

	lut := make(LUT, 0, int(acc))
	for i, v := range src {
		for j := T(0); j < v; j++ {
			lut = append(lut, i)
		}
	}
	return lut, nil
}

// BuildLUT 與 NewLUT 相同，但權重不合法時 panic；用於常數表。
func BuildLUT[T Integers](src []T) LUT {
	lut, err := NewLUT(src)
	if err != nil {
		panic(err)
	}
	return lut
}

// Pick 透過 Core 的 RNG 取一個索引；lut 為空回傳 -1。
func (l LUT) Pick(c *core.Core) int {
	return c.Pick(l)
}

// Weight 回傳索引 i 在表中的次數。
func (l LUT) Weight(i int) int {
	n := 0
	for _, v := range l {
		if v == i {
			n++
		}
	}
	return n
}
