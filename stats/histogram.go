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

package stats

import (
	"slices"

	"github.com/zintix-labs/orblab/errs"
)

// Histogram 為 ResultHistogram：以花費（orbs）為索引的計數陣列。
//
// 花費值小且密集，直接用切片索引；Increment 自動擴充，讀取不存在的鍵回傳 0。
type Histogram struct {
	counts []uint64
	total  uint64
}

func NewHistogram() *Histogram {
	return &Histogram{counts: make([]uint64, 0, 512)}
}

// Increment 記錄一次結果 k。
func (h *Histogram) Increment(k int) {
	h.Add(k, 1)
}

// Add 記錄 n 次結果 k；k 為負數屬於呼叫端錯誤，直接 panic。
func (h *Histogram) Add(k int, n uint64) {
	if k < 0 {
		panic(errs.Fatalf("stats: negative histogram key %d", k))
	}
	if k >= len(h.counts) {
		old := len(h.counts)
		h.counts = slices.Grow(h.counts, k+1-old)[:k+1]
		clear(h.counts[old:])
	}
	h.counts[k] += n
	h.total += n
}

// Count 回傳結果 k 的次數。
func (h *Histogram) Count(k int) uint64 {
	if k < 0 || k >= len(h.counts) {
		return 0
	}
	return h.counts[k]
}

func (h *Histogram) Total() uint64 { return h.total }

func (h *Histogram) IsEmpty() bool { return h.total == 0 }

// Reset 清空計數，保留已配置的容量。
func (h *Histogram) Reset() {
	h.counts = h.counts[:0]
	h.total = 0
}

// Merge 把 o 的計數加進 h。
func (h *Histogram) Merge(o *Histogram) {
	for k, n := range o.counts {
		if n > 0 {
			h.Add(k, n)
		}
	}
}

// Clone 回傳獨立的副本。
func (h *Histogram) Clone() *Histogram {
	return &Histogram{counts: slices.Clone(h.counts), total: h.total}
}

// Each 依鍵值遞增順序走訪所有次數 > 0 的結果。
func (h *Histogram) Each(fn func(k int, n uint64)) {
	for k, n := range h.counts {
		if n > 0 {
			fn(k, n)
		}
	}
}

// Min 回傳最小的結果；空的 histogram 回傳 0。
func (h *Histogram) Min() int {
	for k, n := range h.counts {
		if n > 0 {
			return k
		}
	}
	return 0
}

// Max 回傳最大的結果；空的 histogram 回傳 0。
func (h *Histogram) Max() int {
	for k := len(h.counts) - 1; k >= 0; k-- {
		if h.counts[k] > 0 {
			return k
		}
	}
	return 0
}

// Mean 回傳平均花費。
func (h *Histogram) Mean() float64 {
	if h.total == 0 {
		return 0
	}
	sum := 0.0
	for k, n := range h.counts {
		sum += float64(k) * float64(n)
	}
	return sum / float64(h.total)
}

// Percentile 回傳累積比例第一次「大於」pct 的最小結果。
//
// 空的 histogram 回傳 0；pct 大於等於最大累積比例（例如 1.0）時回傳最大結果。
func (h *Histogram) Percentile(pct float64) int {
	if h.total == 0 {
		return 0
	}
	cum := uint64(0)
	for k, n := range h.counts {
		if n == 0 {
			continue
		}
		cum += n
		if float64(cum)/float64(h.total) > pct {
			return k
		}
	}
	return h.Max()
}

// Percentiles 一次線性掃描回答多個分位數查詢，結果與逐一呼叫 Percentile 相同。
//
// pcts 不需排序；內部以排序後的索引做多游標合併，結果依輸入順序回傳。
func (h *Histogram) Percentiles(pcts []float64) []int {
	out := make([]int, len(pcts))
	if h.total == 0 || len(pcts) == 0 {
		return out
	}
	order := make([]int, len(pcts))
	for i := range order {
		order[i] = i
	}
	if !slices.IsSorted(pcts) {
		slices.SortStableFunc(order, func(a, b int) int {
			switch {
			case pcts[a] < pcts[b]:
				return -1
			case pcts[a] > pcts[b]:
				return 1
			}
			return 0
		})
	}

	j := 0
	cum := uint64(0)
	for k, n := range h.counts {
		if n == 0 {
			continue
		}
		cum += n
		frac := float64(cum) / float64(h.total)
		for j < len(order) && frac > pcts[order[j]] {
			out[order[j]] = k
			j++
		}
		if j == len(order) {
			return out
		}
	}
	last := h.Max()
	for ; j < len(order); j++ {
		out[order[j]] = last
	}
	return out
}

// Rank 回傳第 r 小（1-based）的樣本值；r 超出範圍時夾到 [1, Total]。
func (h *Histogram) Rank(r uint64) int {
	if h.total == 0 {
		return 0
	}
	r = max(1, min(r, h.total))
	cum := uint64(0)
	for k, n := range h.counts {
		cum += n
		if cum >= r {
			return k
		}
	}
	return h.Max()
}

// CountAtMost 回傳結果 <= k 的次數。
func (h *Histogram) CountAtMost(k int) uint64 {
	if k < 0 {
		return 0
	}
	if k >= len(h.counts) {
		return h.total
	}
	cum := uint64(0)
	for _, n := range h.counts[:k+1] {
		cum += n
	}
	return cum
}

// points 回傳 (值, 權重) 兩個切片，供加權統計使用。
func (h *Histogram) points() (xs, ws []float64) {
	h.Each(func(k int, n uint64) {
		xs = append(xs, float64(k))
		ws = append(ws, float64(n))
	})
	return xs, ws
}
