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
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 內部統計函數 **
// ============================================================

// meanStd 以 (花費, 次數) 加權計算平均與樣本標準差。
func meanStd(h *Histogram) (float64, float64) {
	if h.Total() == 0 {
		return 0, 0
	}
	xs, ws := h.points()
	if h.Total() < 2 {
		return xs[0], 0
	}
	mean, std := stat.MeanStdDev(xs, ws)
	if math.IsNaN(std) {
		std = 0
	}
	return mean, std
}

// meanCI 以常態近似計算平均花費的信賴區間。
func meanCI(mean, std float64, n uint64, confidence float64) CI {
	if n < 2 {
		return CI{Lo: mean, Hi: mean}
	}
	z := distuv.UnitNormal.Quantile(1 - (1-confidence)/2)
	se := std / math.Sqrt(float64(n))
	return CI{Lo: max(mean-z*se, 0), Hi: mean + z*se}
}

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k, n uint64, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// quantileCI 估計第 q 分位的上下界。
//
// 把順序統計量的秩視為二項，以 Beta 分位反推 p 的範圍，再把 p 轉回秩並查 histogram。
func quantileCI(h *Histogram, q, confidence float64) (int, int) {
	n := h.Total()
	if n < 2 {
		v := h.Percentile(q)
		return v, v
	}
	alpha := 1 - confidence
	k := uint64(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	lo := uint64(pLo * float64(n))
	hi := uint64(pHi * float64(n))
	return h.Rank(lo + 1), h.Rank(hi)
}
