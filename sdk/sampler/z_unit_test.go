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

package sampler

import (
	"math"
	"testing"

	"github.com/zintix-labs/orblab/sdk/core"
)

// assertPanic 驗證函數是否如預期觸發 panic
func assertPanic(t *testing.T, f func(), msg string) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("expected panic for %s, but got none", msg)
		}
	}()
	f()
}

// checkDistribution 驗證抽樣頻率與權重比例的差距在容忍範圍內
func checkDistribution(t *testing.T, name string, weights []float64, counts []int, tolerance float64) {
	t.Helper()
	totalW := 0.0
	for _, w := range weights {
		totalW += w
	}
	totalN := 0
	for _, n := range counts {
		totalN += n
	}
	for i, w := range weights {
		if w == 0 {
			if counts[i] > 0 {
				t.Errorf("[%s] index %d has weight 0 but was drawn %d times", name, i, counts[i])
			}
			continue
		}
		want := w / totalW
		got := float64(counts[i]) / float64(totalN)
		if math.Abs(want-got) > tolerance {
			t.Errorf("[%s] index %d: expected %.4f, got %.4f", name, i, want, got)
		}
	}
}

func TestWeightedConverges(t *testing.T) {
	cases := [][]float64{
		{3, 3, 58.28, 35.72},
		{5, 3, 2.5, 51.5, 38},
		{8, 1, 3, 3, 50, 35},
		{1, 1, 1, 1},
	}
	c := core.NewWithSeed(7)
	const n = 400_000
	for _, w := range cases {
		s, err := NewWeighted(w)
		if err != nil {
			t.Fatalf("new weighted %v: %v", w, err)
		}
		if s.Arity() != len(w) {
			t.Fatalf("arity mismatch: %d != %d", s.Arity(), len(w))
		}
		counts := make([]int, len(w))
		for i := 0; i < n; i++ {
			counts[s.Pick(c)]++
		}
		checkDistribution(t, "weighted", w, counts, 0.004)
	}
}

func TestWeightedZeroCategoriesNeverDrawn(t *testing.T) {
	cases := [][]float64{
		{0, 1, 0, 1},
		{1, 0, 0, 0},
		{0, 0, 0, 2},
		{0, 5, 0, 0, 5, 0},
		{2, 0, 3, 0, 0},
	}
	c := core.NewWithSeed(11)
	for _, w := range cases {
		s, err := NewWeighted(w)
		if err != nil {
			t.Fatalf("new weighted %v: %v", w, err)
		}
		counts := make([]int, len(w))
		for i := 0; i < 50_000; i++ {
			counts[s.Pick(c)]++
		}
		checkDistribution(t, "zeros", w, counts, 0.01)
	}
}

func TestWeightedBoundaries(t *testing.T) {
	s, err := NewWeighted4([4]float64{1, 1, 1, 1})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	checks := map[float64]int{0: 0, 0.2499: 0, 0.25: 1, 0.5: 2, 0.75: 3, math.Nextafter(1, 0): 3}
	for u, want := range checks {
		if got := s.Sample(u); got != want {
			t.Fatalf("Sample(%v) = %d, want %d", u, got, want)
		}
	}
	s6, _ := NewWeighted6([6]float64{1, 1, 1, 1, 1, 1})
	for i := 0; i < 6; i++ {
		u := (float64(i) + 0.5) / 6
		if got := s6.Sample(u); got != i {
			t.Fatalf("Weighted6.Sample(%v) = %d, want %d", u, got, i)
		}
	}
	s5, _ := NewWeighted5([5]float64{1, 1, 1, 1, 1})
	for i := 0; i < 5; i++ {
		u := (float64(i) + 0.5) / 5
		if got := s5.Sample(u); got != i {
			t.Fatalf("Weighted5.Sample(%v) = %d, want %d", u, got, i)
		}
	}
}

func TestWeightedRejectsDegenerate(t *testing.T) {
	bad := [][]float64{
		{0, 0, 0, 0},
		{1, -1, 1, 1},
		{1, math.NaN(), 1, 1},
		{1, math.Inf(1), 1, 1, 1},
		{1, 2, 3},
		{1, 2, 3, 4, 5, 6, 7},
	}
	for _, w := range bad {
		if _, err := NewWeighted(w); err == nil {
			t.Fatalf("expected error for %v", w)
		}
	}
	if _, err := NewWeighted([]int{0, 0, 0, 0, 0}); err == nil {
		t.Fatalf("expected error for all-zero integer weights")
	}
}

func TestLUT(t *testing.T) {
	lut, err := NewLUT([]int{3, 5, 0, 1})
	if err != nil {
		t.Fatalf("new lut: %v", err)
	}
	if len(lut) != 9 || lut.Weight(1) != 5 || lut.Weight(2) != 0 {
		t.Fatalf("unexpected lut %v", lut)
	}
	c := core.NewWithSeed(5)
	counts := make([]int, 4)
	for i := 0; i < 90_000; i++ {
		counts[lut.Pick(c)]++
	}
	checkDistribution(t, "lut", []float64{3, 5, 0, 1}, counts, 0.01)

	if _, err := NewLUT([]int{0, 0}); err == nil {
		t.Fatalf("expected error for zero lut")
	}
	if _, err := NewLUT([]int{1, -2}); err == nil {
		t.Fatalf("expected error for negative lut")
	}
	assertPanic(t, func() { BuildLUT([]int{0}) }, "BuildLUT zero")
	if LUT(nil).Pick(c) != -1 {
		t.Fatalf("empty lut should pick -1")
	}
}
