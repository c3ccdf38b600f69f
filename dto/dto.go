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

package dto

import (
	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/catalog"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/goal"
	"github.com/zintix-labs/orblab/stats"
)

// SimResponse 為 /v1/sim 的回應。
type SimResponse struct {
	Name        string                 `json:"name"`
	Banner      string                 `json:"banner"`
	Goal        string                 `json:"goal"`
	Seed        *int64                 `json:"seed,omitempty"` // 帶回 seed 即可重現同一批試驗
	Trials      uint64                 `json:"trials"`
	Batches     int                    `json:"batches"`
	Mean        float64                `json:"mean"`
	MeanCI      stats.CI               `json:"mean_ci"`
	Std         float64                `json:"std"`
	Min         int                    `json:"min"`
	Max         int                    `json:"max"`
	Percentiles []stats.PercentileStat `json:"percentiles"`
	Budgets     []stats.BudgetStat     `json:"budgets,omitempty"`
	Dist        *stats.DistReport      `json:"dist,omitempty"`
	UsedTime    int64                  `json:"used_ms"`
}

// NewSimResponse 把報告與批次統計轉成回應。
func NewSimResponse(rep *stats.Report, bs orblab.BatchStats, seed *int64) (SimResponse, error) {
	if rep == nil {
		return SimResponse{}, errs.NewFatal("sim report is nil")
	}
	rep.Done()
	s := rep.Summary
	resp := SimResponse{
		Name:        s.Name,
		Banner:      s.Banner,
		Goal:        s.Goal,
		Trials:      s.Trials,
		Batches:     bs.Batches,
		Mean:        s.Mean,
		MeanCI:      s.MeanCI,
		Std:         s.Std,
		Min:         s.Min,
		Max:         s.Max,
		Percentiles: rep.Percentiles,
		Budgets:     rep.Budgets,
		Dist:        rep.Dist,
		UsedTime:    bs.Elapsed.Milliseconds(),
	}
	if seed != nil {
		v := *seed
		resp.Seed = &v
	}
	return resp, nil
}

// NewStatReport 以上傳的花費樣本建立報告。
func NewStatReport(req *StatRequest) *stats.Report {
	h := stats.NewHistogram()
	for _, c := range req.Costs {
		h.Increment(c)
	}
	return stats.NewReport(h, stats.ReportOptions{
		Name:        req.Name,
		Banner:      req.Banner,
		Goal:        req.Goal,
		Percentiles: req.Percentiles,
		Budgets:     req.Budgets,
	}).Done()
}

// ScenarioList 為 /v1/scenarios 的回應。
type ScenarioList struct {
	Scenarios []catalog.Summary `json:"scenarios"`
}

// Presets 為 /v1/presets 的回應：可用的機率組合、目標、保底策略與非提升池版本。
type Presets struct {
	Rates        []banner.RatePreset `json:"rates"`
	Goals        []goal.Preset       `json:"goals"`
	PityPolicies []banner.PityPolicy `json:"pity_policies"`
	PoolVersions []int               `json:"pool_versions"`
	RateCeiling  int                 `json:"rate_ceiling"`
}

func NewPresets() Presets {
	return Presets{
		Rates:        banner.Presets(),
		Goals:        goal.Presets(),
		PityPolicies: []banner.PityPolicy{banner.PityReset, banner.PityDecay},
		PoolVersions: banner.PoolVersions(),
		RateCeiling:  banner.RateCeiling,
	}
}

// Health 為 /healthz 的回應。
type Health struct {
	Status    string             `json:"status"`
	Scenarios int                `json:"scenarios"`
	Pool      orblab.PoolMetrics `json:"pool"`
}
