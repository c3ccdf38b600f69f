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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/goal"
	"github.com/zintix-labs/orblab/spec"
)

// maxBody POST body 上限（1MiB）。
const maxBody = 1 << 20

// SimRequest 為 /v1/sim 的請求。
//
// 設定來源三選一：
//   - scenario：目錄內的情境名稱，可再以 banner / goal 覆寫。
//   - setting：完整的設定物件（格式同設定檔），不可與 scenario 同時出現。
//   - 都沒有：以 banner（預設 1/1/1/1 (3, 3)）與 goal 臨時組出設定，goal 必填。
type SimRequest struct {
	Scenario  string           `json:"scenario,omitempty"`
	Banner    string           `json:"banner,omitempty"` // "r/b/g/c (f, g)" 簡寫
	Goal      string           `json:"goal,omitempty"`   // "preset" 或 "preset:count"
	Setting   *spec.SimSetting `json:"setting,omitempty"`
	BudgetMS  int              `json:"budget_ms,omitempty"`
	MaxTrials int              `json:"max_trials,omitempty"`
	Seed      *int64           `json:"seed,omitempty"`
}

// DecodeSimRequest 會把 HTTP 請求解碼成 SimRequest。
//
// 支援：
//   - GET：從 query string 讀取 scenario/banner/goal/budget_ms/max_trials/seed。
//     setting 這類巢狀物件請用 POST。
//   - POST：從 JSON body 反序列化。
//
// 注意：
//   - 這裡只負責解碼與型別轉換；情境是否存在、目標能否達成由 Resolve 決定。
//   - POST 對 body 做大小限制（1MiB），並開啟 DisallowUnknownFields()，未知欄位直接拒絕。
func DecodeSimRequest(r *http.Request) (*SimRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(SimRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Scenario = q.Get("scenario")
		req.Banner = q.Get("banner")
		req.Goal = q.Get("goal")

		if s := q.Get("budget_ms"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid budget_ms: %v", err))
			}
			req.BudgetMS = v
		}

		if s := q.Get("max_trials"); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid max_trials: %v", err))
			}
			req.MaxTrials = v
		}

		if s := q.Get("seed"); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid seed: %v", err))
			}
			req.Seed = &v
		}
		return req, nil

	case http.MethodPost:
		if err := decodeJSONBody(r.Body, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

func decodeJSONBody(body io.Reader, out any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return errs.NewWarn("empty request body")
		}
		return errs.WrapWarn(err, "invalid json")
	}
	if dec.More() {
		return errs.NewWarn("invalid json: trailing data after request object")
	}
	return nil
}

// Validate 檢查與來源無關的欄位。
func (sr *SimRequest) Validate() error {
	if sr.BudgetMS < 0 {
		return errs.Warnf("budget_ms must be >= 0, got %d", sr.BudgetMS)
	}
	if sr.MaxTrials < 0 {
		return errs.Warnf("max_trials must be >= 0, got %d", sr.MaxTrials)
	}
	if sr.Seed != nil && *sr.Seed < 0 {
		return errs.Warnf("seed must be >= 0, got %d", *sr.Seed)
	}
	if sr.Setting != nil && sr.Scenario != "" {
		return errs.NewWarn("scenario and setting are mutually exclusive")
	}
	if sr.Setting != nil && (sr.Banner != "" || sr.Goal != "") {
		return errs.NewWarn("banner/goal overrides only apply to scenario or ad-hoc requests")
	}
	return nil
}

// Resolve 依請求組出已 Init 的設定；回傳的設定為新副本。
func (sr *SimRequest) Resolve(lab *orblab.Orblab) (*spec.SimSetting, error) {
	if err := sr.Validate(); err != nil {
		return nil, err
	}
	var s *spec.SimSetting
	switch {
	case sr.Setting != nil:
		s = sr.Setting.Clone()
	case sr.Scenario != "":
		if lab == nil {
			return nil, errs.NewFatal("scenario lookup needs a catalog")
		}
		got, err := lab.Setting(sr.Scenario)
		if err != nil {
			return nil, errs.WrapWarn(err, "unknown scenario "+strconv.Quote(sr.Scenario))
		}
		s = got
	default:
		if sr.Goal == "" {
			return nil, errs.NewWarn("goal is required without scenario or setting")
		}
		s = &spec.SimSetting{Name: "custom"}
	}

	if sr.Banner != "" {
		cfg, err := spec.ParseBanner(sr.Banner)
		if err != nil {
			return nil, err
		}
		s.Banner = spec.BannerFromConfig(cfg)
	}
	if sr.Goal != "" {
		g, err := goal.Parse(sr.Goal)
		if err != nil {
			return nil, err
		}
		s.Goal = spec.GoalFromGoal(g)
	}
	if sr.Seed != nil {
		v := *sr.Seed
		s.Seed = &v
	}
	if sr.BudgetMS > 0 {
		s.BudgetMS = sr.BudgetMS
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// StatRequest 為 /v1/stat 的請求：對外部收集的花費樣本（例如實際抽卡紀錄）產生同格式報告。
type StatRequest struct {
	Name        string    `json:"name,omitempty"`
	Banner      string    `json:"banner,omitempty"`
	Goal        string    `json:"goal,omitempty"`
	Costs       []int     `json:"costs"`
	Percentiles []float64 `json:"percentiles,omitempty"`
	Budgets     []int     `json:"budgets,omitempty"`
}

const (
	// maxStatSamples 單次 /v1/stat 可上傳的樣本數上限。
	maxStatSamples = 100_000
	// maxStatCost 單一樣本花費上限；histogram 依花費建 dense 陣列。
	maxStatCost = 1 << 20
)

// DecodeStatRequest 只接受 POST JSON。
func DecodeStatRequest(r *http.Request) (*StatRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}
	if r.Method != http.MethodPost {
		return nil, errs.NewWarn("method not allowed")
	}
	req := new(StatRequest)
	if err := decodeJSONBody(r.Body, req); err != nil {
		return nil, err
	}
	if len(req.Costs) == 0 {
		return nil, errs.NewWarn("costs must not be empty")
	}
	if len(req.Costs) > maxStatSamples {
		return nil, errs.Warnf("at most %d costs per request, got %d", maxStatSamples, len(req.Costs))
	}
	for i, c := range req.Costs {
		if c < orblab.SessionCost(1) {
			return nil, errs.Warnf("costs[%d] = %d is below one session", i, c)
		}
		if c > maxStatCost {
			return nil, errs.Warnf("costs[%d] = %d exceeds %d orbs", i, c, maxStatCost)
		}
	}
	for _, p := range req.Percentiles {
		if p < 0 || p > 1 {
			return nil, errs.Warnf("percentile %v out of [0, 1]", p)
		}
	}
	return req, nil
}
