package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/dto"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/sdk/core"
	"github.com/zintix-labs/orblab/server/httperr"
	"github.com/zintix-labs/orblab/server/svrcfg"
	"github.com/zintix-labs/orblab/spec"
	"github.com/zintix-labs/orblab/stats"
)

// poolWait 等待空閒槽位的額外時間；超過即回 504。
const poolWait = 2 * time.Second

type SimHandler struct {
	lab       *orblab.Orblab
	pool      *orblab.SimPool
	log       *slog.Logger
	maxBudget time.Duration
	maxTrials int
}

// NewSimHandler 需要已通過 Valid 的 SvrCfg。
func NewSimHandler(sCfg *svrcfg.SvrCfg) (*SimHandler, error) {
	if sCfg == nil || sCfg.Orblab == nil || sCfg.Pool == nil {
		return nil, errs.NewFatal("sim handler needs orblab and sim pool")
	}
	return &SimHandler{
		lab:       sCfg.Orblab,
		pool:      sCfg.Pool,
		log:       sCfg.Log,
		maxBudget: sCfg.MaxBudget,
		maxTrials: sCfg.MaxTrials,
	}, nil
}

// Sim 處理 GET|POST /v1/sim。
//
// 回應預設為 JSON（dto.SimResponse）；?format=yaml|table 時改輸出完整報告。
func (sh *SimHandler) Sim(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeSimRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	s, err := req.Resolve(sh.lab)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sh.run(w, r, s, req.MaxTrials)
}

// run 以 pool 執行模擬：時間預算夾到 MaxBudget，試驗數夾到 MaxTrials。
func (sh *SimHandler) run(w http.ResponseWriter, r *http.Request, s *spec.SimSetting, maxTrials int) {
	if s.Seed == nil {
		v := core.NewSeed()
		s.Seed = &v
	}
	budget := sh.maxBudget
	if s.BudgetMS > 0 {
		budget = min(budget, time.Duration(s.BudgetMS)*time.Millisecond)
	}
	trials := sh.maxTrials
	if maxTrials > 0 {
		trials = min(trials, maxTrials)
	}

	ctx, cancel := context.WithTimeout(r.Context(), budget+poolWait)
	defer cancel()
	rep, bs, err := sh.pool.Run(ctx, s, budget, trials)
	if err != nil {
		httperr.Log(sh.log, "simulation failed", err)
		httperr.Errs(w, err)
		return
	}

	if f := r.URL.Query().Get("format"); f != "" && f != "json" {
		render, ok := stats.RenderFor(f)
		if !ok {
			httperr.Errs(w, errs.Warnf("unknown format %q (json|yaml|table)", f))
			return
		}
		if f == "yaml" {
			w.Header().Set("Content-Type", "application/yaml")
		} else {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		}
		if err := rep.WriteWith(w, render); err != nil {
			sh.log.Error("write report", slog.Any("err", err))
		}
		return
	}

	resp, err := dto.NewSimResponse(rep, bs, s.Seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, resp)
}

// Scenarios 處理 GET /v1/scenarios。
func (sh *SimHandler) Scenarios(w http.ResponseWriter, r *http.Request) {
	sum, err := sh.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, dto.ScenarioList{Scenarios: sum})
}

// Presets 處理 GET /v1/presets。
func (sh *SimHandler) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, dto.NewPresets())
}

// Health 處理 GET /healthz；pool 關閉時回 503。
func (sh *SimHandler) Health(w http.ResponseWriter, r *http.Request) {
	m := sh.pool.Metrics()
	h := dto.Health{Status: "ok", Scenarios: len(sh.lab.Names()), Pool: m}
	if m.Closed {
		h.Status = "closed"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(h)
		return
	}
	writeJSON(w, h)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		httperr.Errs(w, errs.Wrap(err, "encode response"))
	}
}
