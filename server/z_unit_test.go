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

package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/dto"
	"github.com/zintix-labs/orblab/server/api"
	"github.com/zintix-labs/orblab/server/httperr"
	"github.com/zintix-labs/orblab/server/logger"
	"github.com/zintix-labs/orblab/server/netsvr"
	"github.com/zintix-labs/orblab/server/svrcfg"
)

func newTestServer(t *testing.T) (*httptest.Server, *svrcfg.SvrCfg) {
	t.Helper()
	lab, err := orblab.Default()
	if err != nil {
		t.Fatalf("default lab: %v", err)
	}
	cfg := &svrcfg.SvrCfg{
		Log:       logger.NewDefaultLogger(logger.ModeSilence),
		MaxBudget: 300 * time.Millisecond,
		MaxTrials: 2000,
		PoolSize:  2,
		Orblab:    lab,
	}
	h, err := NewHandler(cfg)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, cfg
}

func getJSON(t *testing.T, u string, out any) int {
	t.Helper()
	resp, err := http.Get(u)
	if err != nil {
		t.Fatalf("get %s: %v", u, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", u, err)
		}
	}
	return resp.StatusCode
}

func TestCatalogEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	var h dto.Health
	if code := getJSON(t, ts.URL+"/healthz", &h); code != 200 || h.Status != "ok" || h.Scenarios != 3 || h.Pool.PoolSize != 2 {
		t.Fatalf("healthz: %d %+v", code, h)
	}
	var list dto.ScenarioList
	if code := getJSON(t, ts.URL+"/v1/scenarios", &list); code != 200 || len(list.Scenarios) != 3 {
		t.Fatalf("scenarios: %d %+v", code, list)
	}
	var presets map[string]any
	if code := getJSON(t, ts.URL+"/v1/presets", &presets); code != 200 || presets["rate_ceiling"] != float64(88) {
		t.Fatalf("presets: %d %v", code, presets)
	}
	if goals, _ := presets["goals"].([]any); len(goals) != 7 || goals[0] != "any_focus" {
		t.Fatalf("goal presets: %v", presets["goals"])
	}
}

func TestSimEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	var resp dto.SimResponse
	code := getJSON(t, ts.URL+"/v1/sim?scenario=normal&max_trials=500&seed=9", &resp)
	if code != 200 {
		t.Fatalf("sim status %d", code)
	}
	if resp.Name != "normal" || resp.Trials == 0 || resp.Trials > 500 || resp.Seed == nil || *resp.Seed != 9 {
		t.Fatalf("unexpected sim response %+v", resp)
	}
	if len(resp.Percentiles) != 5 || resp.Min < 5 {
		t.Fatalf("unexpected percentiles %+v", resp.Percentiles)
	}

	q := url.Values{"banner": {"1/0/0/0 (3, 3)"}, "goal": {"blue_focus"}}
	if code := getJSON(t, ts.URL+"/v1/sim?"+q.Encode(), nil); code != http.StatusUnprocessableEntity {
		t.Fatalf("unsatisfiable goal should be 422, got %d", code)
	}
	if code := getJSON(t, ts.URL+"/v1/sim?scenario=nope", nil); code != http.StatusBadRequest {
		t.Fatalf("unknown scenario should be 400, got %d", code)
	}

	post, err := http.Post(ts.URL+"/v1/sim", "application/json", strings.NewReader(`{"scenario":"normal","trials":5}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown field should be 400, got %d", post.StatusCode)
	}
}

func TestSimReportFormats(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/v1/sim?scenario=normal&max_trials=300&format=yaml")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		n, err := resp.Body.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			break
		}
	}
	if resp.StatusCode != 200 || !strings.Contains(sb.String(), "percentiles:") {
		t.Fatalf("yaml report: %d\n%s", resp.StatusCode, sb.String())
	}
	if code := getJSON(t, ts.URL+"/v1/sim?scenario=normal&max_trials=10&format=xml", nil); code != 400 {
		t.Fatalf("unknown format should be 400, got %d", code)
	}
}

func TestSimByConfig(t *testing.T) {
	ts, _ := newTestServer(t)
	cfg := "name: solo\nbanner: \"1/0/0/0 (3, 3)\"\ngoal: red_focus:1\nseed: 4\n"
	resp, err := http.Post(ts.URL+"/v1/simbycfg?max_trials=400", "application/yaml", strings.NewReader(cfg))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var out dto.SimResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || resp.StatusCode != 200 {
		t.Fatalf("simbycfg: %d %v", resp.StatusCode, err)
	}
	if out.Name != "solo" || out.Trials == 0 || out.Trials > 400 || out.Banner != "1/0/0/0 (3, 3)" {
		t.Fatalf("unexpected response %+v", out)
	}

	bad, _ := http.Post(ts.URL+"/v1/simbycfg", "application/yaml", strings.NewReader("name: x\nreels: 5\n"))
	bad.Body.Close()
	if bad.StatusCode != 400 {
		t.Fatalf("unknown config field should be 400, got %d", bad.StatusCode)
	}
}

func TestStatEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/v1/stat", "application/json", strings.NewReader(`{"costs":[5,9,13,40,100]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var rep map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rep); err != nil || resp.StatusCode != 200 {
		t.Fatalf("stat: %d %v", resp.StatusCode, err)
	}
	sum, _ := rep["Summary"].(map[string]any)
	if sum["Trials"] != float64(5) || sum["Max"] != float64(100) {
		t.Fatalf("unexpected summary %v", sum)
	}
}

func TestCompressedAndClosedPool(t *testing.T) {
	ts, cfg := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/v1/scenarios", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	resp.Body.Close()
	if resp.Header.Get("Content-Encoding") != "gzip" || resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected gzip with request id, got %v", resp.Header)
	}

	cfg.Pool.Close()
	var h dto.Health
	if code := getJSON(t, ts.URL+"/healthz", &h); code != http.StatusServiceUnavailable || h.Status != "closed" {
		t.Fatalf("closed pool healthz: %d %+v", code, h)
	}
	if code := getJSON(t, ts.URL+"/v1/sim?scenario=normal&max_trials=10", nil); code != 500 {
		t.Fatalf("closed pool sim should be 500, got %d", code)
	}
}

func TestPanicBehindCompression(t *testing.T) {
	lab, err := orblab.Default()
	if err != nil {
		t.Fatalf("default lab: %v", err)
	}
	cfg := &svrcfg.SvrCfg{
		Log:       logger.NewDefaultLogger(logger.ModeSilence),
		MaxBudget: 300 * time.Millisecond,
		MaxTrials: 100,
		PoolSize:  1,
		Orblab:    lab,
	}
	if err := cfg.Valid(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	svr := netsvr.NewChiServer(cfg.Addr, cfg.MaxBudget)
	if err := api.RegisterRoutes(svr, cfg); err != nil {
		t.Fatalf("register: %v", err)
	}
	svr.Get("/boom", func(w http.ResponseWriter, r *http.Request) { panic("boom") })
	ts := httptest.NewServer(svr.Handler())
	t.Cleanup(ts.Close)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/boom", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("panic should be 500, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("expected gzip body, got %v", resp.Header)
	}
	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		t.Fatalf("gzip reader: %v", err)
	}
	var body httperr.Body
	if err := json.NewDecoder(zr).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != http.StatusInternalServerError || !strings.Contains(body.Error, "boom") {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestSimRejectsOversizedGoal(t *testing.T) {
	ts, _ := newTestServer(t)
	var body httperr.Body
	u := ts.URL + "/v1/sim?scenario=normal&goal=" + url.QueryEscape("red_focus:400000")
	if code := getJSON(t, u, &body); code != http.StatusUnprocessableEntity || body.Status != code {
		t.Fatalf("oversized goal: %d %+v", code, body)
	}
	resp, err := http.Post(ts.URL+"/v1/stat", "application/json", strings.NewReader(`{"costs":[4611686018427387904]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("oversized cost should be 400, got %d", resp.StatusCode)
	}
}
