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
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/errs"
)

func TestDecodeSimRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/sim?scenario=normal&goal=red_focus:2&budget_ms=250&max_trials=5000&seed=7", nil)
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Scenario != "normal" || req.Goal != "red_focus:2" || req.BudgetMS != 250 || req.MaxTrials != 5000 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Seed == nil || *req.Seed != 7 {
		t.Fatalf("unexpected seed: %v", req.Seed)
	}

	r = httptest.NewRequest(http.MethodGet, "/v1/sim?seed=abc", nil)
	if _, err := DecodeSimRequest(r); errs.LevelOf(err) != errs.Warn {
		t.Fatalf("bad seed should be a warn, got %v", err)
	}
}

func TestDecodeSimRequestPOST(t *testing.T) {
	payload := map[string]any{
		"setting": map[string]any{
			"name":   "solo-red",
			"banner": "1/0/0/0 (3, 3)",
			"goal":   "red_focus:1",
		},
		"max_trials": 1000,
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/v1/sim", bytes.NewReader(data))
	req, err := DecodeSimRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := req.Resolve(nil)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Name != "solo-red" || s.BannerConfig().String() != "1/0/0/0 (3, 3)" || s.TargetGoal().String() != "red_focus:1" {
		t.Fatalf("unexpected setting %+v", s)
	}
}

func TestDecodeSimRequestRejectsUnknownFields(t *testing.T) {
	bodies := []string{
		`{"scenario":"normal","unknown":true}`,
		`{"setting":{"name":"x","banner":"1/1/1/1 (3, 3)","goal":"any_focus","color":"red"}}`,
		`{"scenario":"normal"} {"scenario":"normal"}`,
		``,
	}
	for _, b := range bodies {
		r := httptest.NewRequest(http.MethodPost, "/v1/sim", strings.NewReader(b))
		if _, err := DecodeSimRequest(r); err == nil {
			t.Fatalf("expected error for body %q", b)
		}
	}
	r := httptest.NewRequest(http.MethodDelete, "/v1/sim", nil)
	if _, err := DecodeSimRequest(r); err == nil {
		t.Fatalf("expected error for DELETE")
	}
}

func TestResolve(t *testing.T) {
	lab, err := orblab.Default()
	if err != nil {
		t.Fatalf("default lab: %v", err)
	}

	s, err := (&SimRequest{Scenario: "Normal", Goal: "red_focus:2"}).Resolve(lab)
	if err != nil {
		t.Fatalf("scenario override: %v", err)
	}
	if s.Name != "normal" || s.TargetGoal().String() != "red_focus:2" {
		t.Fatalf("override not applied: %s %s", s.Name, s.TargetGoal())
	}
	again, _ := lab.Setting("normal")
	if again.TargetGoal().String() != "any_focus:1" {
		t.Fatalf("override leaked into the catalog")
	}

	s, err = (&SimRequest{Goal: "any_focus"}).Resolve(lab)
	if err != nil || s.BannerConfig().String() != "1/1/1/1 (3, 3)" {
		t.Fatalf("ad-hoc default banner: %v", err)
	}

	_, err = (&SimRequest{Banner: "1/0/0/0 (3, 3)", Goal: "blue_focus"}).Resolve(lab)
	if !errors.Is(err, errs.ErrUnsatisfiable) {
		t.Fatalf("expected ErrUnsatisfiable, got %v", err)
	}

	bad := []*SimRequest{
		{},
		{Scenario: "missing"},
		{Scenario: "normal", Setting: again},
		{Setting: again, Goal: "any_focus"},
		{Goal: "any_focus", BudgetMS: -1},
		{Goal: "any_focus", Banner: "1/1/1/1 (50, 50)"},
	}
	for i, req := range bad {
		if _, err := req.Resolve(lab); errs.LevelOf(err) != errs.Warn {
			t.Fatalf("case %d should fail with warn, got %v", i, err)
		}
	}
}

func TestStatRequest(t *testing.T) {
	body := `{"name":"pulls","goal":"red_focus:1","costs":[5,9,20,37,37,120],"budgets":[40]}`
	r := httptest.NewRequest(http.MethodPost, "/v1/stat", strings.NewReader(body))
	req, err := DecodeStatRequest(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	rep := NewStatReport(req)
	if rep.Summary.Trials != 6 || rep.Summary.Min != 5 || rep.Summary.Max != 120 {
		t.Fatalf("unexpected summary %+v", rep.Summary)
	}
	if len(rep.Budgets) != 1 || rep.Budgets[0].Chance < 0.83 || rep.Budgets[0].Chance > 0.84 {
		t.Fatalf("5 of 6 samples are within 40 orbs: %+v", rep.Budgets)
	}

	bad := []string{
		`{"costs":[]}`,
		`{"costs":[3]}`,
		`{"costs":[5],"percentiles":[2]}`,
		`{"costs":[5,100000000]}`,
		`{"costs":[4611686018427387904]}`,
	}
	for _, b := range bad {
		r := httptest.NewRequest(http.MethodPost, "/v1/stat", strings.NewReader(b))
		if _, err := DecodeStatRequest(r); err == nil {
			t.Fatalf("expected error for %s", b)
		}
	}
	r = httptest.NewRequest(http.MethodPost, "/v1/stat", strings.NewReader(`{"costs":[1048576]}`))
	if _, err := DecodeStatRequest(r); err != nil {
		t.Fatalf("cost at the limit should pass: %v", err)
	}
}

func TestNewSimResponse(t *testing.T) {
	lab, _ := orblab.Default()
	sim, err := lab.NewSimulator("normal", orblab.WithSeed(3))
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	rep, _, err := sim.Run(500, false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	seed := int64(3)
	resp, err := NewSimResponse(rep, orblab.BatchStats{Trials: 500, Batches: 3, Elapsed: 12 * time.Millisecond}, &seed)
	if err != nil {
		t.Fatalf("response: %v", err)
	}
	if resp.Trials != 500 || resp.UsedTime != 12 || *resp.Seed != 3 || len(resp.Percentiles) != 5 {
		t.Fatalf("unexpected response %+v", resp)
	}
	if _, err := NewSimResponse(nil, orblab.BatchStats{}, nil); err == nil {
		t.Fatalf("nil report should fail")
	}
}
