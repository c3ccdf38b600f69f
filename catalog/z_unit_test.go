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

package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/orblab/errs"
)

func mapFS(files map[string]string) fstest.MapFS {
	m := fstest.MapFS{}
	for k, v := range files {
		m[k] = &fstest.MapFile{Data: []byte(v)}
	}
	return m
}

func TestEmbeddedScenarios(t *testing.T) {
	c, err := New(Scenarios())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.RegisterAll(); err != nil {
		t.Fatalf("register all: %v", err)
	}
	c.Freeze()
	names := c.Names()
	want := []string{"herofest", "legendary", "normal"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
	sums, err := c.Summaries()
	if err != nil {
		t.Fatalf("summaries: %v", err)
	}
	if sums[2].Banner != "1/1/1/1 (3, 3)" || sums[2].Goal != "any_focus:1" {
		t.Fatalf("unexpected normal summary %+v", sums[2])
	}
	s, err := c.SettingByName(" Legendary ")
	if err != nil {
		t.Fatalf("setting: %v", err)
	}
	if s.BannerConfig().Rates.Fivestar != 0 || s.Trials != 50000 {
		t.Fatalf("unexpected legendary setting %+v", s)
	}
	if err := c.Register(Entry{Name: "x", ConfigName: "normal.yaml"}); err == nil {
		t.Fatalf("frozen catalog should reject register")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	src := mapFS(map[string]string{
		"a.yaml": "name: a\ngoal: any_focus\n",
		"b.yaml": "name: b\ngoal: any_focus\n",
	})
	c, err := New(src)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := c.Register(Entry{Name: "a", ConfigName: "a.yaml"}, Entry{Name: "A", ConfigName: "b.yaml"}); !errors.Is(err, ErrDupName) {
		t.Fatalf("expected dup name, got %v", err)
	}
	if len(c.Names()) != 0 {
		t.Fatalf("failed register must not write partially")
	}
	if err := c.Register(Entry{Name: "a", ConfigName: "a.yaml"}, Entry{Name: "b", ConfigName: "a.yaml"}); !errors.Is(err, ErrDupConfig) {
		t.Fatalf("expected dup config, got %v", err)
	}
	if err := c.Register(Entry{Name: "z", ConfigName: "missing.yaml"}); err == nil {
		t.Fatalf("expected missing config error")
	}
	if err := c.Register(Entry{Name: "z", ConfigName: "../a.yaml"}); err == nil {
		t.Fatalf("expected invalid filename error")
	}
	if _, err := c.Summaries(); err == nil {
		t.Fatalf("summaries need a frozen catalog")
	}
}

func TestRegisterAllFailFast(t *testing.T) {
	dup := mapFS(map[string]string{
		"a.yaml": "name: same\ngoal: any_focus\n",
		"b.json": `{"name":"SAME","goal":"any_focus"}`,
	})
	c, _ := New(dup)
	if err := c.RegisterAll(); err == nil {
		t.Fatalf("expected duplicate scenario name")
	}
	if len(c.Names()) != 0 {
		t.Fatalf("register all must be atomic")
	}

	bad := mapFS(map[string]string{
		"a.yaml": "name: a\ngoal: any_focus\n",
		"b.yaml": "name: b\ngoal: green_focus\nbanner: \"1/0/0/0 (3, 3)\"\n",
	})
	c, _ = New(bad)
	err := c.RegisterAll()
	if !errors.Is(err, errs.ErrUnsatisfiable) {
		t.Fatalf("expected unsatisfiable scenario to fail, got %v", err)
	}
}

func TestMultiFS(t *testing.T) {
	a := mapFS(map[string]string{"a.yaml": "name: a\ngoal: any_focus\n", "notes.txt": "x"})
	b := mapFS(map[string]string{"a.yaml": "name: b\ngoal: any_focus\n"})
	if _, err := New(a, b); err == nil {
		t.Fatalf("expected duplicate file across fs")
	}
	nested := fstest.MapFS{"sub/a.yaml": &fstest.MapFile{Data: []byte("name: a")}}
	if _, err := New(nested); err == nil {
		t.Fatalf("expected flat fs requirement")
	}
	if _, err := New(); err == nil {
		t.Fatalf("expected error without fs")
	}
	c, err := New(a)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if n := c.config.Names(); len(n) != 1 || n[0] != "a.yaml" {
		t.Fatalf("non-config files should be ignored: %v", n)
	}
}
