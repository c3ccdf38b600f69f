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

// Package orblab 提供抽卡花費模擬引擎的組裝入口（assembler）與模擬入口。
//
// 一次試驗（trial）反覆進行五抽一組的召喚畫面（session）：
// 每一抽先依保底等級抽階層，再抽顏色；仍與目標相關的顏色才保留並付費，
// 目標達成時把總花費（orbs）記入 histogram，分位數即為產出。
//
// Orblab 持有一份情境目錄（Catalog），設定檔來源一律以 fs.FS 注入；
// 預設使用內建的 catalog.Scenarios()。
package orblab

import (
	"io/fs"
	"sync"

	"github.com/zintix-labs/orblab/catalog"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/spec"
)

// Configs 把一或多個設定檔來源打包成 New() 需要的參數。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Orblab 是組裝器：把情境目錄與模擬入口接在一起。
//
// 使用流程分兩階段：
//   - 註冊階段：建立 catalog、註冊情境、檢查重複與缺漏。
//   - 執行階段：Freeze 之後依名稱取得設定並建立 Simulator。
type Orblab struct {
	cat *catalog.Catalog
	mu  sync.Mutex
	sum []catalog.Summary
}

// New 建立 Orblab；cfgs 至少一個。
func New(cfgs []fs.FS) (*Orblab, error) {
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Orblab{cat: cata}, nil
}

// NewAuto 建立 Orblab、註冊所有設定檔並直接進入執行階段。
func NewAuto(cfgs []fs.FS) (*Orblab, error) {
	lab, err := New(cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

// Default 以內建情境建立已凍結的 Orblab。
func Default() (*Orblab, error) {
	return NewAuto(Configs(catalog.Scenarios()))
}

func (o *Orblab) Register(ents ...catalog.Entry) error {
	return o.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔並以檔內 name 註冊（fail-fast、原子寫入）。
func (o *Orblab) RegisterAll() error {
	return o.cat.RegisterAll()
}

func (o *Orblab) Freeze() {
	o.cat.Freeze()
}

func (o *Orblab) EntryByName(name string) (catalog.Entry, bool) {
	return o.cat.GetByName(name)
}

func (o *Orblab) Names() []string {
	return o.cat.Names()
}

func (o *Orblab) All() []catalog.Entry {
	return o.cat.List()
}

// Summary 回傳情境摘要；結果在第一次計算後快取。
func (o *Orblab) Summary() ([]catalog.Summary, error) {
	if !o.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sum != nil {
		return o.sum, nil
	}
	sum, err := o.cat.Summaries()
	if err != nil {
		return nil, err
	}
	o.sum = sum
	return o.sum, nil
}

// Setting 依情境名稱取得設定的新副本，呼叫端可自由修改。
func (o *Orblab) Setting(name string) (*spec.SimSetting, error) {
	if !o.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	return o.cat.SettingByName(name)
}

// NewSimulator 依情境名稱建立 Simulator。
func (o *Orblab) NewSimulator(name string, opts ...SimOption) (*Simulator, error) {
	s, err := o.Setting(name)
	if err != nil {
		return nil, err
	}
	return NewSimulator(s, opts...)
}
