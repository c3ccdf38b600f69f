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

package spec

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"

	"github.com/zintix-labs/orblab/banner"
	"github.com/zintix-labs/orblab/errs"
	"gopkg.in/yaml.v3"
)

// BannerSetting 為設定檔中的卡池描述。
//
// 可以寫成簡寫字串 "r/b/g/c (focus, fivestar)"，或寫成結構：
//
//	banner:
//	  focus: [1, 1, 1, 1]
//	  preset: herofest
//	  bonus: red
//	  pity_policy: decay
//
// 機率優先序：rates > preset > 簡寫括號內的機率 > 3%/3%。
type BannerSetting struct {
	Shorthand       string            `yaml:"shorthand,omitempty"        json:"shorthand,omitempty"`
	Preset          string            `yaml:"preset,omitempty"           json:"preset,omitempty"`
	Focus           []int             `yaml:"focus,flow,omitempty"       json:"focus,omitempty"`
	Rates           *banner.Rates     `yaml:"rates,omitempty"            json:"rates,omitempty"`
	FocusCharges    bool              `yaml:"focus_charges,omitempty"    json:"focus_charges,omitempty"`
	Bonus           *banner.Color     `yaml:"bonus,omitempty"            json:"bonus,omitempty"`
	FourstarSpecial bool              `yaml:"fourstar_special,omitempty" json:"fourstar_special,omitempty"`
	Pity            banner.PityPolicy `yaml:"pity_policy"                json:"pity_policy"`
	PoolVersion     int               `yaml:"pool_version,omitempty"     json:"pool_version,omitempty"`
	PoolSizes       *banner.PoolSizes `yaml:"pool_sizes,omitempty"       json:"pool_sizes,omitempty"`
}

// bannerPlain 去掉自訂解碼，避免遞迴。
type bannerPlain BannerSetting

func (b *BannerSetting) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		*b = BannerSetting{Shorthand: n.Value}
		return nil
	}
	var p bannerPlain
	if err := DecodeStrict(n, &p); err != nil {
		return err
	}
	*b = BannerSetting(p)
	return nil
}

func (b *BannerSetting) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return errs.WrapWarn(err, "spec: banner shorthand must be a string")
		}
		*b = BannerSetting{Shorthand: s}
		return nil
	}
	var p bannerPlain
	if err := decodeJSON(data, &p); err != nil {
		return err
	}
	*b = BannerSetting(p)
	return nil
}

// BannerFromConfig 把卡池設定轉回結構化的設定檔描述。
func BannerFromConfig(cfg banner.Config) BannerSetting {
	r := cfg.Rates
	b := BannerSetting{
		Focus:           append([]int(nil), cfg.FocusSizes[:]...),
		Rates:           &r,
		FocusCharges:    cfg.FocusCharges,
		FourstarSpecial: cfg.FourstarSpecial,
		Pity:            cfg.Pity,
		PoolVersion:     cfg.PoolVersion,
	}
	if cfg.Bonus != nil {
		col := *cfg.Bonus
		b.Bonus = &col
	}
	if cfg.PoolSizes != nil {
		p := *cfg.PoolSizes
		b.PoolSizes = &p
	}
	return b
}

// Config 轉成 banner.Config。只做組裝與格式檢查，完整檢查交給 banner.Config.Validate。
func (b BannerSetting) Config() (banner.Config, error) {
	cfg := banner.DefaultConfig()
	cfg.PoolVersion = b.PoolVersion
	cfg.FocusCharges = b.FocusCharges
	cfg.FourstarSpecial = b.FourstarSpecial
	cfg.Pity = b.Pity

	switch {
	case b.Shorthand != "" && b.Focus != nil:
		return banner.Config{}, errs.NewWarn("spec: banner shorthand and focus are mutually exclusive")
	case b.Shorthand != "":
		sizes, rates, hasRates, err := parseShorthand(b.Shorthand)
		if err != nil {
			return banner.Config{}, err
		}
		if hasRates && (b.Preset != "" || b.Rates != nil) {
			return banner.Config{}, errs.Warnf("spec: banner %q already carries rates", b.Shorthand)
		}
		cfg.FocusSizes = sizes
		if hasRates {
			cfg.Rates = rates
		}
	case b.Focus != nil:
		if len(b.Focus) != banner.NumColors {
			return banner.Config{}, errs.Warnf("spec: focus needs %d sizes (r/b/g/c), got %d", banner.NumColors, len(b.Focus))
		}
		copy(cfg.FocusSizes[:], b.Focus)
	}

	if b.Preset != "" {
		p, ok := banner.PresetByName(b.Preset)
		if !ok {
			return banner.Config{}, errs.Warnf("spec: unknown rate preset %q", b.Preset)
		}
		cfg.Rates = p.Rates
	}
	if b.Rates != nil {
		cfg.Rates = *b.Rates
	}
	if b.Bonus != nil {
		cfg = cfg.WithBonus(*b.Bonus)
	}
	if b.PoolSizes != nil {
		p := *b.PoolSizes
		cfg.PoolSizes = &p
	}
	return cfg, nil
}

func (b BannerSetting) clone() BannerSetting {
	c := b
	c.Focus = append([]int(nil), b.Focus...)
	if b.Rates != nil {
		r := *b.Rates
		c.Rates = &r
	}
	if b.Bonus != nil {
		col := *b.Bonus
		c.Bonus = &col
	}
	if b.PoolSizes != nil {
		p := *b.PoolSizes
		c.PoolSizes = &p
	}
	return c
}

// ============================================================
// ** 簡寫 **
// ============================================================

var shorthandRe = regexp.MustCompile(`^\s*(\d+)\s*/\s*(\d+)\s*/\s*(\d+)\s*/\s*(\d+)\s*(?:\(\s*(\d+)\s*%?\s*,\s*(\d+)\s*%?\s*\))?\s*$`)

// ParseBanner 解析 "r/b/g/c (focus, fivestar)"，例如 "1/1/1/1 (3, 3)"。
// 括號可省略，省略時機率為 3%/3%。其餘欄位為 DefaultConfig 的預設值。
func ParseBanner(s string) (banner.Config, error) {
	sizes, rates, hasRates, err := parseShorthand(s)
	if err != nil {
		return banner.Config{}, err
	}
	cfg := banner.DefaultConfig()
	cfg.FocusSizes = sizes
	if hasRates {
		cfg.Rates = rates
	}
	return cfg, nil
}

// FormatBanner 回傳 ParseBanner 可讀回的簡寫。
func FormatBanner(cfg banner.Config) string {
	return cfg.String()
}

func parseShorthand(s string) ([banner.NumColors]int, banner.Rates, bool, error) {
	var sizes [banner.NumColors]int
	m := shorthandRe.FindStringSubmatch(s)
	if m == nil {
		return sizes, banner.Rates{}, false, errs.Warnf("spec: invalid banner %q, want \"r/b/g/c (focus, fivestar)\"", s)
	}
	for i := range sizes {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return sizes, banner.Rates{}, false, errs.Warnf("spec: invalid focus size %q", m[i+1])
		}
		sizes[i] = n
	}
	if m[5] == "" {
		return sizes, banner.Rates{}, false, nil
	}
	f, err1 := strconv.Atoi(m[5])
	g, err2 := strconv.Atoi(m[6])
	if err1 != nil || err2 != nil {
		return sizes, banner.Rates{}, false, errs.Warnf("spec: invalid rates in %q", s)
	}
	r := banner.Rates{Focus: f, Fivestar: g}
	if r.Total() > banner.RateCeiling {
		return sizes, banner.Rates{}, false, errs.Warnf("spec: rates %d%% + %d%% exceed ceiling %d%%", f, g, banner.RateCeiling)
	}
	return sizes, r, true, nil
}
