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

package banner

import "github.com/zintix-labs/orblab/errs"

// PoolSizes 為非提升階層的各色角色數（r/b/g/c）。
type PoolSizes struct {
	Fivestar  [NumColors]int `yaml:"fivestar" json:"fivestar"`
	Fourstar  [NumColors]int `yaml:"fourstar" json:"fourstar"`
	Threestar [NumColors]int `yaml:"threestar" json:"threestar"`
}

var poolTables = map[int]PoolSizes{
	1: {
		Fivestar:  [NumColors]int{41, 28, 21, 17},
		Fourstar:  [NumColors]int{32, 29, 20, 28},
		Threestar: [NumColors]int{28, 25, 18, 25},
	},
	2: {
		Fivestar:  [NumColors]int{56, 40, 30, 25},
		Fourstar:  [NumColors]int{35, 31, 23, 30},
		Threestar: [NumColors]int{30, 27, 20, 27},
	},
}

// PoolVersions 回傳內建池大小表的版本號。
func PoolVersions() []int {
	return []int{1, 2}
}

// Pools 回傳此設定實際使用的池大小。
func (c Config) Pools() (PoolSizes, error) {
	if c.PoolSizes != nil {
		return *c.PoolSizes, nil
	}
	v := c.PoolVersion
	if v == 0 {
		v = 1
	}
	p, ok := poolTables[v]
	if !ok {
		return PoolSizes{}, errs.Warnf("banner: unknown pool version %d", c.PoolVersion)
	}
	return p, nil
}

func (p PoolSizes) validate(c Config) error {
	rows := []struct {
		name     string
		row      [NumColors]int
		drawable bool
	}{
		{"fivestar", p.Fivestar, c.Rates.Fivestar > 0},
		{"fourstar", p.Fourstar, true},
		{"threestar", p.Threestar, true},
	}
	for _, r := range rows {
		total := 0
		for i, n := range r.row {
			if n < 0 {
				return errs.Warnf("banner: negative %s pool size at %s", r.name, Colors[i])
			}
			total += n
		}
		if r.drawable && total == 0 {
			return errs.Warnf("banner: %s pool is empty", r.name)
		}
	}
	return nil
}
