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

import (
	"strings"

	"github.com/zintix-labs/orblab/errs"
)

// Color 為角色顏色。跨元件只傳遞 Color 本身，陣列索引只在 Index() 取得。
type Color uint8

const (
	Red Color = iota
	Blue
	Green
	Colorless
)

// NumColors 為顏色數量，也是各池大小陣列的長度。
const NumColors = 4

// Colors 依 r/b/g/c 順序列出所有顏色。
var Colors = [NumColors]Color{Red, Blue, Green, Colorless}

// Index 回傳顏色在 r/b/g/c 陣列中的位置。
func (c Color) Index() int {
	switch c {
	case Red:
		return 0
	case Blue:
		return 1
	case Green:
		return 2
	case Colorless:
		return 3
	}
	panic(errs.Fatalf("banner: invalid color %d", uint8(c)))
}

func (c Color) Valid() bool {
	return c <= Colorless
}

func (c Color) String() string {
	switch c {
	case Red:
		return "red"
	case Blue:
		return "blue"
	case Green:
		return "green"
	case Colorless:
		return "colorless"
	}
	return "unknown"
}

// ParseColor 接受完整名稱或單字母縮寫（r/b/g/c），大小寫不拘。
func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "r":
		return Red, nil
	case "blue", "b":
		return Blue, nil
	case "green", "g":
		return Green, nil
	case "colorless", "c", "gray", "grey":
		return Colorless, nil
	}
	return 0, errs.Warnf("banner: unknown color %q", s)
}

func (c Color) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errs.Fatalf("banner: invalid color %d", uint8(c))
	}
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	v, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Tier 為卡池階層。
type Tier uint8

const (
	Focus           Tier = iota // 5★ 提升角色
	Fivestar                    // 一般 5★
	FourstarFocus               // 4★ 提升（指定 bonus 角色）
	FourstarSpecial             // 4★ 特別提供
	Fourstar                    // 一般 4★
	Threestar                   // 3★
)

const numTiers = 6

// IsTop 表示抽中後會觸發保底重置的最高階層。
func (t Tier) IsTop() bool {
	return t == Focus || t == Fivestar
}

func (t Tier) String() string {
	switch t {
	case Focus:
		return "focus"
	case Fivestar:
		return "fivestar"
	case FourstarFocus:
		return "fourstar_focus"
	case FourstarSpecial:
		return "fourstar_special"
	case Fourstar:
		return "fourstar"
	case Threestar:
		return "threestar"
	}
	return "unknown"
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// index 只在 Model 內部陣列存取時使用。
func (t Tier) index() int {
	switch t {
	case Focus:
		return 0
	case Fivestar:
		return 1
	case FourstarFocus:
		return 2
	case FourstarSpecial:
		return 3
	case Fourstar:
		return 4
	case Threestar:
		return 5
	}
	panic(errs.Fatalf("banner: invalid tier %d", uint8(t)))
}
