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

package errs

import (
	"errors"
	"fmt"
)

// ErrLevel : Error 分級，讓上層（CLI / HTTP）判斷要回報使用者還是中止。
type ErrLevel uint8

const (
	None ErrLevel = iota
	Fatal
	Warn
	Log
)

var errLvNames = [...]string{
	None:  "",
	Fatal: "fatal",
	Warn:  "warn",
	Log:   "log",
}

// String 回傳分級名稱，未知分級回傳空字串。
func (l ErrLevel) String() string {
	if int(l) < len(errLvNames) {
		return errLvNames[l]
	}
	return ""
}

// ErrUnsatisfiable 表示目標在指定卡池上不可能達成（例如要求池中不存在的顏色）。
// 以 errors.Is 判斷；由 Unsatisfiable 建立的 *E 會以它作為 Cause。
var ErrUnsatisfiable = errors.New("goal unsatisfiable")

// E 是統一的錯誤型別。
// Message 為主訊息；Extra 為呼叫端追加的上下文；Cause 串接下層錯誤。
type E struct {
	Message string
	Extra   string
	Cause   error
	ErrLv   ErrLevel
}

// Error 實作 error 介面。
func (e *E) Error() string {
	base := fmt.Sprintf("errlv=%s %s", e.ErrLv, e.Message)
	if e.Extra != "" {
		base += " | extra: " + e.Extra
	}
	if e.Cause != nil {
		base += fmt.Sprintf(" (cause: %v)", e.Cause)
	}
	return base
}

// Unwrap 讓 errors.Is / errors.As 能夠向下展開。
func (e *E) Unwrap() error { return e.Cause }

func New(errLv ErrLevel, msg string) *E {
	return &E{Message: msg, ErrLv: errLv}
}

func NewFatal(msg string) *E { return New(Fatal, msg) }

func NewWarn(msg string) *E { return New(Warn, msg) }

func NewLog(msg string) *E { return New(Log, msg) }

func Fatalf(format string, a ...any) *E { return NewFatal(fmt.Sprintf(format, a...)) }

func Warnf(format string, a ...any) *E { return NewWarn(fmt.Sprintf(format, a...)) }

// Unsatisfiable 建立一個 Warn 等級、Cause 為 ErrUnsatisfiable 的錯誤。
func Unsatisfiable(format string, a ...any) *E {
	e := Warnf(format, a...)
	e.Cause = ErrUnsatisfiable
	return e
}

// Wrap 以訊息包裝底層錯誤。
//
// ErrLevel 規則：
//   - cause 已經是 *E：沿用其 ErrLv。
//   - 其他錯誤（標準庫或三方依賴）：一律視為 Fatal。
//
// 已判斷為「可預期且可處理」的情境，請直接用 NewWarn / Warnf 建立，不要 Wrap。
func Wrap(cause error, msg string) *E {
	r := New(LevelOf(cause), msg)
	r.Cause = cause
	return r
}

// WrapWarn 以 Warn 等級包裝底層錯誤，用於已知是使用者輸入造成的失敗（例如設定檔格式錯誤）。
func WrapWarn(cause error, msg string) *E {
	r := New(Warn, msg)
	r.Cause = cause
	return r
}

// WrapWithExtra 與 Wrap 相同，另外附加上下文字串。
func WrapWithExtra(cause error, msg string, extra string) *E {
	r := Wrap(cause, msg)
	r.Extra = extra
	return r
}

// LevelOf 回傳錯誤鏈上第一個 *E 的分級；非本包錯誤視為 Fatal，nil 為 None。
func LevelOf(err error) ErrLevel {
	if err == nil {
		return None
	}
	if e, ok := AsErr(err); ok {
		return e.ErrLv
	}
	return Fatal
}

func AsErr(err error) (*E, bool) {
	var e *E
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
