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

package svrcfg

import (
	"log/slog"
	"time"

	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/sdk/core"
	"github.com/zintix-labs/orblab/server/logger"
)

const (
	DefaultAddr      = ":5808"
	DefaultMaxBudget = 2 * time.Second
	DefaultMaxTrials = 1_000_000
	DefaultPoolSize  = 4
)

type SvrCfg struct {
	Log  *slog.Logger
	Addr string
	// MaxBudget 單次 /v1/sim 可使用的最長模擬時間；請求的 budget 會被夾到此值。
	MaxBudget time.Duration
	// MaxTrials 單次 /v1/sim 的試驗上限。
	MaxTrials int
	// PoolSize 同時進行的模擬數量上限。
	PoolSize int
	Orblab   *orblab.Orblab
	// Pool 未指定時由 Valid 依 PoolSize 建立。
	Pool *orblab.SimPool
}

func (sc *SvrCfg) Valid() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}
	if sc.Addr == "" {
		sc.Addr = DefaultAddr
	}
	if sc.MaxBudget <= 0 {
		sc.MaxBudget = DefaultMaxBudget
	}
	if sc.MaxTrials <= 0 {
		sc.MaxTrials = DefaultMaxTrials
	}

	// 1 <= PoolSize <= 64
	sc.PoolSize = max(1, sc.PoolSize)
	sc.PoolSize = min(64, sc.PoolSize)
	if sc.Orblab == nil {
		return errs.NewFatal("orblab is required")
	}
	if sc.Pool == nil {
		sc.Pool = orblab.NewSimPool(sc.PoolSize, core.NewSeed(), sc.Log)
	}
	return nil
}
