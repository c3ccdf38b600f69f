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

package orblab

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/spec"
	"github.com/zintix-labs/orblab/stats"
)

// SimPool 限制同時進行的模擬數量，供 HTTP 等對外服務使用。
//
// pool 內放的是「執行槽位」，每個槽位帶一個可重用的 histogram；
// Run 借出槽位、建立該次請求專屬的 Simulator，結束後歸還。
// 模擬期間 panic 或回傳 Fatal 錯誤時，該槽位的緩衝視為不可信，換一個新的再歸還。
type SimPool struct {
	pool        chan *simSlot
	done        chan struct{}
	closeOnce   sync.Once
	poolsize    int
	seedMaker   *seedMaker
	log         *slog.Logger
	rebuild     atomic.Int32 // 重建槽位次數
	inflight    atomic.Int32 // 使用中
	served      atomic.Int64 // 成功完成的模擬數
	panics      atomic.Int32
	fatals      atomic.Int32
	closeReason atomic.Value // string: 關閉原因
}

type simSlot struct {
	hist *stats.Histogram
}

// NewSimPool 建立 n 個槽位的 SimPool（至少 1）。未指定 seed 的請求由 seed 推導。
func NewSimPool(n int, seed int64, log *slog.Logger) *SimPool {
	n = max(1, n)
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	p := &SimPool{
		pool:      make(chan *simSlot, n),
		done:      make(chan struct{}),
		poolsize:  n,
		seedMaker: newSeedMaker(seed),
		log:       log,
	}
	p.closeReason.Store("")
	for i := 0; i < n; i++ {
		p.pool <- &simSlot{hist: stats.NewHistogram()}
	}
	return p
}

// Close 進入關閉狀態，之後所有 Run 直接回錯誤。可重複呼叫。
func (p *SimPool) Close() {
	p.closeWithReason("closed")
}

// Closed 回報池是否已進入關閉狀態。
func (p *SimPool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// closeWithReason 進入關閉狀態並記錄原因（reason 只會被寫入一次）。
func (p *SimPool) closeWithReason(reason string) {
	p.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		p.closeReason.Store(reason)
		close(p.done)
	})
}

// isFatalErr 判斷錯誤是否代表「槽位狀態不可信」。取消與逾時屬於請求本身，不算。
func isFatalErr(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if e, ok := errs.AsErr(err); ok {
		return e.ErrLv == errs.Fatal
	}
	return false
}

// Run 在 budget 內執行一次模擬（maxTrials > 0 時另設上限）。
// 設定檔有 seed 時使用該 seed，否則由 pool 推導。
func (p *SimPool) Run(ctx context.Context, setting *spec.SimSetting, budget time.Duration, maxTrials int) (rep *stats.Report, bs BatchStats, err error) {
	if setting == nil {
		return nil, bs, errs.NewFatal("orblab: nil sim setting")
	}
	if p.Closed() {
		return nil, bs, errs.NewFatal("sim pool closed: " + p.ClosedReason())
	}
	var sl *simSlot
	select {
	case <-p.done:
		return nil, bs, errs.NewFatal("sim pool closed: " + p.ClosedReason())
	case <-ctx.Done():
		return nil, bs, ctx.Err()
	case sl = <-p.pool:
		p.inflight.Add(1)
	}

	defer func() {
		p.inflight.Add(-1)
		broken := false
		if r := recover(); r != nil {
			p.panics.Add(1)
			broken = true
			rep = nil
			err = errs.NewFatal(fmt.Sprintf("simulation %s panic : %v", setting.Name, r))
		} else if isFatalErr(err) {
			p.fatals.Add(1)
			broken = true
		}
		if broken {
			sl = &simSlot{hist: stats.NewHistogram()}
			p.rebuild.Add(1)
			p.log.Error("simulation failed", slog.String("name", setting.Name), slog.Any("err", err))
		}
		select {
		case <-p.done:
		case p.pool <- sl:
		}
	}()

	opts := []SimOption{withHistogram(sl.hist), WithLogger(p.log)}
	if setting.Seed == nil {
		opts = append(opts, WithSeed(p.seedMaker.next()))
	}
	sim, err := NewSimulator(setting, opts...)
	if err != nil {
		return nil, bs, err
	}
	rep, bs, err = sim.RunFor(ctx, budget, maxTrials)
	if err == nil {
		p.served.Add(1)
	}
	return rep, bs, err
}

func (p *SimPool) PoolSize() int { return p.poolsize }

func (p *SimPool) Inflight() int { return int(p.inflight.Load()) }

func (p *SimPool) ClosedReason() string {
	if v := p.closeReason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// PoolMetrics 是拉取式（pull）的觀測快照；Available 來自 len(chan)，高併發下為近似值。
type PoolMetrics struct {
	PoolSize    int    `json:"pool_size"`
	Available   int    `json:"available"`
	Inflight    int    `json:"inflight"`
	Served      int64  `json:"served"`
	Rebuild     int    `json:"rebuild"`
	Panics      int    `json:"panics"`
	Fatals      int    `json:"fatals"`
	Closed      bool   `json:"closed"`
	CloseReason string `json:"close_reason"`
}

// Metrics 回傳當下的觀測快照。
func (p *SimPool) Metrics() PoolMetrics {
	return PoolMetrics{
		PoolSize:    p.poolsize,
		Available:   len(p.pool),
		Inflight:    int(p.inflight.Load()),
		Served:      p.served.Load(),
		Rebuild:     int(p.rebuild.Load()),
		Panics:      int(p.panics.Load()),
		Fatals:      int(p.fatals.Load()),
		Closed:      p.Closed(),
		CloseReason: p.ClosedReason(),
	}
}
