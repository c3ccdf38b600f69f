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
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/server/api"
	"github.com/zintix-labs/orblab/server/app"
	"github.com/zintix-labs/orblab/server/logger"
	"github.com/zintix-labs/orblab/server/netsvr"
	"github.com/zintix-labs/orblab/server/svrcfg"
)

// Run 是 server 套件的「組裝器（assembler）」與「啟動入口（runtime entry）」。
//
// 它負責：
//  1. 驗證輸入的 SvrCfg（包含 logger、Orblab、SimPool）。
//  2. 建立 HTTP server（netsvr），WriteTimeout 依 MaxBudget 放寬。
//  3. 註冊路由與 middleware（api.RegisterRoutes）。
//  4. 啟動 app.Run()，停止後關閉 SimPool 並 drain 非同步 log。
//
// Run 不綁定任何「檔案路徑」或「環境變數」策略；所有依賴都透過 SvrCfg 明確注入。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Valid(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	RunWithSvr(sCfg, netsvr.NewChiServer(sCfg.Addr, sCfg.MaxBudget))
}

// RunWithSvr 與 Run() 相同，但允許呼叫端注入自訂的 NetSvr
// （自己包裝的 adapter、額外的 listener 或 server option）。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Valid(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}

	// 註冊 Api
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}

	// 運行
	a := app.NewWith(svr)
	if s, ok := svr.(*netsvr.ChiAdapter); ok {
		sCfg.Log.Info("[orblab] listening on http://localhost"+s.Address(),
			slog.Duration("max_budget", sCfg.MaxBudget),
			slog.Int("max_trials", sCfg.MaxTrials),
			slog.Int("pool", sCfg.PoolSize),
		)
	} else {
		sCfg.Log.Info("[orblab] listening")
	}
	if err := a.Run(); err != nil && err != http.ErrServerClosed {
		sCfg.Log.Error("app stopped", slog.Any("err", err))
	}
	sCfg.Pool.Close()
	if ah, ok := sCfg.Log.Handler().(*logger.AsyncHandler); ok {
		ah.Close()
	}
}

// NewHandler 組出註冊好所有路由的 http.Handler，不啟動監聽（嵌入既有服務或 httptest 使用）。
func NewHandler(sCfg *svrcfg.SvrCfg) (http.Handler, error) {
	if err := sCfg.Valid(); err != nil {
		return nil, err
	}
	svr := netsvr.NewChiServer(sCfg.Addr, sCfg.MaxBudget)
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		return nil, err
	}
	return svr.Handler(), nil
}
