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

package api

import (
	"log/slog"

	v1 "github.com/zintix-labs/orblab/server/api/v1"
	"github.com/zintix-labs/orblab/server/netsvr"
	"github.com/zintix-labs/orblab/server/netsvr/middleware"
	"github.com/zintix-labs/orblab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與所有 API；sCfg 須已通過 Valid。
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	return registerV1API(svr, sCfg)   // 2. 註冊 healthz 與 v1 api
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Compression)
	svr.Use(middleware.Recover(log)) // 最內層：panic 的 500 也經過壓縮器輸出
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	s, err := v1.NewSimHandler(sCfg)
	if err != nil {
		return err
	}
	svr.Get("/healthz", s.Health)
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/sim", s.Sim)
		vOne.Get("/scenarios", s.Scenarios)
		vOne.Get("/presets", s.Presets)

		vOne.Post("/sim", s.Sim)
		vOne.Post("/simbycfg", s.SimByConfig)
		vOne.Post("/stat", v1.Stat)
	})
	return nil
}
