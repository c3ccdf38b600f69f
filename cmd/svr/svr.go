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

package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/server"
	"github.com/zintix-labs/orblab/server/logger"
	"github.com/zintix-labs/orblab/server/svrcfg"
)

// orblab HTTP server 入口：內建情境目錄、非同步 log、固定大小的模擬池。
func main() {
	cfg, err := loadConfigFromFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	server.Run(cfg)
}

type config struct {
	LogMode   string
	Addr      string
	MaxBudget time.Duration
	MaxTrials int
	PoolSize  int
}

func loadConfigFromFlags() (*svrcfg.SvrCfg, error) {
	cfg := new(config)
	flag.StringVar(&cfg.LogMode, "log", "dev", "log mode: dev|prod|silence")
	flag.StringVar(&cfg.Addr, "addr", svrcfg.DefaultAddr, "listen address")
	flag.DurationVar(&cfg.MaxBudget, "budget", svrcfg.DefaultMaxBudget, "max wall-clock budget per simulation request")
	flag.IntVar(&cfg.MaxTrials, "max-trials", svrcfg.DefaultMaxTrials, "max trials per simulation request")
	flag.IntVar(&cfg.PoolSize, "pool", svrcfg.DefaultPoolSize, "number of concurrent simulations")

	flag.Parse()

	mode, err := logger.ParseMode(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	log, _ := logger.NewAsync(4096, mode)

	lab, err := orblab.Default()
	if err != nil {
		return nil, err
	}
	sCfg := &svrcfg.SvrCfg{
		Log:       log,
		Addr:      cfg.Addr,
		MaxBudget: cfg.MaxBudget,
		MaxTrials: cfg.MaxTrials,
		PoolSize:  cfg.PoolSize,
		Orblab:    lab,
	}
	return sCfg, nil
}
