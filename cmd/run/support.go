package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/zintix-labs/orblab"
	"github.com/zintix-labs/orblab/dto"
	"github.com/zintix-labs/orblab/goal"
	"github.com/zintix-labs/orblab/sdk/core"
	"github.com/zintix-labs/orblab/server/logger"
	"github.com/zintix-labs/orblab/spec"
	"github.com/zintix-labs/orblab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	scenario  string
	file      string
	banner    string
	goal      string
	trials    int
	seed      int64
	budget    time.Duration
	worker    int
	format    string
	quiet     bool
	logmode   string
	pprofmode string
}

func bindVar() {
	// 綁定 Flag 到本地變數的指標 (&)
	flag.StringVar(&cfg.scenario, "scenario", "normal", "built-in scenario name (ignored when -config is set)")
	flag.StringVar(&cfg.file, "config", "", "sim setting file (.yaml/.yml/.json)")
	flag.StringVar(&cfg.banner, "banner", "", `banner override, e.g. "1/1/1/1 (3, 3)"`)
	flag.StringVar(&cfg.goal, "goal", "", "goal preset override, e.g. red_focus:2")
	flag.IntVar(&cfg.trials, "trials", 0, "number of trials (0 = setting default)")
	flag.Int64Var(&cfg.seed, "seed", -1, "int64 seed for random number generator")
	flag.DurationVar(&cfg.budget, "budget", 0, "wall-clock budget; > 0 switches to batch mode (trials becomes the cap)")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.StringVar(&cfg.format, "format", "table", "report format: table|yaml|json")
	flag.BoolVar(&cfg.quiet, "quiet", false, "hide progress bar")
	flag.StringVar(&cfg.logmode, "log", "silence", "summary log: dev|prod|silence")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	// given seed illeagel -> default seed
	if cfg.seed < 0 {
		cfg.seed = core.NewSeed()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() {
	cfg.valid() // 基本檢查

	setting, err := cfg.setting()
	if err != nil {
		log.Fatal(err)
	}
	mode, err := logger.ParseMode(cfg.logmode)
	if err != nil {
		log.Fatal(err)
	}
	render, ok := stats.RenderFor(cfg.format)
	if !ok {
		log.Fatalf("value err : unknown format %q", cfg.format)
	}
	s, err := orblab.NewSimulator(setting,
		orblab.WithSeed(cfg.seed),
		orblab.WithLogger(logger.NewWriterLogger(mode, os.Stderr)),
	)
	if err != nil {
		log.Fatal(err)
	}
	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	st := s.Setting()

	var rep *stats.Report
	switch {
	case cfg.budget > 0: // 限時批次
		p.Fprintf(os.Stderr, "%s[SCENARIO:%s] [BANNER:%s] [GOAL:%s] [BUDGET:%v] [SEED:%d]%s\n",
			green, st.Name, spec.FormatBanner(st.BannerConfig()), st.TargetGoal(), cfg.budget, cfg.seed, reset)
		var bs orblab.BatchStats
		rep, bs, err = s.RunFor(context.Background(), cfg.budget, cfg.trials)
		if err == nil {
			p.Fprintf(os.Stderr, "batches: %d  trials: %d\n", bs.Batches, bs.Trials)
		}
	case cfg.worker == 1: // 單線程
		p.Fprintf(os.Stderr, "%s[SCENARIO:%s] [BANNER:%s] [GOAL:%s] [TRIALS:%d] [SEED:%d]%s\n",
			green, st.Name, spec.FormatBanner(st.BannerConfig()), st.TargetGoal(), cfg.trialsOr(st), cfg.seed, reset)
		rep, _, err = s.Run(cfg.trials, !cfg.quiet)
	default: // 併發
		p.Fprintf(os.Stderr, "%s[WORKERS:%d] [SCENARIO:%s] [BANNER:%s] [GOAL:%s] [TRIALS:%d] [SEED:%d]%s\n",
			green, cfg.worker, st.Name, spec.FormatBanner(st.BannerConfig()), st.TargetGoal(), cfg.trialsOr(st), cfg.seed, reset)
		rep, _, err = s.RunMP(cfg.trials, cfg.worker, !cfg.quiet)
	}
	if err != nil {
		log.Fatal(err)
	}
	if err := rep.WriteWith(os.Stdout, render); err != nil {
		log.Fatal(err)
	}
}

// setting 讀取設定檔或內建情境，再套用 banner / goal 覆寫。
func (cfg *config) setting() (*spec.SimSetting, error) {
	if cfg.file == "" {
		lab, err := orblab.Default()
		if err != nil {
			return nil, err
		}
		req := &dto.SimRequest{Scenario: cfg.scenario, Banner: cfg.banner, Goal: cfg.goal}
		return req.Resolve(lab)
	}
	data, err := os.ReadFile(cfg.file)
	if err != nil {
		return nil, err
	}
	s, err := spec.GetSimSettingByExt(cfg.file, data)
	if err != nil {
		return nil, err
	}
	if cfg.banner != "" {
		bc, err := spec.ParseBanner(cfg.banner)
		if err != nil {
			return nil, err
		}
		s.Banner = spec.BannerFromConfig(bc)
	}
	if cfg.goal != "" {
		g, err := goal.Parse(cfg.goal)
		if err != nil {
			return nil, err
		}
		s.Goal = spec.GoalFromGoal(g)
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (cfg *config) trialsOr(s *spec.SimSetting) int {
	if cfg.trials > 0 {
		return cfg.trials
	}
	return s.Trials
}

func (cfg *config) valid() {
	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		log.Fatal("value err : workers must > 0")
	}
	// 試驗數檢查
	if cfg.trials < 0 {
		log.Fatal("value err : trials must >= 0")
	}
	if cfg.budget < 0 {
		log.Fatal("value err : budget must >= 0")
	}
}
