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

package perf

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/orblab/errs"
)

// Dir 為 pprof 檔案寫入路徑。
var Dir = "build/profiling"

// Modes 列出支援的 profile 種類（"" 代表不開 profiling）。
var Modes = []string{"", "cpu", "heap", "allocs", "mutex", "block"}

// RunPProf 依 mode 包住 exe 執行；寫檔失敗只記 log，不影響 exe 的結果。
//
// Usage like:
//
//	go run ./cmd/run -p cpu
//	go tool pprof -http=:8080 build/profiling/cpu.pprof
func RunPProf(exe func(), mode string) {
	if err := Profile(exe, mode); err != nil {
		log.Println(err)
	}
}

// Profile 與 RunPProf 相同，但回傳寫檔錯誤。未知的 mode 直接執行 exe 並回 Warn。
func Profile(exe func(), mode string) error {
	switch mode {
	case "":
		exe()
		return nil
	case "cpu":
		return profileCPU(exe)
	case "heap":
		exe()
		// 盡量讓快照貼近最新狀態
		runtime.GC()
		return writeProfile("heap")
	case "allocs":
		exe()
		return writeProfile("allocs")
	case "mutex":
		prev := runtime.SetMutexProfileFraction(1)
		defer runtime.SetMutexProfileFraction(prev)
		exe()
		return writeProfile("mutex")
	case "block":
		runtime.SetBlockProfileRate(1)
		defer runtime.SetBlockProfileRate(0)
		exe()
		return writeProfile("block")
	}
	exe()
	return errs.Warnf("perf: unknown pprof mode %q", mode)
}

func create(name string) (*os.File, error) {
	if err := os.MkdirAll(Dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "perf: create profiling dir")
	}
	f, err := os.Create(filepath.Join(Dir, name+".pprof"))
	if err != nil {
		return nil, errs.Wrap(err, "perf: create "+name+".pprof")
	}
	return f, nil
}

// profileCPU 的輸出也可作為 PGO 的 default.pgo。
func profileCPU(exe func()) error {
	f, err := create("cpu")
	if err != nil {
		exe()
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		exe()
		return errs.Wrap(err, "perf: start cpu profile")
	}
	exe()
	pprof.StopCPUProfile()
	return nil
}

// writeProfile 寫出 runtime 內建的具名 profile（heap / allocs / mutex / block）。
func writeProfile(name string) error {
	prof := pprof.Lookup(name)
	if prof == nil {
		return errs.Warnf("perf: profile %q not found", name)
	}
	f, err := create(name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := prof.WriteTo(f, 0); err != nil {
		return errs.Wrap(err, "perf: write "+name+" profile")
	}
	return nil
}
