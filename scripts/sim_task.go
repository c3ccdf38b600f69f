package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/zintix-labs/orblab"
)

// runSweep 對每個內建情境跑一次 cmd/run，額外參數（如 -trials 20000）原樣轉交。
func runSweep(args []string) {
	lab, err := orblab.Default()
	if err != nil {
		PrintRed(err.Error())
		os.Exit(1)
	}
	failed := 0
	for _, name := range lab.Names() {
		PrintBlue(fmt.Sprintf("== %s ==", name))
		cmdArgs := append([]string{"run", "./cmd/run", "-quiet", "-scenario", name}, args...)
		cmd := exec.Command("go", cmdArgs...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			PrintRed(fmt.Sprintf("%s failed: %v", name, err))
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

// runProfile 以 CPU profile 跑一次大量試驗，輸出到 build/profiling/cpu.pprof。
func runProfile(args []string) {
	PrintGreen("profiling cmd/run (cpu)")
	cmdArgs := append([]string{"run", "./cmd/run", "-quiet", "-p", "cpu", "-trials", "2000000"}, args...)
	cmd := exec.Command("go", cmdArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		PrintRed(fmt.Sprintf("profile failed: %v", err))
		os.Exit(1)
	}
	PrintYellow("go tool pprof -http=:8080 build/profiling/cpu.pprof")
}
