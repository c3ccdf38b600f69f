package main

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// lineFilter 決定一行輸出要不要印、用什麼顏色。回傳 false 代表略過。
type lineFilter func(line string) bool

// okFail 只留下 ok / FAIL 與編譯失敗的行（等同 grep -E '^(ok|FAIL)'）。
func okFail(line string) bool {
	switch {
	case strings.HasPrefix(line, "ok"):
		PrintGreen(line)
	case strings.HasPrefix(line, "FAIL"):
		PrintRed(line)
	case strings.Contains(line, "build failed") || strings.Contains(line, "setup failed"):
		PrintRed(line)
	default:
		return false
	}
	return true
}

// verbose 印出全部 log，略過沒有測試檔的套件。
func verbose(line string) bool {
	if strings.Contains(line, "[no test files]") {
		return false
	}
	if !okFail(line) {
		fmt.Println(line)
	}
	return true
}

func cleanTestCache() {
	if err := exec.Command("go", "clean", "-testcache").Run(); err != nil {
		PrintRed(fmt.Sprintf("go clean -testcache failed: %v", err))
	}
}

// stream 執行指令並把 stdout/stderr 合併後逐行交給 f。
func stream(f lineFilter, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	pipe, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return err
	}
	sc := bufio.NewScanner(pipe)
	for sc.Scan() {
		f(sc.Text())
	}
	if err := sc.Err(); err != nil {
		PrintRed(fmt.Sprintf("scanner error: %v", err))
	}
	return cmd.Wait()
}

// runTest: go clean -testcache && go test ./... -cover -count=1 | grep -E '^(ok|FAIL)'
func runTest() {
	PrintGreen("running tests")
	cleanTestCache()
	if err := stream(okFail, "go", "test", "./...", "-cover", "-count=1"); err != nil {
		PrintRed("\nTests Finished with Errors\n")
		os.Exit(1)
	}
}

// runTestRace 以 -race 跑全部測試；RunMP、SimPool 與 AsyncHandler 都有併發路徑。
func runTestRace() {
	PrintGreen("running tests (race)")
	cleanTestCache()
	if err := stream(okFail, "go", "test", "./...", "-race", "-count=1"); err != nil {
		PrintRed("\nTests (race) finished with errors\n")
		os.Exit(1)
	}
}

// runTestDetail: verbose 測試，過濾掉 "[no test files]"。
func runTestDetail() {
	PrintGreen("running tests (detail)")
	cleanTestCache()
	if err := stream(verbose, "go", "test", "./...", "-v", "-count=1"); err != nil {
		PrintRed("\nTests (detail) finished with errors\n")
		os.Exit(1)
	}
}
