package catalog

import (
	"embed"
	"io/fs"

	"github.com/zintix-labs/orblab/errs"
)

//go:embed scenarios/*.yaml
var scenarioFS embed.FS

// Scenarios 回傳內建的情境設定檔（normal / herofest / legendary）。
func Scenarios() fs.FS {
	sub, err := fs.Sub(scenarioFS, "scenarios")
	if err != nil {
		panic(errs.Fatalf("catalog: embedded scenarios: %v", err))
	}
	return sub
}
