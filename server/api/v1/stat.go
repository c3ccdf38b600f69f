package v1

import (
	"net/http"

	"github.com/zintix-labs/orblab/dto"
	"github.com/zintix-labs/orblab/server/httperr"
)

// Stat 處理 POST /v1/stat：對上傳的花費樣本產生與模擬相同格式的報告。
func Stat(w http.ResponseWriter, r *http.Request) {
	req, err := dto.DecodeStatRequest(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	writeJSON(w, dto.NewStatReport(req))
}
