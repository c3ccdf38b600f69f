package v1

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/server/httperr"
	"github.com/zintix-labs/orblab/spec"
)

// maxCfgBody 設定檔 body 上限（1MiB）。
const maxCfgBody = 1 << 20

// SimByConfig 處理 POST /v1/simbycfg：body 直接是一份設定檔（YAML 或 JSON）。
//
// 格式依 Content-Type 判斷（含 yaml 為 YAML，其餘為 JSON）；max_trials 由 query 帶入。
func (sh *SimHandler) SimByConfig(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxCfgBody)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		httperr.Errs(w, errs.WrapWarn(err, "read config body"))
		return
	}
	if len(data) == 0 {
		httperr.Errs(w, errs.NewWarn("config body is empty"))
		return
	}

	maxTrials := 0
	if v := r.URL.Query().Get("max_trials"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			httperr.Errs(w, errs.Warnf("invalid max_trials %q", v))
			return
		}
		maxTrials = n
	}

	var s *spec.SimSetting
	if strings.Contains(strings.ToLower(r.Header.Get("Content-Type")), "yaml") {
		s, err = spec.GetSimSettingByYAML(data)
	} else {
		s, err = spec.GetSimSettingByJSON(data)
	}
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	sh.run(w, r, s, maxTrials)
}
