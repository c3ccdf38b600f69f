package spec

import (
	"path/filepath"
	"strings"

	"github.com/zintix-labs/orblab/errs"
)

// GetSimSettingByYAML
// 會嚴格讀取 YAML 設定（未知欄位即失敗）、初始化並執行檢查後回傳
func GetSimSettingByYAML(data []byte) (*SimSetting, error) {
	s := &SimSetting{}
	if err := decodeYAML(data, s); err != nil {
		return nil, errs.Wrap(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := s.Init(); err != nil {
		return nil, errs.Wrap(err, "sim setting initialized err")
	}

	return s, nil
}

// GetSimSettingByJSON
// 會嚴格讀取 Json 設定（未知欄位即失敗）、初始化並執行檢查後回傳
func GetSimSettingByJSON(data []byte) (*SimSetting, error) {
	s := &SimSetting{}
	if err := decodeJSON(data, s); err != nil {
		return nil, errs.Wrap(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := s.Init(); err != nil {
		return nil, errs.Wrap(err, "sim setting initialized err")
	}

	return s, nil
}

// GetSimSettingByExt 依副檔名（.yaml/.yml/.json）選擇解析方式。
func GetSimSettingByExt(filename string, data []byte) (*SimSetting, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return GetSimSettingByYAML(data)
	case ".json":
		return GetSimSettingByJSON(data)
	}
	return nil, errs.Warnf("unsupported config format: %q", filename)
}
