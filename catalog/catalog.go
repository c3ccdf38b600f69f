package catalog

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/zintix-labs/orblab/errs"
	"github.com/zintix-labs/orblab/spec"
)

var (
	ErrDupName   = errs.NewFatal("duplicate scenario name")
	ErrDupConfig = errs.NewFatal("duplicate scenario config")
)

// Entry 為一筆情境：名稱與對應的設定檔名。
type Entry struct {
	Name       string
	ConfigName string
}

// Summary 為情境列表的對外摘要。
type Summary struct {
	Name   string `json:"name"   yaml:"name"`
	Banner string `json:"banner" yaml:"banner"`
	Goal   string `json:"goal"   yaml:"goal"`
	Trials int    `json:"trials" yaml:"trials"`
	Config string `json:"config" yaml:"config"`
}

// Catalog 為情境目錄：名稱 -> 設定檔，設定檔來源一律為 fs.FS。
// Freeze 之後不再接受註冊，可安全地在多個 goroutine 間唯讀共用。
type Catalog struct {
	byName map[string]Entry
	names  []string            // 用來穩定排序
	unique map[string]struct{} // 一組情境，檔名需唯一
	config *multiFS
	frozen bool
}

func New(cfg ...fs.FS) (*Catalog, error) {
	multFS, err := newMultiFS(cfg...)
	if err != nil {
		return nil, errs.Wrap(err, "can not create catalog")
	}
	return &Catalog{
		byName: map[string]Entry{},
		names:  make([]string, 0, 16),
		unique: map[string]struct{}{},
		config: multFS,
		frozen: false,
	}, nil
}

// Register 一次註冊多筆情境；任何一筆不合法就整批不寫入。
func (c *Catalog) Register(metas ...Entry) error {
	if c.frozen {
		return errs.NewWarn("can not register when catalog already frozen")
	}
	seenName := map[string]struct{}{}
	seenCfg := map[string]struct{}{}
	for i := range metas {
		meta := &metas[i]
		meta.Name = normName(meta.Name)
		if meta.Name == "" {
			return errs.NewFatal("scenario name required")
		}
		if err := validFileName(meta.ConfigName); err != nil {
			return err
		}
		if _, ok := c.config.index[meta.ConfigName]; !ok {
			return errs.NewFatal(fmt.Sprintf("config file not found: %s", meta.ConfigName))
		}
		if _, ok := c.byName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := seenName[meta.Name]; ok {
			return ErrDupName
		}
		if _, ok := c.unique[meta.ConfigName]; ok {
			return ErrDupConfig
		}
		if _, ok := seenCfg[meta.ConfigName]; ok {
			return ErrDupConfig
		}
		seenName[meta.Name] = struct{}{}
		seenCfg[meta.ConfigName] = struct{}{}
	}
	for _, meta := range metas {
		c.unique[meta.ConfigName] = struct{}{}
		c.byName[meta.Name] = meta
		c.names = append(c.names, meta.Name)
	}
	sort.Strings(c.names)
	return nil
}

// RegisterAll
//
// 會掃描持有的設定檔來源，把所有 .yaml/.yml/.json 解析成 *spec.SimSetting，
// 並以設定檔內的 name 註冊。
//
//  1. Fail-fast：任何一個檔案讀取/解析/檢查失敗，立刻回傳 error。
//  2. 原子性：全部檔案都成功才呼叫 Register 一次性寫入，不會出現半完成的目錄。
//  3. 依檔名排序處理，行為可重現。
func (c *Catalog) RegisterAll() error {
	files := c.config.Names()
	if len(files) == 0 {
		return errs.NewFatal("no config files found to register")
	}
	entries := make([]Entry, 0, len(files))
	seen := map[string]string{}
	for _, base := range files {
		s, err := c.parse(base)
		if err != nil {
			return errs.WrapWithExtra(err, "parse sim setting failed", base)
		}
		name := normName(s.Name)
		if name == "" {
			return errs.NewFatal(fmt.Sprintf("scenario name required: %s", base))
		}
		if prev, ok := seen[name]; ok {
			return errs.NewFatal(fmt.Sprintf("duplicate scenario name: %s (config=%s and %s)", name, prev, base))
		}
		if _, ok := c.GetByName(name); ok {
			return errs.NewFatal(fmt.Sprintf("scenario already registered: %s (config=%s)", name, base))
		}
		seen[name] = base
		entries = append(entries, Entry{Name: name, ConfigName: base})
	}
	return c.Register(entries...)
}

func (c *Catalog) GetByName(name string) (Entry, bool) {
	m, ok := c.byName[normName(name)]
	return m, ok
}

// Names 回傳排序後的情境名稱。
func (c *Catalog) Names() []string {
	if len(c.names) == 0 {
		return nil
	}
	return append([]string(nil), c.names...)
}

// List 依名稱排序回傳所有情境。
func (c *Catalog) List() []Entry {
	m := make([]Entry, 0, len(c.names))
	for _, n := range c.names {
		m = append(m, c.byName[n])
	}
	return m
}

func (c *Catalog) Freeze() {
	c.frozen = true
}

func (c *Catalog) IsFrozen() bool {
	return c.frozen
}

// SettingByName
//
// 會讀取 fs 中的 YAML/JSON 設定、初始化並執行檢查後回傳；每次呼叫都回傳新的副本。
func (c *Catalog) SettingByName(name string) (*spec.SimSetting, error) {
	e, ok := c.GetByName(name)
	if !ok {
		return nil, errs.Warnf("scenario %q does not exist in catalog", name)
	}
	return c.parse(e.ConfigName)
}

// Summaries 回傳所有情境的摘要；須先 Freeze。
func (c *Catalog) Summaries() ([]Summary, error) {
	if !c.frozen {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	out := make([]Summary, 0, len(c.names))
	for _, e := range c.List() {
		s, err := c.parse(e.ConfigName)
		if err != nil {
			return nil, errs.Wrap(err, "parse sim setting failed")
		}
		out = append(out, Summary{
			Name:   e.Name,
			Banner: spec.FormatBanner(s.BannerConfig()),
			Goal:   s.TargetGoal().String(),
			Trials: s.Trials,
			Config: e.ConfigName,
		})
	}
	return out, nil
}

func (c *Catalog) parse(file string) (*spec.SimSetting, error) {
	src, ok := c.config.GetFS(file)
	if !ok {
		return nil, errs.Warnf("file name %q does not exist in catalog", file)
	}
	raw, err := fs.ReadFile(src, file)
	if err != nil {
		return nil, errs.Wrap(err, "catalog read file error")
	}
	return spec.GetSimSettingByExt(file, raw)
}

func normName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func validFileName(file string) error {
	if file == "" {
		return errs.NewFatal("empty config filename")
	}
	// 1) 不能包含路徑或類似字元
	if strings.ContainsAny(file, `/\:`) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must be a basename; no / \\\\ :) ", file))
	}
	// 2) 必須以 .yaml/.yml/.json 結尾（大小寫不敏感）
	if !isConfigFile(file) {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (must end with .yaml, .yml, or .json)", file))
	}
	// 3) 不能以 . 開頭（防止直接 .yaml / .yml）
	if strings.HasPrefix(file, ".") {
		return errs.NewFatal(fmt.Sprintf("invalid config filename: %q (cannot start with '.')", file))
	}
	return nil
}

func isConfigFile(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml") || strings.HasSuffix(lower, ".json")
}

// multiFS 合併多個扁平的設定檔來源，檔名在所有來源間必須唯一。
type multiFS struct {
	src   []fs.FS
	index map[string]int // name -> src index
}

func newMultiFS(src ...fs.FS) (*multiFS, error) {
	if len(src) == 0 {
		return nil, errs.NewFatal("no fs provided")
	}
	for i, s := range src {
		if s == nil {
			return nil, errs.NewFatal(fmt.Sprintf("fs[%d] is nil", i))
		}
	}

	m := &multiFS{
		src:   src,
		index: make(map[string]int, 64),
	}

	for i := 0; i < len(src); i++ {
		err := fs.WalkDir(src[i], ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				// 只允許根目錄，任何子目錄都違反扁平目錄的約定。
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("config FS must be flat (no subdirectories): %q", path))
			}
			if strings.HasPrefix(path, ".") || !isConfigFile(path) {
				return nil
			}
			if prev, ok := m.index[path]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate config %q in fs[%d] and fs[%d]", path, prev, i))
			}
			m.index[path] = i
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *multiFS) GetFS(name string) (fs.FS, bool) {
	if id, ok := m.index[name]; ok {
		return m.src[id], ok
	}
	return nil, false
}

// Names 回傳排序後的設定檔名。
func (m *multiFS) Names() []string {
	out := make([]string, 0, len(m.index))
	for n := range m.index {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
