package stats

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

type ReportRender interface {
	Write(w io.Writer, r *Report) error
}

// Json渲染
type JsonReportRender struct{}

func (jr *JsonReportRender) Write(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAML渲染
type YAMLReportRender struct{}

func (yr *YAMLReportRender) Write(w io.Writer, r *Report) error {
	// 只有「最內層的一維陣列」輸出成 flow style：[..., ...]，結構陣列維持展開
	return forceReadableList(w, r)
}

// 表格渲染（終端機）
type TableReportRender struct{}

func (tr *TableReportRender) Write(w io.Writer, r *Report) error {
	keys, msg := r.fmtBasic()
	title := r.Summary.Name
	if title == "" {
		title = "orblab"
	}
	_, err := io.WriteString(w, fmtTable(title, keys, msg))
	return err
}

// RenderFor 依格式名稱（table / yaml / json）回傳渲染器。
func RenderFor(format string) (ReportRender, bool) {
	switch format {
	case "", "table":
		return &TableReportRender{}, true
	case "yaml", "yml":
		return &YAMLReportRender{}, true
	case "json":
		return &JsonReportRender{}, true
	}
	return nil, false
}

// YAML 內層方法
func forceReadableList[T any](w io.Writer, t *T) error {
	var node yaml.Node
	if err := node.Encode(t); err != nil {
		return err
	}
	styleReadableSequences(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(&node)
}

// styleReadableSequences 把「元素全是純量」的 sequence 改成 flow style；
// 元素是 mapping 或 sequence 的外層維持 block 展開。
func styleReadableSequences(n *yaml.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case yaml.DocumentNode, yaml.MappingNode:
		for _, c := range n.Content {
			styleReadableSequences(c)
		}
	case yaml.SequenceNode:
		scalars := true
		for _, c := range n.Content {
			if c != nil && c.Kind != yaml.ScalarNode {
				scalars = false
			}
			styleReadableSequences(c)
		}
		if scalars {
			n.Style = yaml.FlowStyle
		}
	}
}
