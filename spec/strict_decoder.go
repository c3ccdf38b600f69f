package spec

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/zintix-labs/orblab/errs"
	"gopkg.in/yaml.v3"
)

// DecodeStrict 把任意 YAML 值（含 *yaml.Node、map[string]any）重新編碼後解到 out。
// 多寫/拼錯欄位就報錯。
//
// 自訂 UnmarshalYAML 內呼叫 node.Decode 不會沿用外層 decoder 的 KnownFields，
// 因此巢狀結構一律走這裡重新解一次。
func DecodeStrict[T any](v any, out *T) error {
	bs, err := yaml.Marshal(v)
	if err != nil {
		return errs.Wrap(err, "spec.strict_decoder : marshal failed")
	}
	return decodeYAML(bs, out)
}

func decodeYAML[T any](raw []byte, out *T) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return errs.NewWarn("spec.strict_decoder : empty yaml document")
		}
		return errs.WrapWarn(err, "spec.strict_decoder : decode yaml failed")
	}
	return nil
}

func decodeJSON[T any](raw []byte, out *T) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if err == io.EOF {
			return errs.NewWarn("spec.strict_decoder : empty json document")
		}
		return errs.WrapWarn(err, "spec.strict_decoder : decode json failed")
	}
	if dec.More() {
		return errs.NewWarn("spec.strict_decoder : trailing data after json document")
	}
	return nil
}
