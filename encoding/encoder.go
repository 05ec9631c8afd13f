package encoding

import (
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/laibamasod/research-agent/schema"
	"github.com/laibamasod/research-agent/utils"
)

type SchemaEncoder interface {
	Marshal(req any) ([]byte, error)
	Unmarshal([]byte, any) error
	// GetFormatInstructions returns the wrapped message with message schema for the prompt
	GetFormatInstructions() string
}

type Mode = string

const (
	ModeJSON      Mode = "json"
	ModePlainText Mode = "plain_text"
)

// ModeDefault is the default mode for the encoder.
// Allow to override in apps
var ModeDefault = ModePlainText

func PredefinedSchemaEncoder(mode Mode, req any) (SchemaEncoder, error) {
	switch mode {
	case ModeJSON:
		return newJSONEncoder(req)
	case ModePlainText:
		return &plainEncoder{}, nil
	default:
		return nil, errors.Newf("no predefined encoder: %s", mode)
	}
}

type jsonEncoder struct {
	sc *schema.Schema
}

func newJSONEncoder(req any) (*jsonEncoder, error) {
	sc, err := schema.New(reflect.TypeOf(req))
	if err != nil {
		return nil, errors.WithMessage(err, "failed to create schema")
	}
	return &jsonEncoder{sc: sc}, nil
}

func (e *jsonEncoder) Marshal(req any) ([]byte, error) {
	bs, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal")
	}
	return bs, nil
}

func (e *jsonEncoder) Unmarshal(bs []byte, v any) error {
	if err := json.Unmarshal(utils.CleanJSON(bs), v); err != nil {
		return errors.Wrap(err, "failed to unmarshal")
	}
	return nil
}

func (e *jsonEncoder) GetFormatInstructions() string {
	return "Respond with JSON matching the following JSON schema:" +
		utils.BackticksJSON(utils.ToJSONIndent(e.sc.Parameters))
}

// plainEncoder passes content through unchanged. Targets that implement
// Unmarshal([]byte) error consume the raw text, anything else falls back
// to JSON decoding.
type plainEncoder struct{}

type rawUnmarshaler interface {
	Unmarshal([]byte) error
}

func (e *plainEncoder) Marshal(req any) ([]byte, error) {
	return []byte(utils.Stringify(req)), nil
}

func (e *plainEncoder) Unmarshal(bs []byte, v any) error {
	if u, ok := v.(rawUnmarshaler); ok {
		return u.Unmarshal(bs)
	}
	return json.Unmarshal(utils.CleanJSON(bs), v)
}

func (e *plainEncoder) GetFormatInstructions() string { return "" }
