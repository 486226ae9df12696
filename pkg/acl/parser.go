package acl

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
)

// Params is the raw parameter map of a configured rule.
type Params map[string]any

// Parser builds rules of one type from configuration parameters.
type Parser interface {
	// Type is the name the parser is registered under.
	Type() string
	Parse(params Params) (AccessControl, error)
}

// ParserFunc adapts a function to a Parser.
type ParserFunc struct {
	Name string
	Fn   func(Params) (AccessControl, error)
}

func (p ParserFunc) Type() string                               { return p.Name }
func (p ParserFunc) Parse(params Params) (AccessControl, error) { return p.Fn(params) }

var validate = validator.New()

// baseParams holds the keys every rule type accepts. Parameter structs embed
// it with mapstructure:",squash".
type baseParams struct {
	Access string `mapstructure:"access" validate:"required"`
}

func (b *baseParams) verdict() (Verdict, error) {
	v, err := ParseVerdict(b.Access)
	if err != nil {
		return Default, err
	}
	if v == Default {
		return Default, fmt.Errorf("access must be allow or disallow")
	}
	return v, nil
}

type paramsTarget interface {
	verdict() (Verdict, error)
}

// decodeParams decodes params into out, rejecting unknown keys, validates the
// struct tags and returns the parsed access verdict.
func decodeParams(params Params, out paramsTarget) (Verdict, error) {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return Default, err
	}
	if err := dec.Decode(map[string]any(params)); err != nil {
		return Default, err
	}
	if err := validate.Struct(out); err != nil {
		return Default, err
	}
	return out.verdict()
}
