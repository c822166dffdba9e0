// Package mcputils binds MCP tool arguments to typed request structs,
// coercing the stringly-typed values some MCP clients send.
package mcputils

import (
	"encoding/json"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// ArgumentGetter yields the raw argument map of a tool call.
type ArgumentGetter interface {
	GetArguments() map[string]interface{}
}

// BindArguments decodes tool arguments into target. Clients do not
// agree on wire types: numbers arrive as float64 or as strings, bools
// as bools or as "true", arrays sometimes as JSON-encoded strings. The
// decode hook folds the string forms back before mapstructure applies
// its weak typing.
func BindArguments[T any](request ArgumentGetter, target *T) error {
	stringHook := func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		raw := strings.TrimSpace(data.(string))
		if raw == "" {
			return data, nil
		}

		switch {
		case t.Kind() == reflect.Bool && (raw == "true" || raw == "false"):
			return raw == "true", nil

		case t.Kind() >= reflect.Int && t.Kind() <= reflect.Float64:
			var n json.Number
			if err := json.Unmarshal([]byte(raw), &n); err == nil {
				// mapstructure's weak typing finishes the conversion.
				return n, nil
			}

		case t.Kind() == reflect.Slice:
			if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
				slicePtr := reflect.New(t)
				if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
					return slicePtr.Elem().Interface(), nil
				}
			}
		}
		return data, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       stringHook,
		Result:           target,
		TagName:          "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(request.GetArguments())
}
