// Package collab supplies concrete, adapted implementations of the
// external collaborator interfaces the type-system core depends on but
// deliberately does not implement itself: argument parsing, native-class
// introspection, subclass representation generation, and bytecode
// evaluation. Each adapter wraps the host interpreter's own machinery
// rather than reimplementing it.
package collab

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ATSOTECK/pyhost/internal/pytype"
)

// ArgumentParser is an alias of pytype.ArgumentMarshaler: RageArgParser
// must satisfy that interface exactly for TypeFactory.SetArgumentMarshaler
// to accept it.
type ArgumentParser = pytype.ArgumentMarshaler

// ParamKind, Param and Signature are aliased to pytype's own
// MethodDescriptor-marshaling types for the same reason FieldInfo/
// MethodInfo are in introspector.go.
type ParamKind = pytype.ParamKind

const (
	ParamInt    = pytype.ParamInt
	ParamFloat  = pytype.ParamFloat
	ParamString = pytype.ParamString
	ParamBool   = pytype.ParamBool
	ParamAny    = pytype.ParamAny
)

type Param = pytype.Param

// Signature is an ordered parameter list, e.g. for `def f(x: int, y: str = "a")`.
type Signature = pytype.CallSignature

// RageArgParser adapts the host interpreter's stack-based argument
// checking family (RequireArgs/CheckInt/OptionalString, in
// internal/runtime/api.go and the VM's call-frame setup in
// internal/runtime/calls.go) into the signature-string-driven
// ArgumentParser the core's MethodDescriptor machinery calls through.
type RageArgParser struct{}

// NewRageArgParser returns a ready-to-use RageArgParser. It carries no state.
func NewRageArgParser() *RageArgParser { return &RageArgParser{} }

// Parse implements ArgumentParser.
func (p *RageArgParser) Parse(sig Signature, args []any, kwargs map[string]any) ([]any, error) {
	out := make([]any, len(sig.Params))
	consumed := make(map[string]bool, len(kwargs))

	for i, param := range sig.Params {
		var raw any
		var found bool

		if i < len(args) {
			raw = args[i]
			found = true
		} else if v, ok := kwargs[param.Name]; ok {
			raw = v
			found = true
			consumed[param.Name] = true
		}

		if !found {
			if param.Optional {
				out[i] = param.Default
				continue
			}
			return nil, fmt.Errorf("%s() missing required argument: '%s'", sig.Name, param.Name)
		}

		coerced, err := coerce(sig.Name, param, raw)
		if err != nil {
			return nil, err
		}
		out[i] = coerced
	}

	for name := range kwargs {
		if !consumed[name] {
			return nil, fmt.Errorf("%s() got an unexpected keyword argument '%s'", sig.Name, name)
		}
	}

	return out, nil
}

func coerce(sigName string, param Param, raw any) (any, error) {
	switch param.Kind {
	case ParamInt:
		switch v := raw.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			return nil, fmt.Errorf("%s(): argument '%s' must be int, not float", sigName, param.Name)
		case string:
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%s(): argument '%s' must be int", sigName, param.Name)
			}
			return n, nil
		default:
			return nil, fmt.Errorf("%s(): argument '%s' must be int", sigName, param.Name)
		}
	case ParamFloat:
		switch v := raw.(type) {
		case float64:
			return v, nil
		case int:
			return float64(v), nil
		default:
			return nil, fmt.Errorf("%s(): argument '%s' must be float", sigName, param.Name)
		}
	case ParamString:
		v, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s(): argument '%s' must be str", sigName, param.Name)
		}
		return v, nil
	case ParamBool:
		v, ok := raw.(bool)
		if !ok {
			return nil, fmt.Errorf("%s(): argument '%s' must be bool", sigName, param.Name)
		}
		return v, nil
	default:
		return raw, nil
	}
}

// ParseSignatureString parses a compact "name(kind,kind?,...)" shorthand
// into a Signature, e.g. "point(int,int,str?)". Each kind token is one
// of int/float/str/bool/any, optionally suffixed with '?' for optional.
func ParseSignatureString(s string) (Signature, error) {
	open := strings.IndexByte(s, '(')
	close := strings.LastIndexByte(s, ')')
	if open < 0 || close < 0 || close < open {
		return Signature{}, fmt.Errorf("invalid signature string %q", s)
	}
	name := s[:open]
	body := strings.TrimSpace(s[open+1 : close])

	sig := Signature{Name: name}
	if body == "" {
		return sig, nil
	}
	for i, tok := range strings.Split(body, ",") {
		tok = strings.TrimSpace(tok)
		optional := strings.HasSuffix(tok, "?")
		tok = strings.TrimSuffix(tok, "?")
		var kind ParamKind
		switch tok {
		case "int":
			kind = ParamInt
		case "float":
			kind = ParamFloat
		case "str":
			kind = ParamString
		case "bool":
			kind = ParamBool
		case "any":
			kind = ParamAny
		default:
			return Signature{}, fmt.Errorf("invalid signature string %q: unknown kind %q", s, tok)
		}
		sig.Params = append(sig.Params, Param{
			Name:     fmt.Sprintf("arg%d", i),
			Kind:     kind,
			Optional: optional,
		})
	}
	return sig, nil
}
