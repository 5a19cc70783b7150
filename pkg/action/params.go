package action

// Copyright (C) 2025 Rizome Labs, Inc.
//
// This program is free software; you can redistribute it and/or
// modify it under the terms of the GNU General Public License
// as published by the Free Software Foundation; either version 2
// of the License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program; if not, write to the Free Software
// Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA  02110-1301, USA.

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rizome-dev/kasir/pkg/core"
)

// Params maps parameter names to values
type Params map[string]interface{}

// Clone returns a copy of p, including nested maps and slices
func (p Params) Clone() Params {
	if p == nil {
		return nil
	}
	return Params(copyMap(p))
}

// String returns the named value as a string
func (p Params) String(name string) string {
	v, ok := p[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Float returns the named value as a float64
func (p Params) Float(name string) (float64, bool) {
	v, ok := p[name]
	if !ok {
		return 0, false
	}
	return toFloat(v)
}

// Int returns the named value truncated to an int
func (p Params) Int(name string) (int, bool) {
	f, ok := p.Float(name)
	if !ok {
		return 0, false
	}
	return int(f), true
}

// ParameterError describes why a parameter set does not satisfy a schema
type ParameterError struct {
	Missing []string
	Invalid map[string]string
}

func (e *ParameterError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		names := make([]string, 0, len(e.Invalid))
		for name := range e.Invalid {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s: %s", name, e.Invalid[name]))
		}
	}
	return fmt.Sprintf("%s: %s", core.ErrInvalidParameters, strings.Join(parts, "; "))
}

// Unwrap lets errors.Is match core.ErrInvalidParameters
func (e *ParameterError) Unwrap() error {
	return core.ErrInvalidParameters
}

// Normalize applies defaults and coerces raw values to the schema types.
// Values not named in the schema are passed through untouched.
func Normalize(schema []Parameter, raw Params) (Params, error) {
	out := raw.Clone()
	if out == nil {
		out = Params{}
	}

	perr := &ParameterError{Invalid: map[string]string{}}

	for _, param := range schema {
		v, present := out[param.Name]
		if present && isBlank(v) {
			present = false
			delete(out, param.Name)
		}

		if !present {
			if param.DefaultValue != nil {
				v = param.DefaultValue
			} else {
				if param.Required {
					perr.Missing = append(perr.Missing, param.Name)
				}
				continue
			}
		}

		coerced, err := coerce(param, v)
		if err != nil {
			perr.Invalid[param.Name] = err.Error()
			continue
		}
		out[param.Name] = coerced
	}

	if len(perr.Missing) > 0 || len(perr.Invalid) > 0 {
		return out, perr
	}
	return out, nil
}

func coerce(param Parameter, v interface{}) (interface{}, error) {
	switch param.Type {
	case ParamNumber:
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("expected a number, got %q", fmt.Sprint(v))
		}
		return f, nil
	case ParamBoolean:
		b, ok := toBool(v)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %q", fmt.Sprint(v))
		}
		return b, nil
	case ParamEnum:
		s := strings.TrimSpace(fmt.Sprint(v))
		for _, opt := range param.EnumOptions {
			if strings.EqualFold(opt, s) {
				return opt, nil
			}
		}
		return nil, fmt.Errorf("expected one of %s, got %q", strings.Join(param.EnumOptions, "|"), s)
	default:
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return fmt.Sprint(v), nil
	}
}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toBool(v interface{}) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "yes", "ya", "y", "1":
			return true, true
		case "false", "no", "tidak", "n", "0":
			return false, true
		}
	}
	return false, false
}
