package field

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/syssam/crudl"
)

// validate checks primitive constraints expressed as validator tags.
var validate = validator.New()

// Validate checks v against the specification and returns the normalized
// value: defaults applied, identifiers in canonical form, dates parsed and
// numbers converted to float64. Failures are reported as
// *crudl.ValidationError values, aggregated when more than one field fails.
func (s *Spec) Validate(v any) (any, error) {
	return s.validate(s.Name, v)
}

// ValidateArgs validates an argument map against an object specification.
// A nil map is treated as empty.
func (s *Spec) ValidateArgs(args map[string]any) (crudl.Document, error) {
	if args == nil {
		args = map[string]any{}
	}
	out, err := s.validate("", args)
	if err != nil {
		return nil, err
	}
	doc, _ := out.(map[string]any)
	if doc == nil {
		doc = crudl.Document{}
	}
	return doc, nil
}

func (s *Spec) validate(path string, v any) (any, error) {
	name := path
	if s.Label != "" {
		name = s.Label
	}
	if isNil(v) {
		switch {
		case s.Presence == Required:
			return nil, crudl.NewValidationError(name, crudl.ErrRequired)
		case s.DefaultFunc != nil:
			return s.DefaultFunc(), nil
		case s.Default != nil:
			return cloneValue(s.Default), nil
		}
		return nil, nil
	}
	if s.Presence == Forbidden {
		return nil, crudl.NewValidationError(name, crudl.ErrForbidden)
	}
	// Empty text does not satisfy a required field.
	if text, ok := v.(string); ok && text == "" && s.Kind == TypeText && s.Presence == Required {
		return nil, crudl.NewValidationError(name, crudl.ErrRequired)
	}
	out, err := s.convert(path, name, v)
	if err != nil {
		return nil, err
	}
	if err := s.check(name, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Spec) convert(path, name string, v any) (any, error) {
	switch s.Kind {
	case TypeID:
		switch v := v.(type) {
		case string:
			id, err := uuid.Parse(v)
			if err != nil {
				return nil, crudl.NewValidationError(name, fmt.Errorf("must be a valid identifier: %w", err))
			}
			return id.String(), nil
		case uuid.UUID:
			return v.String(), nil
		}
	case TypeText:
		if v, ok := v.(string); ok {
			return v, nil
		}
	case TypeBool:
		if v, ok := v.(bool); ok {
			return v, nil
		}
	case TypeNumber:
		n, ok := toFloat(v)
		if !ok {
			break
		}
		if s.Integer && n != math.Trunc(n) {
			return nil, crudl.NewValidationError(name, fmt.Errorf("must be an integer, got %v", n))
		}
		return n, nil
	case TypeDate:
		switch v := v.(type) {
		case time.Time:
			return v, nil
		case *time.Time:
			return *v, nil
		case string:
			for _, layout := range []string{time.RFC3339, time.DateOnly} {
				if t, err := time.Parse(layout, v); err == nil {
					return t, nil
				}
			}
			return nil, crudl.NewValidationError(name, fmt.Errorf("must be an RFC 3339 date, got %q", v))
		}
	case TypeObject:
		m, ok := toMap(v)
		if !ok {
			break
		}
		return s.validateObject(path, m)
	case TypeSequence:
		items, ok := toSlice(v)
		if !ok {
			break
		}
		return s.validateItems(path, items)
	}
	return nil, crudl.NewValidationError(name, fmt.Errorf("must be a %s, got %T", s.Kind, v))
}

func (s *Spec) validateObject(path string, in map[string]any) (any, error) {
	// Objects declared without attributes accept any keys.
	if s.Fields == nil {
		return maps.Clone(in), nil
	}
	var (
		errs []error
		out  = make(map[string]any, len(s.Fields))
		keys = slices.Sorted(maps.Keys(in))
	)
	for _, k := range keys {
		if s.Field(k) == nil {
			errs = append(errs, crudl.NewValidationError(join(path, k), crudl.ErrUnknownField))
		}
	}
	for _, f := range s.Fields {
		v, err := f.validate(join(path, f.Name), in[f.Name])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if v != nil {
			out[f.Name] = v
		}
	}
	if err := crudl.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Spec) validateItems(path string, in []any) (any, error) {
	if s.Items == nil {
		return slices.Clone(in), nil
	}
	var errs []error
	out := make([]any, len(in))
	for i, item := range in {
		v, err := s.Items.validate(path+"["+strconv.Itoa(i)+"]", item)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[i] = v
	}
	if err := crudl.NewAggregateError(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Spec) check(name string, v any) error {
	if len(s.Allowed) > 0 && !slices.ContainsFunc(s.Allowed, func(a any) bool { return equal(a, v) }) {
		return crudl.NewValidationError(name, fmt.Errorf("must be one of %v", s.Allowed))
	}
	for _, r := range s.Rules {
		var err error
		switch {
		case r.check != nil:
			err = r.check(v)
		case r.Tag != "":
			if validate.Var(v, r.Tag) != nil {
				err = fmt.Errorf("must satisfy %s", r.Tag)
			}
		}
		if err != nil {
			return crudl.NewValidationError(name, err)
		}
	}
	return nil
}

func join(path, name string) string {
	if path == "" {
		return name
	}
	return path + "." + name
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

func toMap(v any) (map[string]any, bool) {
	if m, ok := v.(map[string]any); ok {
		return m, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	m := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		m[iter.Key().String()] = iter.Value().Interface()
	}
	return m, true
}

func toSlice(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	s := make([]any, rv.Len())
	for i := range s {
		s[i] = rv.Index(i).Interface()
	}
	return s, true
}

// equal compares scalar values, treating all numeric types alike.
func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	return reflect.DeepEqual(a, b)
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		return maps.Clone(v)
	case []any:
		return slices.Clone(v)
	}
	return v
}

