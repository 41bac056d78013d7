package plan

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"modplan/internal/errors"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// actionFile is the on-disk layout of a raw action list.
type actionFile struct {
	Actions []RawAction `yaml:"actions"`
}

// LoadRawActions reads a YAML (or JSON) action list:
//
//	actions:
//	  - kind: merge
//	    sources: [src/utils/dup]
//	    target: src/utils/strings
//	  - kind: create-barrel
//	    sources: [src/utils]
func LoadRawActions(path string) ([]RawAction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.InvalidAction, "failed to read action list", err)
	}
	return ParseRawActions(bytes.NewReader(data))
}

// ParseRawActions decodes and validates an action list. Unknown fields are
// rejected.
func ParseRawActions(r io.Reader) ([]RawAction, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f actionFile
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, errors.New(errors.InvalidAction, "failed to parse action list", err)
	}
	if err := ValidateActions(f.Actions); err != nil {
		return nil, err
	}
	return f.Actions, nil
}

// ValidateActions checks each action has a known kind and at least one
// source, moves and merges name a target, and explicit ids are unique.
func ValidateActions(raw []RawAction) error {
	seen := make(map[string]int, len(raw))
	for i, r := range raw {
		pos := i + 1
		if err := validate.Struct(r); err != nil {
			return actionError(pos, err)
		}
		if !r.Kind.Valid() {
			return errors.Newf(errors.InvalidAction, "action %d: unknown kind %q", pos, r.Kind)
		}
		if r.Kind.needsTarget() && strings.TrimSpace(r.Target) == "" {
			return errors.Newf(errors.InvalidAction, "action %d: %s requires a target", pos, r.Kind)
		}
		if r.ID == "" {
			continue
		}
		if prev, dup := seen[r.ID]; dup {
			return errors.Newf(errors.InvalidAction, "action %d: duplicate id %q (first used by action %d)", pos, r.ID, prev)
		}
		seen[r.ID] = pos
	}
	return nil
}

func actionError(pos int, err error) error {
	var verrs validator.ValidationErrors
	if !stderrors.As(err, &verrs) {
		return errors.New(errors.InvalidAction, fmt.Sprintf("action %d is invalid", pos), err)
	}
	e := verrs[0]
	field := strings.TrimPrefix(e.Namespace(), "RawAction.")
	switch e.Tag() {
	case "required":
		return errors.Newf(errors.InvalidAction, "action %d: %s is required", pos, field)
	case "min":
		return errors.Newf(errors.InvalidAction, "action %d: %s needs at least %s entry", pos, field, e.Param())
	default:
		return errors.Newf(errors.InvalidAction, "action %d: %s failed %s", pos, field, e.Tag())
	}
}
