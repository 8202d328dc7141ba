package explorer

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// schemaParams projects the top-level properties of a tool input schema
// into Params, keeping the order they appear in the document.
func schemaParams(raw json.RawMessage) []Param {
	if len(raw) == 0 {
		return nil
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(raw, &s); err == nil {
		return strictParams(&s)
	}
	// Schemas using keyword forms jsonschema.Schema cannot hold, such as
	// a list of types, are read loosely.
	return looseParams(raw)
}

func strictParams(s *jsonschema.Schema) []Param {
	if s.Properties == nil || s.Properties.Len() == 0 {
		return nil
	}
	required := setOf(s.Required)

	params := make([]Param, 0, s.Properties.Len())
	for el := s.Properties.Oldest(); el != nil; el = el.Next() {
		p := Param{Name: el.Key, Type: "any", Required: required[el.Key]}
		if v := el.Value; v != nil {
			if v.Type != "" {
				p.Type = v.Type
			}
			p.Description = optional(v.Description)
		}
		params = append(params, p)
	}
	return params
}

type looseProperty struct {
	Type        json.RawMessage `json:"type"`
	Description json.RawMessage `json:"description"`
}

func looseParams(raw json.RawMessage) []Param {
	var s struct {
		Properties *orderedmap.OrderedMap[string, json.RawMessage] `json:"properties"`
		Required   []string                                        `json:"required"`
	}
	if err := json.Unmarshal(raw, &s); err != nil || s.Properties == nil {
		return nil
	}
	required := setOf(s.Required)

	var params []Param
	for el := s.Properties.Oldest(); el != nil; el = el.Next() {
		p := Param{Name: el.Key, Type: "any", Required: required[el.Key]}
		var lp looseProperty
		if json.Unmarshal(el.Value, &lp) == nil {
			if t := typeName(lp.Type); t != "" {
				p.Type = t
			}
			var desc string
			if json.Unmarshal(lp.Description, &desc) == nil {
				p.Description = optional(desc)
			}
		}
		params = append(params, p)
	}
	return params
}

// typeName renders a "type" keyword: a single name, or alternatives joined
// with "|".
func typeName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var one string
	if json.Unmarshal(raw, &one) == nil {
		return one
	}
	var many []string
	if json.Unmarshal(raw, &many) == nil {
		return strings.Join(many, "|")
	}
	return ""
}

func setOf(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
