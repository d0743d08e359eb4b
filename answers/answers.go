// Package answers turns the raw answer blob of a form response into a
// display-ready structure. Submitted answers are a flat JSON map keyed by
// field id, with conditional sub-answers keyed by synthesized suffixes
// ("<field>-<option>-<input>", "<field>-radio-<option>", "<field>-other").
// Everything that renders answers (response listings, response detail, PDF
// export) goes through Parse and Format here.
package answers

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ezza-forms/backend/log"
	"github.com/ezza-forms/backend/model"
)

// Value is a formatted composite answer: the field's own value plus the
// detail of every active conditional branch.
type Value struct {
	Value       any                 `json:"value"`
	Conditional []ConditionalDetail `json:"_conditionalData,omitempty"`
}

type ConditionalDetail struct {
	OptionText    string  `json:"optionText"`
	Inputs        []Input `json:"inputs,omitempty"`
	RadioQuestion string  `json:"radioQuestion,omitempty"`
	Radio         string  `json:"radio,omitempty"`
}

type Input struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Parse decodes a stored answers blob, tolerating the malformed shapes found
// in the wild: double-encoded JSON and single-quoted keys/values. An
// unrecoverable blob degrades to an empty map with a warning, never an error.
func Parse(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	if m, ok := decode(raw); ok {
		return m
	}
	if m, ok := decode(strings.ReplaceAll(raw, "'", `"`)); ok {
		return m
	}

	log.Warnf("answers.parse: unrecoverable answers JSON, defaulting to empty")
	return map[string]any{}
}

func decode(raw string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, false
	}
	if s, ok := v.(string); ok {
		// double-encoded blob
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			return nil, false
		}
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Format reshapes a parsed answers map against the owning form's metadata.
// The result maps field ids to either a plain scalar or a Value carrying the
// active conditional branches.
func Format(form model.Form, in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for _, section := range form.Sections {
		for _, field := range section.Fields {
			key := strconv.Itoa(field.ID)
			raw, answered := in[key]

			details := conditionalDetails(field, in)
			other, hasOther := otherText(field, in)
			if !answered && len(details) == 0 && !hasOther {
				continue
			}

			value := raw
			if hasOther {
				value = appendOther(value, other)
			}
			if len(details) == 0 {
				out[key] = value
			} else {
				out[key] = Value{Value: value, Conditional: details}
			}
		}
	}
	return out
}

func conditionalDetails(field model.Field, in map[string]any) []ConditionalDetail {
	if !field.Type.HasConditional() {
		return nil
	}

	raw := in[strconv.Itoa(field.ID)]
	var details []ConditionalDetail
	for optIdx, opt := range field.ConditionalOptions {
		if !optionActive(field, optIdx, opt, raw, in) {
			continue
		}

		d := ConditionalDetail{
			OptionText:    opt.OptionText,
			RadioQuestion: opt.RadioQuestion,
		}
		for inputIdx, input := range opt.Inputs {
			v, ok := lookupString(in, fmt.Sprintf("%d-%d-%d", field.ID, optIdx, inputIdx))
			if !ok && field.Type == model.FieldYesNo {
				// yes/no fields key their inputs without the option index
				v, ok = lookupString(in, fmt.Sprintf("%d-%d", field.ID, inputIdx))
			}
			if ok && v != "" {
				d.Inputs = append(d.Inputs, Input{Label: input.Label, Value: v})
			}
		}
		if r, ok := lookupString(in, fmt.Sprintf("%d-radio-%d", field.ID, optIdx)); ok && r != "" {
			d.Radio = r
		}
		details = append(details, d)
	}
	return details
}

// optionActive decides whether a conditional branch was taken. The selection
// may be recorded as the field's own value (string or array), or only by the
// presence of nested values keyed under the option's index.
func optionActive(field model.Field, optIdx int, opt model.ConditionalOption, raw any, in map[string]any) bool {
	switch v := raw.(type) {
	case string:
		if v == opt.OptionText {
			return true
		}
		if field.Type == model.FieldYesNo && optIdx == 0 && isYes(v) {
			return true
		}
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && s == opt.OptionText {
				return true
			}
		}
	}

	for inputIdx := range opt.Inputs {
		if s, ok := lookupString(in, fmt.Sprintf("%d-%d-%d", field.ID, optIdx, inputIdx)); ok && s != "" {
			return true
		}
	}
	if s, ok := lookupString(in, fmt.Sprintf("%d-radio-%d", field.ID, optIdx)); ok && s != "" {
		return true
	}
	return false
}

func isYes(s string) bool {
	return strings.EqualFold(s, "yes") || strings.EqualFold(s, "oui")
}

func otherText(field model.Field, in map[string]any) (string, bool) {
	if !field.ShowOtherOption {
		return "", false
	}
	raw, ok := in[fmt.Sprintf("%d-other", field.ID)].(map[string]any)
	if !ok {
		return "", false
	}
	checked, _ := raw["checked"].(bool)
	text, _ := raw["text"].(string)
	if !checked || text == "" {
		return "", false
	}
	return text, true
}

func appendOther(value any, other string) any {
	switch v := value.(type) {
	case nil:
		return other
	case string:
		if v == "" {
			return other
		}
		return []any{v, other}
	case []any:
		return append(v, any(other))
	}
	return value
}

func lookupString(in map[string]any, key string) (string, bool) {
	v, ok := in[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Lines flattens a formatted answer into the display lines the PDF export
// prints, one per value, input or radio selection.
func Lines(v any) []string {
	switch a := v.(type) {
	case nil:
		return []string{"Answer: Non renseigné"}
	case string:
		if a == "" {
			return nil
		}
		return []string{"Answer: " + a}
	case float64, bool:
		return []string{"Answer: " + scalar(a)}
	case []any:
		var lines []string
		for _, e := range a {
			lines = append(lines, Lines(e)...)
		}
		return lines
	case Value:
		var lines []string
		lines = append(lines, Lines(a.Value)...)
		for _, cond := range a.Conditional {
			if cond.OptionText != "" {
				lines = append(lines, "Option: "+cond.OptionText)
			}
			for _, input := range cond.Inputs {
				lines = append(lines, input.Label+": "+input.Value)
			}
			if cond.Radio != "" {
				question := cond.RadioQuestion
				if question == "" {
					question = "Answer"
				}
				lines = append(lines, question+": "+cond.Radio)
			}
		}
		return lines
	case map[string]any:
		keys := make([]string, 0, len(a))
		for k := range a {
			if k == "checked" {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var lines []string
		for _, k := range keys {
			switch e := a[k].(type) {
			case map[string]any, []any:
				lines = append(lines, Lines(e)...)
			default:
				if s := scalar(e); s != "" {
					lines = append(lines, k+": "+s)
				}
			}
		}
		return lines
	}
	return []string{"Answer: " + scalar(v)}
}

// Summary builds the short preview string shown in response listings from
// the first max entries of the flat answers map.
func Summary(in map[string]any, max int) string {
	if len(in) == 0 {
		return "No answers"
	}

	keys := make([]string, 0, len(in))
	for k := range in {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA == nil && errB == nil {
			return a < b
		}
		if (errA == nil) != (errB == nil) {
			return errA == nil
		}
		return keys[i] < keys[j]
	})

	var parts []string
	for _, k := range keys {
		if len(parts) == max {
			break
		}
		switch v := in[k].(type) {
		case []any:
			items := make([]string, 0, len(v))
			for _, e := range v {
				items = append(items, scalar(e))
			}
			parts = append(parts, k+": "+strings.Join(items, ", "))
		case map[string]any:
			continue
		default:
			parts = append(parts, k+": "+scalar(v))
		}
	}
	if len(parts) == 0 {
		return "No answers"
	}
	return strings.Join(parts, "; ")
}

func scalar(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	}
	return fmt.Sprintf("%v", v)
}
