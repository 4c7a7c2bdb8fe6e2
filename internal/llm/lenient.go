package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/labreport-signatures/constants"
)

var errNotObject = errors.New("verdict is not a JSON object")

// key synonyms older prompts produce
var (
	verdictSynonyms = map[string]string{
		"individual_signatures": "marks",
		"signature_count":       "total_mark_count",
		"characteristics":       "signature_characteristics",
	}
	markSynonyms = map[string]string{
		"type":     "kind",
		"position": "position_description",
	}
	verdictKeys = map[string]struct{}{
		"is_signature": {}, "confidence": {}, "total_mark_count": {}, "full_signature_count": {},
		"marks": {}, "reasoning": {}, "signature_characteristics": {}, "alternative_classification": {},
	}
	markKeys = map[string]struct{}{
		"position_description": {}, "kind": {}, "description": {}, "characteristics": {},
	}
)

// NormalizeVerdict maps a model answer onto the verdict schema's vocabulary: it renames
// synonym keys, folds mark kinds, coerces numeric and boolean strings and drops unknown keys.
// It never invents required fields; values it cannot coerce are left for the schema to reject.
// A positive verdict without total_mark_count is taken to count one mark.
// The second return lists the keys it touched.
func NormalizeVerdict(doc []byte) ([]byte, []string, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, errNotObject
	}

	var changed []string
	renameKeys(m, verdictSynonyms, &changed)

	for k := range m {
		if _, ok := verdictKeys[k]; !ok {
			delete(m, k)
			changed = append(changed, k)
		}
	}

	if v, ok := m["is_signature"].(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			m["is_signature"] = b
			changed = append(changed, "is_signature")
		}
	}
	if v, ok := m["confidence"].(string); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			m["confidence"] = f
			changed = append(changed, "confidence")
		}
	}
	for _, k := range []string{"total_mark_count", "full_signature_count"} {
		switch t := m[k].(type) {
		case nil:
			delete(m, k)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
				m[k] = n
				changed = append(changed, k)
			}
		}
	}
	if _, ok := m["total_mark_count"]; !ok && m["is_signature"] == true {
		m["total_mark_count"] = 1
		changed = append(changed, "total_mark_count")
	}
	for _, k := range []string{"reasoning", "alternative_classification"} {
		if v, ok := m[k]; ok {
			if _, isStr := v.(string); !isStr {
				if v == nil {
					delete(m, k)
				} else {
					m[k] = fmt.Sprint(v)
				}
				changed = append(changed, k)
			}
		}
	}
	if v, ok := m["signature_characteristics"]; ok {
		m["signature_characteristics"] = toStringList(v)
	}

	if raw, ok := m["marks"]; ok {
		list, isList := raw.([]any)
		if !isList {
			delete(m, "marks")
			changed = append(changed, "marks")
		} else {
			marks := make([]any, 0, len(list))
			for _, item := range list {
				mk, isObj := item.(map[string]any)
				if !isObj {
					changed = append(changed, "marks")
					continue
				}
				normalizeMark(mk, &changed)
				marks = append(marks, mk)
			}
			m["marks"] = marks
		}
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, nil, err
	}
	return b, dedupe(changed), nil
}

func normalizeMark(mk map[string]any, changed *[]string) {
	renameKeys(mk, markSynonyms, changed)
	for k := range mk {
		if _, ok := markKeys[k]; !ok {
			delete(mk, k)
		}
	}
	if s, ok := mk["kind"].(string); ok {
		kind, known := constants.CanonicalMarkKind(s)
		if !known {
			// an unrecognized label never counts as a full signature
			kind = constants.Mark
		}
		if string(kind) != s {
			*changed = append(*changed, "marks.kind")
		}
		mk["kind"] = string(kind)
	}
	for _, k := range []string{"position_description", "description"} {
		if v, ok := mk[k]; ok {
			if _, isStr := v.(string); !isStr {
				if v == nil {
					delete(mk, k)
				} else {
					mk[k] = fmt.Sprint(v)
				}
			}
		}
	}
	if v, ok := mk["characteristics"]; ok {
		mk["characteristics"] = toStringList(v)
	}
}

func renameKeys(m map[string]any, synonyms map[string]string, changed *[]string) {
	for from, to := range synonyms {
		v, ok := m[from]
		if !ok {
			continue
		}
		if _, exists := m[to]; !exists {
			m[to] = v
		}
		delete(m, from)
		*changed = append(*changed, from)
	}
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if e == nil {
				continue
			}
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return []string{}
		}
		return []string{t}
	default:
		return []string{}
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// StripCodeFence removes a ```json ... ``` wrapper some models add despite json mode.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
