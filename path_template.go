package sdk

import (
	"fmt"
	"strconv"
	"strings"
)

// pathTemplate is a parsed path such as "/user/{username}/profile". Literal
// segments and placeholder names alternate in parts; placeholder parts carry
// isVar.
type pathTemplate struct {
	raw   string
	parts []templatePart
}

type templatePart struct {
	text  string
	isVar bool
}

func parsePathTemplate(raw string) (pathTemplate, error) {
	tmpl := pathTemplate{raw: raw}
	rest := raw
	for rest != "" {
		open := strings.IndexByte(rest, '{')
		closeIdx := strings.IndexByte(rest, '}')
		if open < 0 {
			if closeIdx >= 0 {
				return pathTemplate{}, fmt.Errorf("path %q: unmatched '}'", raw)
			}
			tmpl.parts = append(tmpl.parts, templatePart{text: rest})
			break
		}
		if closeIdx >= 0 && closeIdx < open {
			return pathTemplate{}, fmt.Errorf("path %q: unmatched '}'", raw)
		}
		if open > 0 {
			tmpl.parts = append(tmpl.parts, templatePart{text: rest[:open]})
		}
		rest = rest[open+1:]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			return pathTemplate{}, fmt.Errorf("path %q: unterminated placeholder", raw)
		}
		name := rest[:end]
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "{/") {
			return pathTemplate{}, fmt.Errorf("path %q: invalid placeholder %q", raw, "{"+name+"}")
		}
		tmpl.parts = append(tmpl.parts, templatePart{text: name, isVar: true})
		rest = rest[end+1:]
	}
	return tmpl, nil
}

// Placeholders returns the placeholder names in order of appearance.
func (t pathTemplate) Placeholders() []string {
	var names []string
	for _, p := range t.parts {
		if p.isVar {
			names = append(names, p.text)
		}
	}
	return names
}

func (t pathTemplate) hasPlaceholders() bool {
	for _, p := range t.parts {
		if p.isVar {
			return true
		}
	}
	return false
}

// Resolve substitutes every placeholder with the same-named value from fields.
// Values are rendered textually and not escaped. A placeholder without a
// matching field is an error.
func (t pathTemplate) Resolve(endpoint string, fields map[string]any) (string, error) {
	if !t.hasPlaceholders() {
		return t.raw, nil
	}
	var b strings.Builder
	for _, p := range t.parts {
		if !p.isVar {
			b.WriteString(p.text)
			continue
		}
		v, ok := fields[p.text]
		if !ok || v == nil {
			return "", MissingPathParamError{Endpoint: endpoint, Param: p.text}
		}
		b.WriteString(renderPathValue(v))
	}
	return b.String(), nil
}

func renderPathValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	case float64:
		// JSON numbers decode as float64; never render an exponent.
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}
