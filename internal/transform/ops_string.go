package transform

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"unicode"

	"github.com/iancoleman/strcase"
	"golang.org/x/text/runes"
	textransform "golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func init() {
	register("lowerCase", opLowerCase)
	register("upperCase", opUpperCase)
	register("camelCase", opCamelCase)
	register("kebabCase", opKebabCase)
	register("snakeCase", opSnakeCase)
	register("capitalize", opCapitalize)
	register("nameCase", opNameCase)
	register("deburr", opDeburr)
	register("substring", opSubstring)
	register("length", opLength)
	register("count", opCount)
	register("join", opJoin)
	register("slice", opSlice)
	register("replace", opReplace)
	register("split", opSplit)
	register("match", opMatch)
	register("render", opRender)
}

// stringInput extracts a string input, degrading every other type to the
// "absent" result per the evaluator's null-propagation policy.
func stringInput(input any) (string, bool) {
	s, ok := input.(string)
	return s, ok
}

func opLowerCase(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	return strings.ToLower(s), nil
}

func opUpperCase(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	return strings.ToUpper(s), nil
}

func opCamelCase(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	return strcase.ToLowerCamel(s), nil
}

func opKebabCase(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	return strcase.ToKebab(s), nil
}

func opSnakeCase(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	return strcase.ToSnake(s), nil
}

func opCapitalize(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	return capitalize(strings.ToLower(s)), nil
}

func capitalize(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

// opNameCase title-cases person names: each space-, hyphen- or
// apostrophe-separated part is capitalized, with Mc/Mac prefixes handled.
func opNameCase(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	var b strings.Builder
	word := true
	lower := strings.ToLower(s)
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		if word && c >= 'a' && c <= 'z' {
			b.WriteByte(c - 'a' + 'A')
			word = false
			if strings.HasPrefix(lower[i:], "mc") && i+2 < len(lower) {
				b.WriteByte('c')
				i++
				word = true
			}
			continue
		}
		b.WriteByte(c)
		if c == ' ' || c == '-' || c == '\'' || c == '.' {
			word = true
		}
	}
	return b.String(), nil
}

var deburrTransformer = textransform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func opDeburr(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	out, _, err := textransform.String(deburrTransformer, s)
	if err != nil {
		return nil, nil
	}
	return out, nil
}

// opSubstring fails hard on a non-string input rather than degrading to
// nil; ported scripts rely on the asymmetry.
func opSubstring(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, opErrf("substring", "input must be a string, got %T", input)
	}
	runes := []rune(s)
	start, _ := intField(arg, "start")
	end, hasEnd := intField(arg, "end")
	if !hasEnd {
		end = len(runes)
	}
	start = clampIndex(start, len(runes))
	end = clampIndex(end, len(runes))
	if start > end {
		return "", nil
	}
	return string(runes[start:end]), nil
}

// opLength also fails hard on unsupported input types.
func opLength(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	switch v := input.(type) {
	case string:
		return len([]rune(v)), nil
	case []any:
		return len(v), nil
	case map[string]any:
		return len(v), nil
	}
	return nil, opErrf("length", "input must be a string, array or object, got %T", input)
}

func opCount(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	needle, ok := arg.(string)
	if !ok {
		return nil, nil
	}
	return strings.Count(s, needle), nil
}

func opJoin(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	items, ok := input.([]any)
	if !ok {
		return nil, nil
	}
	sep, _ := arg.(string)
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = stringify(item)
	}
	return strings.Join(parts, sep), nil
}

func opSlice(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	start, _ := intField(arg, "start")
	end, hasEnd := intField(arg, "end")
	switch v := input.(type) {
	case []any:
		if !hasEnd {
			end = len(v)
		}
		start, end = sliceBounds(start, end, len(v))
		return append([]any{}, v[start:end]...), nil
	case string:
		runes := []rune(v)
		if !hasEnd {
			end = len(runes)
		}
		start, end = sliceBounds(start, end, len(runes))
		return string(runes[start:end]), nil
	}
	return nil, nil
}

func opReplace(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	pattern, ok := stringField(arg, "pattern")
	if !ok {
		return nil, opErrf("replace", "argument requires pattern")
	}
	replacement, _ := stringField(arg, "replacement")
	if re, global, ok, err := parseRegexLiteral(pattern); ok {
		if err != nil {
			return nil, opErrf("replace", "invalid pattern %q: %v", pattern, err)
		}
		if global {
			return re.ReplaceAllString(s, replacement), nil
		}
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil {
			return s, nil
		}
		b := append([]byte{}, s[:loc[0]]...)
		b = re.ExpandString(b, replacement, s, loc)
		b = append(b, s[loc[1]:]...)
		return string(b), nil
	}
	return strings.ReplaceAll(s, pattern, replacement), nil
}

// opSplit splits a string. With maxItems the result is truncated to that
// many parts; with addRemainder the final kept part is the literal remainder
// of the original string after the previous separators.
func opSplit(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	sep, ok := arg.(string)
	maxItems := 0
	addRemainder := false
	if !ok {
		sep, ok = stringField(arg, "separator")
		if !ok {
			return nil, opErrf("split", "argument requires separator")
		}
		maxItems, _ = intField(arg, "maxItems")
		addRemainder = boolField(arg, "addRemainder")
	}
	var parts []string
	if maxItems > 0 && addRemainder {
		parts = strings.SplitN(s, sep, maxItems)
	} else {
		parts = strings.Split(s, sep)
		if maxItems > 0 && len(parts) > maxItems {
			parts = parts[:maxItems]
		}
	}
	out := make([]any, len(parts))
	for i, p := range parts {
		out[i] = p
	}
	return out, nil
}

// opMatch applies a /body/flags regex literal. No match yields false; a
// non-global match yields [fullMatch, groups...]; a global match yields all
// whole matches with no capture groups.
func opMatch(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	pattern, ok := arg.(string)
	if !ok {
		return nil, opErrf("match", "argument must be a /pattern/flags string")
	}
	re, global, ok, err := parseRegexLiteral(pattern)
	if !ok {
		return nil, opErrf("match", "argument must be a /pattern/flags string, got %q", pattern)
	}
	if err != nil {
		return nil, opErrf("match", "invalid pattern %q: %v", pattern, err)
	}
	if global {
		matches := re.FindAllString(s, -1)
		if matches == nil {
			return false, nil
		}
		out := make([]any, len(matches))
		for i, m := range matches {
			out[i] = m
		}
		return out, nil
	}
	m := re.FindStringSubmatch(s)
	if m == nil {
		return false, nil
	}
	out := make([]any, len(m))
	for i, g := range m {
		out[i] = g
	}
	return out, nil
}

// opRender executes a Go text template with the input document as data.
func opRender(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	text, ok := arg.(string)
	if !ok {
		return nil, opErrf("render", "argument must be a template string")
	}
	tmpl, err := template.New("render").Parse(text)
	if err != nil {
		return nil, opErrf("render", "invalid template: %v", err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, input); err != nil {
		return nil, opErrf("render", "execute: %v", err)
	}
	return b.String(), nil
}

// parseRegexLiteral parses a /body/flags literal. ok reports whether the
// string has the literal shape at all; err reports a compile failure.
// Supported flags: i, s, m for regexp modes and g for global matching.
func parseRegexLiteral(s string) (re *regexp.Regexp, global, ok bool, err error) {
	if len(s) < 2 || s[0] != '/' {
		return nil, false, false, nil
	}
	idx := strings.LastIndex(s[1:], "/")
	if idx < 0 {
		return nil, false, false, nil
	}
	body := s[1 : idx+1]
	flags := s[idx+2:]
	var mode string
	for _, f := range flags {
		switch f {
		case 'g':
			global = true
		case 'i', 's', 'm':
			mode += string(f)
		default:
			return nil, false, true, fmt.Errorf("unsupported flag %q", string(f))
		}
	}
	if mode != "" {
		body = "(?" + mode + ")" + body
	}
	re, err = regexp.Compile(body)
	return re, global, true, err
}

func clampIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}

func sliceBounds(start, end, length int) (int, int) {
	start = clampIndex(start, length)
	end = clampIndex(end, length)
	if start > end {
		return start, start
	}
	return start, end
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}
