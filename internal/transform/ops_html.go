package transform

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

func init() {
	register("htmlTag", opHTMLTag)
	register("htmlTags", opHTMLTags)
	register("htmlTagText", opHTMLTagText)
	register("htmlTagsText", opHTMLTagsText)
	register("htmlAttribute", opHTMLAttribute)
	register("htmlTable", opHTMLTable)
}

// htmlSelect parses an HTML fragment input and applies a CSS selector.
// Non-string input or an unparsable selector argument yields no selection.
func htmlSelect(input, arg any) (*goquery.Selection, bool) {
	s, ok := stringInput(input)
	if !ok {
		return nil, false
	}
	selector, ok := selectorArg(arg)
	if !ok {
		return nil, false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return nil, false
	}
	return doc.Find(selector), true
}

func selectorArg(arg any) (string, bool) {
	if s, ok := arg.(string); ok {
		return s, true
	}
	return stringField(arg, "selector")
}

func opHTMLTag(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	sel, ok := htmlSelect(input, arg)
	if !ok || sel.Length() == 0 {
		return nil, nil
	}
	html, err := goquery.OuterHtml(sel.First())
	if err != nil {
		return nil, nil
	}
	return html, nil
}

func opHTMLTags(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	sel, ok := htmlSelect(input, arg)
	if !ok {
		return nil, nil
	}
	out := []any{}
	sel.Each(func(_ int, s *goquery.Selection) {
		if html, err := goquery.OuterHtml(s); err == nil {
			out = append(out, html)
		}
	})
	return out, nil
}

func opHTMLTagText(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	sel, ok := htmlSelect(input, arg)
	if !ok || sel.Length() == 0 {
		return nil, nil
	}
	return strings.TrimSpace(sel.First().Text()), nil
}

func opHTMLTagsText(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	sel, ok := htmlSelect(input, arg)
	if !ok {
		return nil, nil
	}
	out := []any{}
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out, nil
}

func opHTMLAttribute(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	attribute, ok := stringField(arg, "attribute")
	if !ok {
		return nil, opErrf("htmlAttribute", "argument requires attribute")
	}
	sel, ok := htmlSelect(input, arg)
	if !ok || sel.Length() == 0 {
		return nil, nil
	}
	val, exists := sel.First().Attr(attribute)
	if !exists {
		return nil, nil
	}
	return val, nil
}

// opHTMLTable scans table rows for a cell whose text equals the given text
// and returns either the whole matching row (as an array of cell texts) or
// one cell of that row addressed by index.
func opHTMLTable(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	text, ok := stringField(arg, "text")
	if !ok {
		return nil, opErrf("htmlTable", "argument requires text")
	}
	selector, ok := stringField(arg, "selector")
	if !ok {
		selector = "table"
	}
	cellIndex, hasCell := intField(arg, "cell")

	sel, ok := htmlSelect(input, selector)
	if !ok {
		return nil, nil
	}

	var result any
	sel.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cells := row.Find("th, td")
		matched := false
		values := []any{}
		cells.Each(func(_ int, cell *goquery.Selection) {
			cellText := strings.TrimSpace(cell.Text())
			values = append(values, cellText)
			if cellText == text {
				matched = true
			}
		})
		if !matched {
			return true
		}
		if hasCell {
			if cellIndex >= 0 && cellIndex < len(values) {
				result = values[cellIndex]
			}
		} else {
			result = values
		}
		return false
	})
	return result, nil
}
