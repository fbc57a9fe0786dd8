package transform

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"hash"
	"time"

	"github.com/calder/stepscript/internal/document"
)

func init() {
	register("hash", opHash)
	register("toBase64", opToBase64)
	register("fromBase64", opFromBase64)
	register("parseDate", opParseDate)
	register("formatDate", opFormatDate)
}

// opHash digests the input. Non-string input is stringified through JSON
// serialization first. Defaults: sha256 with hex encoding.
func opHash(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	algorithm := "sha256"
	encoding := "hex"
	switch a := arg.(type) {
	case string:
		algorithm = a
	case nil:
	default:
		if s, ok := stringField(arg, "algorithm"); ok {
			algorithm = s
		}
		if s, ok := stringField(arg, "encoding"); ok {
			encoding = s
		}
	}

	var data []byte
	if s, ok := input.(string); ok {
		data = []byte(s)
	} else {
		b, err := json.Marshal(input)
		if err != nil {
			return nil, opErrf("hash", "serialize input: %v", err)
		}
		data = b
	}

	var h hash.Hash
	switch algorithm {
	case "md5":
		h = md5.New()
	case "sha1":
		h = sha1.New()
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return nil, opErrf("hash", "unsupported algorithm %q", algorithm)
	}
	h.Write(data)
	sum := h.Sum(nil)

	switch encoding {
	case "hex":
		return hex.EncodeToString(sum), nil
	case "base64":
		return base64.StdEncoding.EncodeToString(sum), nil
	}
	return nil, opErrf("hash", "unsupported encoding %q", encoding)
}

func opToBase64(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	return base64.StdEncoding.EncodeToString([]byte(s)), nil
}

func opFromBase64(_ *Evaluator, _ context.Context, input, _ any) (any, error) {
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, nil
	}
	return string(b), nil
}

// dateLayouts are tried in order when parseDate is given no explicit format.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123,
	time.RFC1123Z,
}

// opParseDate parses a date string (or a unix-seconds number) and yields the
// canonical RFC 3339 representation. Unparseable input degrades to nil.
func opParseDate(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	if n, ok := document.Number(input); ok {
		return time.Unix(int64(n), 0).UTC().Format(time.RFC3339), nil
	}
	s, ok := stringInput(input)
	if !ok {
		return nil, nil
	}
	if layout, ok := dateFormatArg(arg); ok {
		t, err := time.Parse(layout, s)
		if err != nil {
			return nil, nil
		}
		return t.UTC().Format(time.RFC3339), nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(time.RFC3339), nil
		}
	}
	return nil, nil
}

// opFormatDate formats an RFC 3339 string or unix-seconds number with the
// given Go layout.
func opFormatDate(_ *Evaluator, _ context.Context, input, arg any) (any, error) {
	layout, ok := dateFormatArg(arg)
	if !ok {
		return nil, opErrf("formatDate", "argument requires format")
	}
	var t time.Time
	if n, numeric := document.Number(input); numeric {
		t = time.Unix(int64(n), 0).UTC()
	} else {
		s, isString := stringInput(input)
		if !isString {
			return nil, nil
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return nil, nil
		}
		t = parsed
	}
	if layout == "unix" {
		return t.Unix(), nil
	}
	return t.Format(layout), nil
}

func dateFormatArg(arg any) (string, bool) {
	switch a := arg.(type) {
	case string:
		if a != "" {
			return a, true
		}
	default:
		if s, ok := stringField(arg, "format"); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
