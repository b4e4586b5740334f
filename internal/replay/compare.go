package replay

import (
	"bytes"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/ariel-frischer/pactverify/internal/pact"
	"github.com/ariel-frischer/pactverify/internal/verifier"
)

// compareResponse checks the actual response against the recorded one.
//
// Status must be equal. Every recorded header must be present with an
// equivalent value; extra actual headers are fine. JSON bodies are compared
// structurally: objects may carry extra keys, arrays must agree in length and
// order, scalars must be equal. A recorded body that is a JSON string is
// compared as text when the provider does not answer with JSON.
func compareResponse(expected pact.Response, status int, header http.Header, body []byte) []verifier.Difference {
	var diffs []verifier.Difference

	if expected.Status != status {
		diffs = append(diffs, verifier.Difference{
			Kind:     verifier.KindStatus,
			Expected: fmt.Sprintf("%d", expected.Status),
			Actual:   fmt.Sprintf("%d", status),
			Message:  fmt.Sprintf("expected status %d but was %d", expected.Status, status),
		})
	}

	for _, name := range expected.Headers.Names() {
		want := expected.Headers[name]
		values := header.Values(name)
		if len(values) == 0 {
			diffs = append(diffs, verifier.Difference{
				Kind:     verifier.KindHeader,
				Path:     name,
				Expected: want,
				Message:  fmt.Sprintf("expected header %q but it was missing", name),
			})
			continue
		}
		got := strings.Join(values, ", ")
		if !headerValuesEqual(name, want, got) {
			diffs = append(diffs, verifier.Difference{
				Kind:     verifier.KindHeader,
				Path:     name,
				Expected: want,
				Actual:   got,
				Message:  fmt.Sprintf("expected header %q to be %q but was %q", name, want, got),
			})
		}
	}

	return append(diffs, compareBody(expected.Body, header.Get("Content-Type"), body)...)
}

func headerValuesEqual(name, want, got string) bool {
	if strings.EqualFold(name, "Content-Type") {
		return contentTypesEqual(want, got)
	}
	return normalizeList(want) == normalizeList(got)
}

func normalizeList(v string) string {
	parts := strings.Split(v, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, ",")
}

// contentTypesEqual compares media types case-insensitively and parameters
// by value.
func contentTypesEqual(want, got string) bool {
	wantType, wantParams, err1 := mime.ParseMediaType(want)
	gotType, gotParams, err2 := mime.ParseMediaType(got)
	if err1 != nil || err2 != nil {
		return strings.EqualFold(strings.ReplaceAll(want, " ", ""), strings.ReplaceAll(got, " ", ""))
	}
	if wantType != gotType || len(wantParams) != len(gotParams) {
		return false
	}
	for k, v := range wantParams {
		if !strings.EqualFold(gotParams[k], v) {
			return false
		}
	}
	return true
}

func isJSONContentType(ct string) bool {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(ct))
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func compareBody(expectedRaw []byte, contentType string, actual []byte) []verifier.Difference {
	expectedRaw = bytes.TrimSpace(expectedRaw)
	if len(expectedRaw) == 0 {
		return nil
	}

	var expected any
	if err := jsonAPI.Unmarshal(expectedRaw, &expected); err != nil {
		return []verifier.Difference{{
			Kind:    verifier.KindBody,
			Message: fmt.Sprintf("recorded body is not valid JSON: %v", err),
		}}
	}

	if text, ok := expected.(string); ok && !isJSONContentType(contentType) {
		if text != string(actual) {
			return []verifier.Difference{{
				Kind:     verifier.KindBody,
				Path:     "$",
				Expected: text,
				Actual:   string(actual),
				Message:  "body text differs",
			}}
		}
		return nil
	}

	var got any
	if err := jsonAPI.Unmarshal(actual, &got); err != nil {
		return []verifier.Difference{{
			Kind:     verifier.KindBody,
			Path:     "$",
			Expected: render(expected),
			Actual:   truncate(string(actual), 200),
			Message:  "expected a JSON body but the response could not be parsed",
		}}
	}

	var diffs []verifier.Difference
	compareJSON("$", expected, got, &diffs)
	return diffs
}

func compareJSON(path string, expected, actual any, diffs *[]verifier.Difference) {
	switch exp := expected.(type) {
	case map[string]any:
		act, ok := actual.(map[string]any)
		if !ok {
			*diffs = append(*diffs, typeMismatch(path, expected, actual))
			return
		}
		keys := make([]string, 0, len(exp))
		for k := range exp {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := childPath(path, k)
			av, present := act[k]
			if !present {
				*diffs = append(*diffs, verifier.Difference{
					Kind:     verifier.KindBody,
					Path:     child,
					Expected: render(exp[k]),
					Message:  fmt.Sprintf("expected key %q but it was missing", k),
				})
				continue
			}
			compareJSON(child, exp[k], av, diffs)
		}
	case []any:
		act, ok := actual.([]any)
		if !ok {
			*diffs = append(*diffs, typeMismatch(path, expected, actual))
			return
		}
		if len(exp) != len(act) {
			*diffs = append(*diffs, verifier.Difference{
				Kind:     verifier.KindBody,
				Path:     path,
				Expected: fmt.Sprintf("%d elements", len(exp)),
				Actual:   fmt.Sprintf("%d elements", len(act)),
				Message:  fmt.Sprintf("expected an array of %d elements but got %d", len(exp), len(act)),
			})
		}
		for i := 0; i < len(exp) && i < len(act); i++ {
			compareJSON(fmt.Sprintf("%s[%d]", path, i), exp[i], act[i], diffs)
		}
	default:
		if !reflect.DeepEqual(expected, actual) {
			*diffs = append(*diffs, verifier.Difference{
				Kind:     verifier.KindBody,
				Path:     path,
				Expected: render(expected),
				Actual:   render(actual),
				Message:  fmt.Sprintf("expected %s but was %s", render(expected), render(actual)),
			})
		}
	}
}

func typeMismatch(path string, expected, actual any) verifier.Difference {
	return verifier.Difference{
		Kind:     verifier.KindBody,
		Path:     path,
		Expected: render(expected),
		Actual:   render(actual),
		Message:  fmt.Sprintf("expected %s but was %s", jsonType(expected), jsonType(actual)),
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func childPath(parent, key string) string {
	if identifier.MatchString(key) {
		return parent + "." + key
	}
	return parent + "['" + strings.ReplaceAll(key, "'", `\'`) + "']"
}

func jsonType(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case float64:
		return "a number"
	case bool:
		return "a boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func render(v any) string {
	b, err := jsonAPI.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return truncate(string(b), 200)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
