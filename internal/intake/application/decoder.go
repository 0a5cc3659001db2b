package application

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/url"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/ps1339880-hash/webhook-visitor/internal/intake/domain"
)

const (
	mediaJSON       = "application/json"
	mediaURLEncoded = "application/x-www-form-urlencoded"
	mediaMultipart  = "multipart/form-data"

	maxMultipartMemory = 1 << 20
)

// Decode parses a webhook body into a Tree. JSON bodies are taken as-is; form bodies are
// rebuilt from their bracket-path keys so both encodings yield the same shape.
func Decode(contentType string, body []byte) (domain.Tree, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = ""
	}

	switch {
	case mediaType == mediaJSON || strings.HasSuffix(mediaType, "+json"):
		return decodeJSON(mediaType, body)
	case mediaType == mediaURLEncoded:
		return decodeURLEncoded(mediaType, body)
	case mediaType == mediaMultipart:
		return decodeMultipart(mediaType, params["boundary"], body)
	}

	// 未宣言・未知の Content-Type は本文の先頭で判定する
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("{")) {
		return decodeJSON(mediaJSON, body)
	}
	return decodeURLEncoded(mediaURLEncoded, body)
}

func decodeJSON(mediaType string, body []byte) (domain.Tree, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, domain.NewDecodeError(mediaType, body, err)
	}
	var trailing any
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, domain.NewDecodeError(mediaType, body, errors.New("unexpected data after top-level value"))
	}
	object, ok := value.(map[string]any)
	if !ok {
		return nil, domain.NewDecodeError(mediaType, body, errors.New("top-level value must be an object"))
	}
	return domain.Tree(object), nil
}

func decodeURLEncoded(mediaType string, body []byte) (domain.Tree, error) {
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return nil, domain.NewDecodeError(mediaType, body, err)
	}
	return buildTree(values), nil
}

func decodeMultipart(mediaType, boundary string, body []byte) (domain.Tree, error) {
	if boundary == "" {
		return nil, domain.NewDecodeError(mediaType, body, errors.New("multipart boundary is missing"))
	}
	form, err := multipart.NewReader(bytes.NewReader(body), boundary).ReadForm(maxMultipartMemory)
	if err != nil {
		return nil, domain.NewDecodeError(mediaType, body, err)
	}
	defer form.RemoveAll()
	return buildTree(form.Value), nil
}

// buildTree nests flat bracket-path keys such as submissions[0][answers][1][questionId].
// Keys are applied in sorted order so conflicting paths resolve the same way every time.
func buildTree(values map[string][]string) domain.Tree {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		path := splitPath(key)
		if len(path) == 0 {
			continue
		}
		assign(root, path, leafValue(values[key]))
	}

	for key, child := range root {
		root[key] = collapse(child)
	}
	return domain.Tree(root)
}

func splitPath(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool {
		return r == '[' || r == ']'
	})
}

func assign(node map[string]any, path []string, value any) {
	for _, segment := range path[:len(path)-1] {
		child, ok := node[segment].(map[string]any)
		if !ok {
			child = make(map[string]any)
			node[segment] = child
		}
		node = child
	}
	node[path[len(path)-1]] = value
}

func leafValue(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	items := make([]any, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	return items
}

// collapse turns every mapping whose keys are all integers into a slice
// ordered by numeric key.
func collapse(value any) any {
	node, ok := value.(map[string]any)
	if !ok {
		return value
	}
	for key, child := range node {
		node[key] = collapse(child)
	}
	if ordered, ok := orderedItems(node); ok {
		return ordered
	}
	return node
}

// indexedKey is a bracket index of any size. Magnitudes are compared as digit strings so
// indices beyond the int range still order correctly.
type indexedKey struct {
	key      string
	negative bool
	digits   string
}

func (k indexedKey) less(other indexedKey) bool {
	if k.negative != other.negative {
		return k.negative
	}
	if k.digits != other.digits {
		smaller := len(k.digits) < len(other.digits) ||
			(len(k.digits) == len(other.digits) && k.digits < other.digits)
		if k.negative {
			return !smaller
		}
		return smaller
	}
	return k.key < other.key
}

// orderedItems returns the values of an integer-keyed mapping in numeric key order.
func orderedItems(node map[string]any) ([]any, bool) {
	if len(node) == 0 {
		return nil, false
	}
	keys := make([]indexedKey, 0, len(node))
	for key := range node {
		index, ok := parseIndex(key)
		if !ok {
			return nil, false
		}
		keys = append(keys, index)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].less(keys[j])
	})

	items := make([]any, 0, len(keys))
	for _, k := range keys {
		items = append(items, node[k.key])
	}
	return items, true
}

// parseIndex accepts an optionally signed run of decimal digits.
func parseIndex(key string) (indexedKey, bool) {
	digits := strings.TrimPrefix(key, "-")
	if digits == "" {
		return indexedKey{}, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return indexedKey{}, false
		}
	}
	digits = strings.TrimLeft(digits, "0")
	if digits == "" {
		digits = "0"
	}
	return indexedKey{
		key:      key,
		negative: strings.HasPrefix(key, "-") && digits != "0",
		digits:   digits,
	}, true
}
