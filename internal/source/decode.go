package source

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

const shapeMessage = "expected a list of rows or a map of named rows"

func decodeYAML(path string, data []byte, table string) ([]map[string]any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Path: path, Message: err.Error()}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return emptyOrMissing(path, table)
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return emptyOrMissing(path, table)
	}

	if table != "" {
		if root.Kind != yaml.MappingNode {
			return nil, yamlError(path, root, fmt.Sprintf("table %q requested but the document root is not a map", table))
		}
		node, ok := yamlLookup(root, table)
		if !ok {
			return nil, yamlError(path, root, fmt.Sprintf("no table %q", table))
		}
		root = node
	}

	var items []*yaml.Node
	switch root.Kind {
	case yaml.SequenceNode:
		items = root.Content
	case yaml.MappingNode:
		for i := 1; i < len(root.Content); i += 2 {
			items = append(items, root.Content[i])
		}
	case yaml.ScalarNode:
		if root.Tag == "!!null" {
			return []map[string]any{}, nil
		}
		return nil, yamlError(path, root, shapeMessage)
	default:
		return nil, yamlError(path, root, shapeMessage)
	}

	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if item.Kind == yaml.AliasNode && item.Alias != nil {
			item = item.Alias
		}
		if item.Kind != yaml.MappingNode {
			return nil, yamlError(path, item, "row must be a map")
		}
		var row map[string]any
		if err := item.Decode(&row); err != nil {
			return nil, yamlError(path, item, err.Error())
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func yamlLookup(m *yaml.Node, key string) (*yaml.Node, bool) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], true
		}
	}
	return nil, false
}

func yamlError(path string, n *yaml.Node, msg string) error {
	return &DecodeError{Path: path, Line: n.Line, Column: n.Column, Message: msg}
}

func emptyOrMissing(path, table string) ([]map[string]any, error) {
	if table != "" {
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("no table %q", table)}
	}
	return []map[string]any{}, nil
}

// decodeJSON decodes with UseNumber so large integer ids survive. A root
// map's rows are ordered by key, since JSON objects carry no order.
func decodeJSON(path string, data []byte, table string) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return emptyOrMissing(path, table)
		}
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			line, col := offsetPosition(data, syntaxErr.Offset)
			return nil, &DecodeError{Path: path, Line: line, Column: col, Message: syntaxErr.Error()}
		}
		return nil, &DecodeError{Path: path, Message: err.Error()}
	}

	if table != "" {
		m, ok := doc.(map[string]any)
		if !ok {
			return nil, &DecodeError{Path: path, Message: fmt.Sprintf("table %q requested but the document root is not an object", table)}
		}
		if doc, ok = m[table]; !ok {
			return nil, &DecodeError{Path: path, Message: fmt.Sprintf("no table %q", table)}
		}
	}

	var items []any
	switch root := doc.(type) {
	case nil:
		return []map[string]any{}, nil
	case []any:
		items = root
	case map[string]any:
		keys := make([]string, 0, len(root))
		for k := range root {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			items = append(items, root[k])
		}
	default:
		return nil, &DecodeError{Path: path, Message: shapeMessage}
	}

	rows := make([]map[string]any, 0, len(items))
	for i, item := range items {
		row, ok := item.(map[string]any)
		if !ok {
			return nil, &DecodeError{Path: path, Message: fmt.Sprintf("row %d must be an object, got %T", i, item)}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func decodeCUE(path string, data []byte, table string) ([]map[string]any, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, cueError(path, err)
	}

	if table != "" {
		v = v.LookupPath(cue.ParsePath(table))
		if !v.Exists() {
			return nil, &DecodeError{Path: path, Message: fmt.Sprintf("no table %q", table)}
		}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, cueError(path, err)
	}

	var items []cue.Value
	switch v.Kind() {
	case cue.NullKind:
		return []map[string]any{}, nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, cueError(path, err)
		}
		for iter.Next() {
			items = append(items, iter.Value())
		}
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, cueError(path, err)
		}
		for iter.Next() {
			items = append(items, iter.Value())
		}
	default:
		return nil, cuePosError(path, v, shapeMessage)
	}

	rows := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if item.Kind() != cue.StructKind {
			return nil, cuePosError(path, item, "row must be a struct")
		}
		var row map[string]any
		if err := item.Decode(&row); err != nil {
			return nil, cueError(path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cuePosError(path string, v cue.Value, msg string) error {
	pos := v.Pos()
	if !pos.IsValid() {
		return &DecodeError{Path: path, Message: msg}
	}
	return &DecodeError{Path: path, Line: pos.Line(), Column: pos.Column(), Message: msg}
}
