package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/refset/internal/model"
	"github.com/roach88/refset/internal/queryir"
	"github.com/roach88/refset/internal/source"
)

// DataOptions are the flags shared by commands that read a data file.
type DataOptions struct {
	Type        string // record type name; derived from the file when empty
	Table       string // document key or SQLite table
	InputFormat string // overrides extension detection
}

func addDataFlags(cmd *cobra.Command, opts *DataOptions) {
	cmd.Flags().StringVar(&opts.Type, "type", "", "record type name (default: from the table or file name)")
	cmd.Flags().StringVar(&opts.Table, "table", "", "document key or SQLite table to read")
	cmd.Flags().StringVar(&opts.InputFormat, "input-format", "", "data format (yaml|json|cue|sqlite; default: from the extension)")
}

// Loaded is a data file read into a model.
type Loaded struct {
	Dataset *source.Dataset
	Model   *model.Model
}

// loadData reads path and loads its rows into a new model. Failures are
// reported through f and returned as *ExitError.
func loadData(ctx context.Context, root *RootOptions, data *DataOptions, path string, f *OutputFormatter, filter queryir.Predicate) (*Loaded, error) {
	ds, err := readData(ctx, root, data, path, filter)
	if err != nil {
		return nil, reportLoadError(f, path, err)
	}

	m, err := newModel(root, data, ds)
	if err != nil {
		return nil, reportLoadError(f, path, err)
	}
	return &Loaded{Dataset: ds, Model: m}, nil
}

// readData reads path. A non-nil filter is pushed down to the reader.
func readData(ctx context.Context, root *RootOptions, data *DataOptions, path string, filter queryir.Predicate) (*source.Dataset, error) {
	format, err := source.ParseFormat(data.InputFormat)
	if err != nil {
		return nil, err
	}
	return source.Read(ctx, path, source.Options{
		Format: format,
		Table:  data.Table,
		Filter: filter,
		Logger: root.logger(),
	})
}

func newModel(root *RootOptions, data *DataOptions, ds *source.Dataset) (*model.Model, error) {
	typeName := data.Type
	if typeName == "" {
		typeName = ds.TypeName()
	}

	m := model.New(typeName, model.WithLogger(root.logger()))
	if err := m.Load(ds.Rows); err != nil {
		return nil, err
	}
	return m, nil
}

// reportLoadError maps a read or load failure to an error code and exit
// code. Duplicate ids and reserved fields are data problems (exit 1);
// everything else is a command error (exit 2).
func reportLoadError(f *OutputFormatter, path string, err error) error {
	switch {
	case errors.Is(err, os.ErrNotExist):
		return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("data file not found: %s", path), nil)
	case source.IsFileTypeMismatch(err):
		return f.Fail(ExitCommandError, ErrCodeFileType, "file type mismatch", err)
	case source.IsDecodeError(err):
		return f.Fail(ExitCommandError, ErrCodeDecode, "malformed data", err)
	case model.IsIdError(err):
		return f.Fail(ExitFailure, ErrCodeDuplicateID, "invalid ids", err)
	case model.IsReservedField(err):
		return f.Fail(ExitFailure, ErrCodeReserved, "reserved field", err)
	default:
		return f.Fail(ExitCommandError, ErrCodeGeneric, fmt.Sprintf("cannot load %s", path), err)
	}
}

// parseScalar reads a command-line value as a YAML scalar, so "3" is a
// number, "true" a bool, "null" nil and "[CA, PE]" a list.
func parseScalar(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil {
		return s
	}
	if _, isMap := v.(map[string]any); isMap {
		return s
	}
	return v
}

// parseConditions turns "field=value" pairs into conditions.
func parseConditions(pairs []string) (model.Conditions, error) {
	conds := make(model.Conditions, len(pairs))
	for _, pair := range pairs {
		field, raw, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("condition %q must be field=value", pair)
		}
		conds[field] = parseScalar(raw)
	}
	return conds, nil
}

func parseArgs(args []string) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = parseScalar(a)
	}
	return out
}
