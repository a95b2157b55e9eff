package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Error codes.
const (
	CodeRead   = "E201" // file could not be read
	CodeFormat = "E202" // unsupported file extension
	CodeParse  = "E203" // syntax or type error in the file
	CodeSchema = "E204" // value outside the schema
)

// LoadError is one configuration problem. Line and Column are zero when
// the problem has no source position.
type LoadError struct {
	Code    string
	Path    string
	Message string
	File    string
	Line    int
	Column  int
}

func (e *LoadError) Error() string {
	var b strings.Builder
	if e.File != "" {
		b.WriteString(e.File)
		if e.Line > 0 {
			fmt.Fprintf(&b, ":%d:%d", e.Line, e.Column)
		}
		b.WriteString(": ")
	}
	b.WriteString(e.Code)
	b.WriteString(": ")
	if e.Path != "" {
		b.WriteString(e.Path)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	return b.String()
}

// LoadErrors collects every problem found in one file.
type LoadErrors []*LoadError

func (errs LoadErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "\n")
}

// Load reads the configuration file at path on top of Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{Code: CodeRead, File: path, Message: err.Error()}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return loadYAML(path, data)
	case ".cue":
		return loadCUE(path, data)
	default:
		return Config{}, &LoadError{
			Code:    CodeFormat,
			File:    path,
			Message: fmt.Sprintf("unsupported config format %q (want .yaml, .yml or .cue)", filepath.Ext(path)),
		}
	}
}

// Validate checks cfg against the schema and the cross-field rules.
// It is applied after command-line overrides as well as after Load.
func Validate(cfg Config) error {
	return validate(cfg, "", nil)
}

func loadYAML(path string, data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &LoadError{Code: CodeParse, File: path, Message: err.Error()}
	}

	// Keep the node tree so schema errors can point at a line.
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return Config{}, &LoadError{Code: CodeParse, File: path, Message: err.Error()}
	}
	if err := validate(cfg, path, &root); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, fromCUE(CodeParse, err)
	}

	v = schema(ctx).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Config{}, fromCUE(CodeSchema, err)
	}

	cfg := Default()
	if err := v.Decode(&cfg); err != nil {
		return Config{}, fromCUE(CodeParse, err)
	}
	if err := validate(cfg, path, nil); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// schema returns the #Config definition.
func schema(ctx *cue.Context) cue.Value {
	return ctx.CompileString(schemaSource, cue.Filename("schema.cue")).
		LookupPath(cue.ParsePath("#Config"))
}

func validate(cfg Config, file string, root *yaml.Node) error {
	ctx := cuecontext.New()

	var errs LoadErrors
	v := schema(ctx).Unify(ctx.Encode(cfg))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		for _, e := range fromCUE(CodeSchema, err) {
			// Positions from an encoded Go value are meaningless; use the
			// file's own when we have it.
			e.File, e.Line, e.Column = file, 0, 0
			if root != nil {
				e.Line, e.Column = nodePosition(root, e.Path)
			}
			errs = append(errs, e)
		}
	}

	s := cfg.Source
	if s.Since != "" && s.Until != "" && s.Since > s.Until {
		errs = append(errs, &LoadError{
			Code:    CodeSchema,
			Path:    "source.since",
			File:    file,
			Message: fmt.Sprintf("since %s is after until %s", s.Since, s.Until),
		})
	}
	if s.DateColumn == "" && (s.Since != "" || s.Until != "") {
		errs = append(errs, &LoadError{
			Code:    CodeSchema,
			Path:    "source.date_column",
			File:    file,
			Message: "a date window needs a date column",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// fromCUE converts a CUE error tree into LoadErrors with positions.
func fromCUE(code string, err error) LoadErrors {
	var errs LoadErrors
	for _, e := range cueerrors.Errors(err) {
		le := &LoadError{Code: code, Path: strings.Join(e.Path(), ".")}
		format, args := e.Msg()
		le.Message = fmt.Sprintf(format, args...)
		// Prefer a position in the user's file over one in the schema.
		for _, pos := range cueerrors.Positions(e) {
			if !pos.IsValid() {
				continue
			}
			if le.File == "" || (le.File == "schema.cue" && pos.Filename() != "schema.cue") {
				le.File, le.Line, le.Column = pos.Filename(), pos.Line(), pos.Column()
			}
		}
		errs = append(errs, le)
	}
	if len(errs) == 0 {
		errs = append(errs, &LoadError{Code: code, Message: err.Error()})
	}
	return errs
}

// nodePosition finds the YAML key at the dotted path. It returns the
// deepest key it can reach, so a problem inside an unknown subtree still
// points somewhere useful.
func nodePosition(root *yaml.Node, path string) (int, int) {
	n := root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	line, col := 0, 0
	for _, key := range strings.Split(path, ".") {
		if n.Kind != yaml.MappingNode {
			break
		}
		found := false
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				line, col = n.Content[i].Line, n.Content[i].Column
				n = n.Content[i+1]
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return line, col
}
