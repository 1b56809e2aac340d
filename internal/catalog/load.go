package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"
)

// Error codes for catalog loading.
const (
	ErrCodeRead          = "C001" // file could not be read
	ErrCodeFormat        = "C002" // unknown file extension
	ErrCodeParse         = "C003" // YAML/CUE syntax or build error
	ErrCodeMissingName   = "C101" // process without a name
	ErrCodeDuplicate     = "C102" // process defined twice
	ErrCodeUnknownMember = "C103" // combine references an unknown process
	ErrCodeSharedMember  = "C104" // process listed in two combinations
)

// LoadError describes a problem with a catalog file.
type LoadError struct {
	File    string
	Code    string
	Message string
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is (or wraps) a LoadError with code.
// An empty code matches any LoadError.
func IsLoadError(err error, code string) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	return code == "" || le.Code == code
}

// LoadFile reads a catalog, choosing the decoder from the file extension.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Code: ErrCodeRead, Message: err.Error()}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path, data)
	case ".cue":
		return parseCUE(path, data)
	default:
		return nil, &LoadError{File: path, Code: ErrCodeFormat,
			Message: fmt.Sprintf("unsupported catalog extension %q (want .yaml, .yml or .cue)", filepath.Ext(path))}
	}
}

// ParseYAML decodes a YAML catalog.
func ParseYAML(data []byte) (*Catalog, error) {
	return parseYAML("", data)
}

// ParseCUE decodes a CUE catalog. The value must be concrete.
func ParseCUE(data []byte) (*Catalog, error) {
	return parseCUE("", data)
}

func parseYAML(file string, data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, &LoadError{File: file, Code: ErrCodeParse, Message: fmt.Sprintf("decoding YAML: %v", err)}
	}
	if err := c.normalize(file); err != nil {
		return nil, err
	}
	return &c, nil
}

func parseCUE(file string, data []byte) (*Catalog, error) {
	ctx := cuecontext.New()
	opts := []cue.BuildOption{}
	if file != "" {
		opts = append(opts, cue.Filename(file))
	}
	value := ctx.CompileBytes(data, opts...)
	if err := value.Err(); err != nil {
		return nil, &LoadError{File: file, Code: ErrCodeParse, Message: fmt.Sprintf("building CUE value: %v", err)}
	}
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, &LoadError{File: file, Code: ErrCodeParse, Message: fmt.Sprintf("validating CUE value: %v", err)}
	}

	var c Catalog
	if err := value.Decode(&c); err != nil {
		return nil, &LoadError{File: file, Code: ErrCodeParse, Message: fmt.Sprintf("decoding CUE value: %v", err)}
	}
	if err := c.normalize(file); err != nil {
		return nil, err
	}
	return &c, nil
}
