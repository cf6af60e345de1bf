package script

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schema/action-script.json
var schemaFS embed.FS

const schemaID = "action-script.json"

// Problem is one schema violation in a script document.
type Problem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Path != "" {
		return p.Path + ": " + p.Message
	}
	return p.Message
}

var (
	compiled    *jsonschema.Schema
	compileErr  error
	compileOnce sync.Once
)

// Schema returns the compiled action script schema. It is compiled once per
// process.
func Schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		data, err := schemaFS.ReadFile("schema/" + schemaID)
		if err != nil {
			compileErr = fmt.Errorf("read embedded schema: %w", err)
			return
		}
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			compileErr = fmt.Errorf("parse embedded schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaID, doc); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaID)
	})
	return compiled, compileErr
}

// Check validates an already parsed document and returns every leaf
// violation. A nil result means the document is a well-formed script.
func Check(doc any) ([]Problem, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}
	err = s.Validate(doc)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Problem{{Message: err.Error()}}, nil
	}
	return collect(ve), nil
}

func collect(ve *jsonschema.ValidationError) []Problem {
	if len(ve.Causes) == 0 {
		path := ""
		if len(ve.InstanceLocation) > 0 {
			path = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		return []Problem{{Path: path, Message: ve.Error()}}
	}
	var out []Problem
	for _, cause := range ve.Causes {
		out = append(out, collect(cause)...)
	}
	return out
}
