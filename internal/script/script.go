// Package script reads action scripts: the serialised output of an external
// OpenQASM 3 parser. A script is a flat list of actions in source order,
// with Begin/End pairs for every block, validated against an embedded JSON
// Schema and replayed through a compiler.Unit.
package script

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"qasm3/internal/diag"
)

var (
	// ErrInvalid wraps every schema violation.
	ErrInvalid = errors.New("invalid action script")
	// ErrReplay is returned when a valid script still cannot be replayed.
	ErrReplay = errors.New("cannot replay action script")
)

// InvalidError lists the schema violations of one document.
type InvalidError struct {
	Name     string
	Problems []Problem
}

func (e *InvalidError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d schema violation(s)", e.Name, len(e.Problems))
	for _, p := range e.Problems {
		sb.WriteString("\n  ")
		sb.WriteString(p.String())
	}
	return sb.String()
}

func (e *InvalidError) Unwrap() error { return ErrInvalid }

// ReplayError names the first action Replay could not express.
type ReplayError struct {
	// Action is the index of the offending action in the flattened order
	// of replay, nested bodies included.
	Action int
	Code   diag.Code
	Msg    string
}

func (e *ReplayError) Error() string {
	return fmt.Sprintf("%v: action %d: %s", ErrReplay, e.Action, e.Msg)
}

func (e *ReplayError) Unwrap() error { return ErrReplay }

// Script is one decoded action script.
type Script struct {
	Version int      `json:"version"`
	Unit    string   `json:"unit,omitempty"`
	Source  string   `json:"source,omitempty"`
	Actions []Action `json:"actions"`
}

// Param is a typed parameter of def, defcal and extern.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Bits uint32 `json:"bits,omitempty"`
}

// Action is one step of the replay. Which fields are set depends on Action;
// the schema enforces the combinations.
type Action struct {
	Action string   `json:"action"`
	At     []uint32 `json:"at,omitempty"`
	Braced *bool    `json:"braced,omitempty"`

	Name   string `json:"name,omitempty"`
	Type   string `json:"type,omitempty"`
	Bits   uint32 `json:"bits,omitempty"`
	Const  bool   `json:"const,omitempty"`
	Size   uint32 `json:"size,omitempty"`
	Length uint32 `json:"length,omitempty"`
	Op     string `json:"op,omitempty"`
	Result string `json:"result,omitempty"`

	Init     *Expr `json:"init,omitempty"`
	Target   *Expr `json:"target,omitempty"`
	Value    *Expr `json:"value,omitempty"`
	Cond     *Expr `json:"cond,omitempty"`
	Subject  *Expr `json:"subject,omitempty"`
	Duration *Expr `json:"duration,omitempty"`
	Start    *Expr `json:"start,omitempty"`
	Step     *Expr `json:"step,omitempty"`
	Stop     *Expr `json:"stop,omitempty"`

	Set    []*Expr `json:"set,omitempty"`
	Labels []*Expr `json:"labels,omitempty"`

	// Params and Qubits hold expressions for gate calls, names for gate
	// definitions and Param objects for def, defcal and extern.
	Params json.RawMessage `json:"params,omitempty"`
	Qubits json.RawMessage `json:"qubits,omitempty"`
}

// IsBraced reports whether the body opened by the action has braces.
// Absent means braced.
func (a *Action) IsBraced() bool {
	return a.Braced == nil || *a.Braced
}

// Expr is one expression tree node.
type Expr struct {
	Kind string   `json:"kind"`
	At   []uint32 `json:"at,omitempty"`

	Name  string `json:"name,omitempty"`
	Text  string `json:"text,omitempty"`
	Value bool   `json:"value,omitempty"`
	Op    string `json:"op,omitempty"`
	Type  string `json:"type,omitempty"`
	Bits  uint32 `json:"bits,omitempty"`
	Part  string `json:"part,omitempty"`

	Operand *Expr    `json:"operand,omitempty"`
	Left    *Expr    `json:"left,omitempty"`
	Right   *Expr    `json:"right,omitempty"`
	Base    *Expr    `json:"base,omitempty"`
	Index   *Expr    `json:"index,omitempty"`
	Args    []*Expr  `json:"args,omitempty"`
	Body    []Action `json:"body,omitempty"`
}

// Decode validates data against the schema and decodes it. name labels
// errors.
func Decode(name string, data []byte) (*Script, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	problems, err := Check(doc)
	if err != nil {
		return nil, err
	}
	if len(problems) > 0 {
		return nil, &InvalidError{Name: name, Problems: problems}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var s Script
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if s.Unit == "" {
		s.Unit = name
	}
	return &s, nil
}

// Load reads and decodes the script at path.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(path, data)
}
