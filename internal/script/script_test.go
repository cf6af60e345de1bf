package script

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nalgeon/be"

	"qasm3/internal/ast"
	"qasm3/internal/compiler"
	"qasm3/internal/diag"
	"qasm3/internal/testkit"
	"qasm3/internal/types"
)

func replayFile(t *testing.T, name string) (*compiler.Unit, *Script) {
	t.Helper()
	s, err := Load(filepath.Join("testdata", name))
	be.Err(t, err, nil)
	u := compiler.NewUnit(compiler.Options{Name: s.Unit, File: 1})
	be.Err(t, Replay(u, s), nil)
	return u, s
}

func TestSchemaCompiles(t *testing.T) {
	s, err := Schema()
	be.Err(t, err, nil)
	be.True(t, s != nil)
}

func TestDecodeRejectsMalformedScripts(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		path string
	}{
		{"missing version", `{"actions": []}`, ""},
		{"wrong version", `{"version": 2, "actions": []}`, "/version"},
		{"unknown action", `{"version": 1, "actions": [{"action": "goto"}]}`, "/actions/0/action"},
		{"declare without type", `{"version": 1, "actions": [{"action": "declare", "name": "x"}]}`, "/actions/0"},
		{"unknown operator", `{"version": 1, "actions": [{"action": "expr", "value":
			{"kind": "binary", "op": "<>", "left": {"kind": "int", "text": "1"}, "right": {"kind": "int", "text": "2"}}}]}`,
			"/actions/0/value/op"},
		{"bad span", `{"version": 1, "actions": [{"action": "break", "at": [1]}]}`, "/actions/0/at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.name, []byte(tt.doc))
			be.True(t, errors.Is(err, ErrInvalid))
			var inv *InvalidError
			be.True(t, errors.As(err, &inv))
			be.True(t, len(inv.Problems) > 0)
			found := false
			for _, p := range inv.Problems {
				if p.Path == tt.path {
					found = true
				}
			}
			be.True(t, found)
		})
	}
}

func TestDecodeRejectsBrokenJSON(t *testing.T) {
	_, err := Decode("broken", []byte(`{"version": 1,`))
	be.True(t, err != nil)
	be.True(t, !errors.Is(err, ErrInvalid))
}

func TestDecodeDefaultsUnitName(t *testing.T) {
	s, err := Decode("prog.json", []byte(`{"version": 1, "actions": []}`))
	be.Err(t, err, nil)
	be.Equal(t, s.Unit, "prog.json")
}

func TestReplayCleanProgram(t *testing.T) {
	u, s := replayFile(t, "bell.json")
	be.Equal(t, s.Unit, "bell")
	be.Equal(t, s.Source, "bell.qasm")
	be.True(t, !u.Diagnostics().HasErrors())

	res := u.Finish()
	be.True(t, !res.Diagnostics.HasErrors())
	be.Equal(t, res.Statements, 6)

	names := map[string]string{}
	for _, e := range res.Entities {
		names[e.Name] = e.Mangled
	}
	be.Equal(t, names["q"], "_Qqc2_1q_E")
	be.Equal(t, names["c"], "_Qc2_1c_E")
	be.True(t, strings.HasPrefix(names["h2"], "_QG0_2h2P1"))
	be.Err(t, testkit.CheckFinished(u, res), nil)
}

func TestReplayReportsSemanticErrors(t *testing.T) {
	u, _ := replayFile(t, "broken.json")
	bag := u.Diagnostics()
	be.True(t, bag.HasCode(diag.SemaDuplicateSymbol))
	be.True(t, bag.HasCode(diag.CfgBreakOutsideLoop))
	be.Equal(t, u.Lookup("x").Type, types.Int)

	res := u.Finish()
	be.True(t, res.Diagnostics.HasCode(diag.CfgUnclosedConstruct))
	be.Err(t, testkit.CheckFinished(u, res), nil)
}

func TestReplayBlocks(t *testing.T) {
	doc := `{"version": 1, "actions": [
		{"action": "def", "name": "twice", "params": [{"name": "n", "type": "int"}], "result": "int"},
		{"action": "return", "value": {"kind": "binary", "op": "*",
			"left": {"kind": "ident", "name": "n"}, "right": {"kind": "int", "text": "2"}}},
		{"action": "enddef"},
		{"action": "declare", "name": "k", "type": "int", "init":
			{"kind": "call", "name": "twice", "args": [{"kind": "int", "text": "3"}]}},
		{"action": "for", "name": "i", "start": {"kind": "int", "text": "0"}, "stop": {"kind": "int", "text": "4"}},
		{"action": "assign", "op": "+=", "target": {"kind": "ident", "name": "k"}, "value": {"kind": "ident", "name": "i"}},
		{"action": "endfor"},
		{"action": "switch", "subject": {"kind": "ident", "name": "k"}},
		{"action": "case", "labels": [{"kind": "int", "text": "1"}]},
		{"action": "endcase"},
		{"action": "default"},
		{"action": "endcase"},
		{"action": "endswitch"},
		{"action": "extern", "name": "ext", "params": [{"name": "a", "type": "angle"}], "result": "bit"},
		{"action": "defcal", "name": "x", "qubits": ["$0"]},
		{"action": "enddefcal"},
		{"action": "cal"},
		{"action": "declare", "name": "freq", "type": "double"},
		{"action": "endcal"}
	]}`
	s, err := Decode("blocks", []byte(doc))
	be.Err(t, err, nil)
	u := compiler.NewUnit(compiler.Options{Name: s.Unit, File: 1})
	be.Err(t, Replay(u, s), nil)
	be.True(t, !u.Diagnostics().HasErrors())
	be.Equal(t, u.Depth(), 0)
	be.True(t, u.Lookup("i") == nil)
	be.True(t, u.Lookup("freq") == nil)
	be.Equal(t, u.Lookup("ext").Type, types.Kernel)
	be.Err(t, testkit.CheckContexts(u.Ctx), nil)
}

func TestReplayDurationOf(t *testing.T) {
	doc := `{"version": 1, "actions": [
		{"action": "qubit", "name": "q"},
		{"action": "delay", "qubits": [{"kind": "ident", "name": "q"}], "duration":
			{"kind": "durationof", "body": [{"action": "reset", "target": {"kind": "ident", "name": "q"}}]}}
	]}`
	s, err := Decode("durationof", []byte(doc))
	be.Err(t, err, nil)
	u := compiler.NewUnit(compiler.Options{Name: s.Unit, File: 1})
	be.Err(t, Replay(u, s), nil)
	be.True(t, !u.Diagnostics().HasErrors())
}

func TestAssignOp(t *testing.T) {
	r := &replayer{}
	be.Equal(t, r.assignOp(""), ast.BinaryOp(0))
	be.Equal(t, r.assignOp("="), ast.BinaryOp(0))
	be.Equal(t, r.assignOp("+="), ast.BinAdd)
	be.Equal(t, r.assignOp("<<="), ast.BinShl)
	be.Err(t, r.err, nil)
	r.assignOp("??=")
	be.True(t, errors.Is(r.err, ErrReplay))
	var re *ReplayError
	be.True(t, errors.As(r.err, &re))
	be.Equal(t, re.Code, diag.ScrBadOperand)

	// only the first failure is kept
	r.failf(diag.ScrUnknownAction, "later")
	be.Equal(t, r.err.(*ReplayError).Code, diag.ScrBadOperand)
}
