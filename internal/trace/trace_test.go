package trace

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestLevelGatesScopes(t *testing.T) {
	if !LevelPhase.ShouldEmit(ScopePass) || LevelPhase.ShouldEmit(ScopeModule) {
		t.Fatalf("phase level gates wrong scopes")
	}
	if !LevelDebug.ShouldEmit(ScopeNode) {
		t.Fatalf("debug must emit node events")
	}
	if LevelOff.ShouldEmit(ScopeDriver) {
		t.Fatalf("off must emit nothing")
	}
}

func TestStreamTextSpan(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelDetail, FormatText)
	sp := BeginUnit(tr, ScopePass, "a.json", "replay", 0)
	sp.WithExtra("actions", "12").WithExtra("errors", "0")
	Point(tr, ScopeNode, "a.json", "ctx.push", "function")
	sp.End("ok")

	out := buf.String()
	if !strings.Contains(out, "→ replay [a.json]") {
		t.Fatalf("missing begin line:\n%s", out)
	}
	if !strings.Contains(out, "(ok) {actions=12, errors=0}") {
		t.Fatalf("missing sorted extras:\n%s", out)
	}
	if strings.Contains(out, "ctx.push") {
		t.Fatalf("node event leaked at detail level:\n%s", out)
	}
}

func TestRingKeepsTail(t *testing.T) {
	tr := NewRingTracer(2, LevelDebug)
	for _, name := range []string{"a", "b", "c"} {
		Point(tr, ScopeNode, "", name, "")
	}
	snap := tr.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	var buf bytes.Buffer
	if err := tr.Dump(&buf, FormatNDJSON); err != nil {
		t.Fatalf("dump: %v", err)
	}
	if strings.Count(buf.String(), "\n") != 2 || !strings.Contains(buf.String(), `"name":"c"`) {
		t.Fatalf("unexpected dump %q", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context must yield Nop")
	}
	tr := NewRingTracer(4, LevelPhase)
	ctx := WithTracer(context.Background(), tr)
	if FromContext(ctx) != Tracer(tr) {
		t.Fatalf("tracer lost in context")
	}
	sp := Begin(tr, ScopeDriver, "check", 0)
	ctx = WithSpan(ctx, sp)
	if CurrentSpan(ctx) != sp.ID() || sp.ID() == 0 {
		t.Fatalf("span id lost in context")
	}
}

func TestNewOffIsNop(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("off config must give a disabled tracer")
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected parse error")
	}
}
