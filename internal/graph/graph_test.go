package graph

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestExecutionGroupsDiamond(t *testing.T) {
	g, err := Build([]Node{
		{Name: "top", Needs: []string{"left", "right"}},
		{Name: "left", Needs: []string{"base"}},
		{Name: "right", Needs: []string{"base"}},
		{Name: "base"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := [][]string{{"base"}, {"left", "right"}, {"top"}}
	if got := g.ExecutionGroups(); !reflect.DeepEqual(got, want) {
		t.Fatalf("groups=%v want %v", got, want)
	}
}

func TestApplyAndDestroyOrderAreExactReverses(t *testing.T) {
	g, err := Build([]Node{
		{Name: "orchestration", Needs: []string{"identity", "registry"}},
		{Name: "identity"},
		{Name: "registry"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	apply := g.ApplyOrder()
	if !reflect.DeepEqual(apply, []string{"identity", "registry", "orchestration"}) {
		t.Fatalf("apply order=%v", apply)
	}
	destroy := g.DestroyOrder()
	for i := range apply {
		if destroy[i] != apply[len(apply)-1-i] {
			t.Fatalf("destroy order %v is not the reverse of apply order %v", destroy, apply)
		}
	}
}

func TestCycleDetectionNamesParticipants(t *testing.T) {
	_, err := Build([]Node{
		{Name: "a", Needs: []string{"b"}},
		{Name: "b", Needs: []string{"c"}},
		{Name: "c", Needs: []string{"a"}},
	})
	if err == nil {
		t.Fatalf("expected cycle error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "cycle") {
		t.Fatalf("error does not mention cycle: %v", err)
	}
	for _, name := range []string{"a", "b", "c"} {
		if !strings.Contains(msg, name) {
			t.Fatalf("cycle error missing participant %s: %v", name, err)
		}
	}
}

func TestMissingDependencyRejected(t *testing.T) {
	_, err := Build([]Node{{Name: "a", Needs: []string{"nope"}}})
	if err == nil || !strings.Contains(err.Error(), "missing stack") {
		t.Fatalf("expected missing stack error, got %v", err)
	}
}

func TestSelfDependencyRejected(t *testing.T) {
	_, err := Build([]Node{{Name: "a", Needs: []string{"a"}}})
	if err == nil || !strings.Contains(err.Error(), "itself") {
		t.Fatalf("expected self dependency error, got %v", err)
	}
}

func TestDuplicateNodeRejected(t *testing.T) {
	_, err := Build([]Node{{Name: "a"}, {Name: "a"}})
	if err == nil || !strings.Contains(err.Error(), "duplicate") {
		t.Fatalf("expected duplicate error, got %v", err)
	}
}

func TestTransitiveWalks(t *testing.T) {
	g, err := Build([]Node{
		{Name: "top", Needs: []string{"mid"}},
		{Name: "mid", Needs: []string{"base"}},
		{Name: "base"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := g.DepsOf("top"); !reflect.DeepEqual(got, []string{"base", "mid"}) {
		t.Fatalf("deps=%v", got)
	}
	if got := g.DependentsOf("base"); !reflect.DeepEqual(got, []string{"mid", "top"}) {
		t.Fatalf("dependents=%v", got)
	}
}

func TestPrintDOT(t *testing.T) {
	g, err := Build([]Node{
		{Name: "svc", Needs: []string{"db"}},
		{Name: "db"},
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var buf bytes.Buffer
	PrintDOT(&buf, g)
	out := buf.String()
	if !strings.Contains(out, `"db" -> "svc";`) {
		t.Fatalf("dot output missing edge:\n%s", out)
	}
}
