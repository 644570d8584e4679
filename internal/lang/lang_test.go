package lang

import (
	"strings"
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	if got := ForExtension(".c"); got != "enscript" {
		t.Errorf("ForExtension(.c) = %q, want enscript", got)
	}
	if got := ForExtension(".py"); got != "" {
		t.Errorf("ForExtension(.py) = %q, want empty", got)
	}
}

func TestGetClassQuery(t *testing.T) {
	t.Parallel()

	l := Languages["enscript"]
	if l == nil {
		t.Fatal("enscript language not registered")
	}
	q, err := l.GetClassQuery()
	if err != nil {
		t.Fatalf("GetClassQuery: %v", err)
	}
	if q == nil {
		t.Fatal("nil query")
	}

	// Cached on second call.
	q2, err := l.GetClassQuery()
	if err != nil || q2 != q {
		t.Errorf("second GetClassQuery = %v, %v", q2, err)
	}
}

func TestRewriteProto(t *testing.T) {
	t.Parallel()

	src := "proto static Class Cast(Class from);\nint protoCount;\n"
	got := string(rewriteProto([]byte(src)))
	if !strings.HasPrefix(got, "native static") {
		t.Errorf("proto keyword not rewritten: %q", got)
	}
	if !strings.Contains(got, "protoCount") {
		t.Errorf("identifier containing proto was mangled: %q", got)
	}
}
