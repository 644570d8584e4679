package toon

import (
	"strings"
	"testing"

	"github.com/enftools/classmap/internal/model"
)

func sampleMap() *model.HierarchyMap {
	return &model.HierarchyMap{
		Profile: "base",
		Root:    "sdk",
		Classes: []model.ClassEntry{
			{
				ClassDecl: model.ClassDecl{
					Name: "Class",
					File: "sdk_base.c",
					Line: 4,
					Members: []model.Member{
						{
							Kind: model.Method, Name: "Cast", Type: "Class",
							Params: []string{"Class"}, Native: true, Static: true, Line: 5,
						},
					},
				},
			},
			{
				ClassDecl: model.ClassDecl{
					Name: "Managed", Superclass: "Class", File: "sdk_base.c", Line: 9,
				},
				Depth: 1,
			},
		},
	}
}

func TestEncodeHeader(t *testing.T) {
	t.Parallel()

	out := Encode(sampleMap())
	if !strings.HasPrefix(out, "profile: base\nroot: sdk\n") {
		t.Errorf("header missing:\n%s", out)
	}
}

func TestEncodeClassesTable(t *testing.T) {
	t.Parallel()

	out := Encode(sampleMap())
	if !strings.Contains(out, "classes[2]{name,extends,depth,incomplete,file,line}:") {
		t.Errorf("classes table header missing:\n%s", out)
	}
	if !strings.Contains(out, "\n  Managed,Class,1,\"false\",sdk_base.c,9") {
		t.Errorf("Managed row missing or malformed:\n%s", out)
	}
	// Empty superclass encodes as an explicit empty string.
	if !strings.Contains(out, "\n  Class,\"\",0,\"false\",sdk_base.c,4") {
		t.Errorf("Class row missing or malformed:\n%s", out)
	}
}

func TestEncodeMembersTable(t *testing.T) {
	t.Parallel()

	out := Encode(sampleMap())
	if !strings.Contains(out, "members[1]{class,name,kind,type,params,native,static,line}:") {
		t.Errorf("members table header missing:\n%s", out)
	}
	if !strings.Contains(out, "\n  Class,Cast,method,Class,Class,\"true\",\"true\",5") {
		t.Errorf("Cast row missing or malformed:\n%s", out)
	}
}

func TestEncodeDiagnosticsOmittedWhenEmpty(t *testing.T) {
	t.Parallel()

	out := Encode(sampleMap())
	if strings.Contains(out, "incomplete[") || strings.Contains(out, "duplicates[") {
		t.Errorf("empty diagnostics tables should be omitted:\n%s", out)
	}
}

func TestEncodeDiagnostics(t *testing.T) {
	t.Parallel()

	hm := sampleMap()
	hm.Diagnostics = model.Diagnostics{
		Incomplete:        []model.IncompleteClass{{Class: "Orphan", Missing: "GhostParent"}},
		DuplicatesSkipped: []string{"Class"},
	}

	out := Encode(hm)
	if !strings.Contains(out, "incomplete[1]{class,missing}:\n  Orphan,GhostParent") {
		t.Errorf("incomplete table missing:\n%s", out)
	}
	if !strings.Contains(out, "duplicates[1]{class}:\n  Class") {
		t.Errorf("duplicates table missing:\n%s", out)
	}
}
