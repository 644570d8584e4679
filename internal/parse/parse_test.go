package parse

import (
	"testing"

	"github.com/enftools/classmap/internal/lang"
	"github.com/enftools/classmap/internal/model"
)

// sdkBaseSource is the base-SDK fixture verbatim.
const sdkBaseSource = `// Base SDK classes for testing
// This file contains common base classes that are used across tests

class Class {
    proto static Class Cast(Class from);
}


class Managed extends Class {}

class IEntity extends Managed {}

class Object extends IEntity {}

class ObjectTyped extends Object {}

class Entity extends ObjectTyped {}

class EntityAI extends Entity {}

class Man extends EntityAI {}

class PlayerBase extends Man {
    void SomeMethod() {}
    int GetHealth() { return 100; }
    bool m_ActionQBControl;
}

class DayZPlayer extends PlayerBase {}

class PlayerIdentity {
}

class ParamsReadContext {
}
`

func parseSource(t *testing.T, src string) []model.ClassDecl {
	t.Helper()
	l := lang.Languages["enscript"]
	if l == nil {
		t.Fatal("enscript language not registered")
	}
	q, err := l.GetClassQuery()
	if err != nil {
		t.Fatalf("GetClassQuery: %v", err)
	}
	return ExtractClasses(l, l.NewParser(), q, []byte(src), "test.c")
}

func declsByName(decls []model.ClassDecl) map[string]model.ClassDecl {
	m := make(map[string]model.ClassDecl, len(decls))
	for _, d := range decls {
		m[d.Name] = d
	}
	return m
}

func TestExtractClassesEmpty(t *testing.T) {
	t.Parallel()

	if decls := parseSource(t, ""); decls != nil {
		t.Errorf("expected nil for empty source, got %v", decls)
	}
}

func TestExtractClassesFixtureChain(t *testing.T) {
	t.Parallel()

	decls := parseSource(t, sdkBaseSource)
	if len(decls) != 12 {
		t.Fatalf("parsed %d classes, want 12: %+v", len(decls), decls)
	}

	supers := map[string]string{
		"Class":             "",
		"Managed":           "Class",
		"IEntity":           "Managed",
		"Object":            "IEntity",
		"ObjectTyped":       "Object",
		"Entity":            "ObjectTyped",
		"EntityAI":          "Entity",
		"Man":               "EntityAI",
		"PlayerBase":        "Man",
		"DayZPlayer":        "PlayerBase",
		"PlayerIdentity":    "",
		"ParamsReadContext": "",
	}

	byName := declsByName(decls)
	for name, super := range supers {
		d, ok := byName[name]
		if !ok {
			t.Errorf("class %s not parsed", name)
			continue
		}
		if d.Superclass != super {
			t.Errorf("%s superclass = %q, want %q", name, d.Superclass, super)
		}
		if d.File != "test.c" || d.Line == 0 {
			t.Errorf("%s position = %s:%d", name, d.File, d.Line)
		}
	}
}

func TestExtractClassesSourceOrder(t *testing.T) {
	t.Parallel()

	decls := parseSource(t, sdkBaseSource)
	if decls[0].Name != "Class" || decls[len(decls)-1].Name != "ParamsReadContext" {
		t.Errorf("declaration order not preserved: %s .. %s",
			decls[0].Name, decls[len(decls)-1].Name)
	}
	for i := 1; i < len(decls); i++ {
		if decls[i].Line <= decls[i-1].Line {
			t.Errorf("lines not increasing at %s: %d after %d",
				decls[i].Name, decls[i].Line, decls[i-1].Line)
		}
	}
}

func TestExtractProtoMethod(t *testing.T) {
	t.Parallel()

	byName := declsByName(parseSource(t, sdkBaseSource))
	root := byName["Class"]
	if len(root.Members) != 1 {
		t.Fatalf("Class members = %+v, want exactly Cast", root.Members)
	}
	cast := root.Members[0]
	if cast.Kind != model.Method || cast.Name != "Cast" {
		t.Fatalf("member = %+v", cast)
	}
	if !cast.Native {
		t.Error("proto method not flagged native")
	}
	if !cast.Static {
		t.Error("static modifier not detected")
	}
	if cast.Type != "Class" {
		t.Errorf("return type = %q, want Class", cast.Type)
	}
	if len(cast.Params) != 1 || cast.Params[0] != "Class" {
		t.Errorf("params = %v, want [Class]", cast.Params)
	}
}

func TestExtractPlayerBaseMembers(t *testing.T) {
	t.Parallel()

	byName := declsByName(parseSource(t, sdkBaseSource))
	pb := byName["PlayerBase"]
	if len(pb.Members) != 3 {
		t.Fatalf("PlayerBase members = %+v, want 3", pb.Members)
	}

	some, health, field := pb.Members[0], pb.Members[1], pb.Members[2]

	if some.Kind != model.Method || some.Name != "SomeMethod" || some.Type != "void" {
		t.Errorf("SomeMethod = %+v", some)
	}
	if some.Native {
		t.Error("SomeMethod has a body, must not be native")
	}
	if health.Kind != model.Method || health.Name != "GetHealth" || health.Type != "int" {
		t.Errorf("GetHealth = %+v", health)
	}
	if field.Kind != model.Field || field.Name != "m_ActionQBControl" || field.Type != "bool" {
		t.Errorf("m_ActionQBControl = %+v", field)
	}
	if field.Static {
		t.Error("instance field flagged static")
	}
}

func TestExtractMultipleDeclarators(t *testing.T) {
	t.Parallel()

	decls := parseSource(t, "class Stats { int m_Health, m_Blood; }\n")
	if len(decls) != 1 {
		t.Fatalf("parsed %d classes, want 1", len(decls))
	}
	members := decls[0].Members
	if len(members) != 2 {
		t.Fatalf("members = %+v, want 2 fields", members)
	}
	if members[0].Name != "m_Health" || members[1].Name != "m_Blood" {
		t.Errorf("declarator names = %s, %s", members[0].Name, members[1].Name)
	}
	for _, m := range members {
		if m.Kind != model.Field || m.Type != "int" {
			t.Errorf("member = %+v", m)
		}
	}
}

func TestExtractStaticField(t *testing.T) {
	t.Parallel()

	decls := parseSource(t, "class Config { static int GLOBAL_LIMIT; }\n")
	if len(decls) != 1 || len(decls[0].Members) != 1 {
		t.Fatalf("decls = %+v", decls)
	}
	if !decls[0].Members[0].Static {
		t.Error("static field modifier not detected")
	}
}
