// Package parse extracts class declarations from script files using tree-sitter.
package parse

import (
	"context"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/enftools/classmap/internal/lang"
	"github.com/enftools/classmap/internal/model"
)

// ExtractClasses parses a source file and returns its class declarations in
// source order. The parser must be created for the given language.
// filePath is used only for ClassDecl.File and should be the root-relative path.
func ExtractClasses(l *lang.Language, parser *sitter.Parser, query *sitter.Query, source []byte, filePath string) []model.ClassDecl {
	if len(source) == 0 {
		return nil
	}

	if l.Preprocess != nil {
		source = l.Preprocess(source)
	}

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil
	}
	defer tree.Close()

	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(query, tree.RootNode())

	var decls []model.ClassDecl

	for {
		match, ok := qc.NextMatch()
		if !ok {
			break
		}
		match = qc.FilterPredicates(match, source)

		var nameNode, defNode *sitter.Node
		for _, c := range match.Captures {
			switch query.CaptureNameForId(c.Index) {
			case "name":
				nameNode = c.Node
			case "definition.class":
				defNode = c.Node
			}
		}
		if nameNode == nil || defNode == nil {
			continue
		}

		decl := model.ClassDecl{
			Name:       lang.NodeText(nameNode, source),
			Superclass: superclassName(defNode, source),
			File:       filePath,
			Line:       int(nameNode.StartPoint().Row) + 1,
		}
		if body := defNode.ChildByFieldName("body"); body != nil {
			decl.Members = extractMembers(body, source)
		}
		decls = append(decls, decl)
	}

	return decls
}

func superclassName(classNode *sitter.Node, source []byte) string {
	super := classNode.ChildByFieldName("superclass")
	if super == nil {
		return ""
	}
	// superclass node is `extends <type>`; the type is its only named child.
	if t := super.NamedChild(0); t != nil {
		return lang.NodeText(t, source)
	}
	return ""
}

func extractMembers(body *sitter.Node, source []byte) []model.Member {
	var members []model.Member
	for i := 0; i < int(body.NamedChildCount()); i++ {
		child := body.NamedChild(i)
		switch child.Type() {
		case "field_declaration":
			members = append(members, fieldMembers(child, source)...)
		case "method_declaration":
			members = append(members, methodMember(child, source))
		}
	}
	return members
}

// fieldMembers returns one Member per declarator, so `int a, b;` yields two.
func fieldMembers(decl *sitter.Node, source []byte) []model.Member {
	mods := modifierSet(decl)
	typeName := ""
	if t := decl.ChildByFieldName("type"); t != nil {
		typeName = lang.NodeText(t, source)
	}

	var members []model.Member
	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(i)
		if child.Type() != "variable_declarator" {
			continue
		}
		name := child.ChildByFieldName("name")
		if name == nil {
			continue
		}
		members = append(members, model.Member{
			Kind:   model.Field,
			Name:   lang.NodeText(name, source),
			Type:   typeName,
			Static: mods["static"],
			Line:   int(name.StartPoint().Row) + 1,
		})
	}
	return members
}

func methodMember(decl *sitter.Node, source []byte) model.Member {
	mods := modifierSet(decl)

	m := model.Member{
		Kind:   model.Method,
		Static: mods["static"],
		// proto was rewritten to native before parsing; a missing body
		// means the same thing (declared without an implementation).
		Native: mods["native"] || decl.ChildByFieldName("body") == nil,
	}
	if t := decl.ChildByFieldName("type"); t != nil {
		m.Type = lang.NodeText(t, source)
	}
	if name := decl.ChildByFieldName("name"); name != nil {
		m.Name = lang.NodeText(name, source)
		m.Line = int(name.StartPoint().Row) + 1
	}
	if params := decl.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			if p.Type() != "formal_parameter" {
				continue
			}
			if t := p.ChildByFieldName("type"); t != nil {
				m.Params = append(m.Params, lang.NodeText(t, source))
			}
		}
	}
	return m
}

func modifierSet(decl *sitter.Node) map[string]bool {
	mods := make(map[string]bool)
	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			mods[child.Child(j).Type()] = true
		}
	}
	return mods
}
