package lang

import (
	"regexp"

	"github.com/smacker/go-tree-sitter/java"
)

// The declaration subset of Enforce-style script (class headers with
// `extends`, fields, methods, `static`) is valid Java. The one keyword Java
// lacks is `proto`, which marks a bodiless method resolved by the host
// engine; Java's `native` modifier has exactly those semantics, so a token
// rewrite lets the bundled Java grammar carry the whole subset.
var protoRe = regexp.MustCompile(`\bproto\b`)

func init() {
	Languages["enscript"] = &Language{
		Name:       "enscript",
		Extensions: []string{".c"},
		lang:       java.GetLanguage(),
		Preprocess: rewriteProto,
	}
}

func rewriteProto(source []byte) []byte {
	return protoRe.ReplaceAll(source, []byte("native"))
}
