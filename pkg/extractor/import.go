// Import binding extraction.
package extractor

import (
	ts "github.com/tree-sitter/go-tree-sitter"
)

// extractImports collects one binding per local name introduced by the
// top-level import statements of a file.
//
// Handles all ES import styles:
//   - import Button from "./Button"          → DefaultImport
//   - import * as Icons from "./icons"       → NamespaceImport
//   - import { Card, Row as R } from "ui"    → NamedImport (alias honoured)
//   - import type { Props } from "./types"   → NamedImport
func extractImports(root *ts.Node, source []byte) []ImportBinding {
	var bindings []ImportBinding

	for i := uint(0); i < root.NamedChildCount(); i++ {
		stmt := root.NamedChild(i)
		if stmt.Kind() != "import_statement" {
			continue
		}

		sourceNode := stmt.ChildByFieldName("source")
		if sourceNode == nil {
			continue
		}
		spec := ModuleSpecifier(stringContent(sourceNode, source))

		for j := uint(0); j < stmt.NamedChildCount(); j++ {
			clause := stmt.NamedChild(j)
			if clause.Kind() == "import_clause" {
				bindings = appendClauseBindings(bindings, clause, spec, source)
			}
		}
	}

	return bindings
}

func appendClauseBindings(bindings []ImportBinding, clause *ts.Node, spec ModuleSpecifier, source []byte) []ImportBinding {
	for i := uint(0); i < clause.NamedChildCount(); i++ {
		child := clause.NamedChild(i)
		switch child.Kind() {
		case "identifier":
			bindings = append(bindings, ImportBinding{
				Source:    spec,
				Imported:  DefaultImport{},
				LocalName: child.Utf8Text(source),
			})
		case "namespace_import":
			if local := firstNamedChild(child); local != nil {
				bindings = append(bindings, ImportBinding{
					Source:    spec,
					Imported:  NamespaceImport{},
					LocalName: local.Utf8Text(source),
				})
			}
		case "named_imports":
			for j := uint(0); j < child.NamedChildCount(); j++ {
				specifier := child.NamedChild(j)
				if specifier.Kind() != "import_specifier" {
					continue
				}
				if binding, ok := namedBinding(specifier, spec, source); ok {
					bindings = append(bindings, binding)
				}
			}
		}
	}
	return bindings
}

func namedBinding(specifier *ts.Node, spec ModuleSpecifier, source []byte) (ImportBinding, bool) {
	nameNode := specifier.ChildByFieldName("name")
	if nameNode == nil {
		return ImportBinding{}, false
	}

	name := nameNode.Utf8Text(source)
	if nameNode.Kind() == "string" {
		name = stringContent(nameNode, source)
	}

	local := name
	if alias := specifier.ChildByFieldName("alias"); alias != nil {
		local = alias.Utf8Text(source)
	}

	return ImportBinding{
		Source:    spec,
		Imported:  NamedImport{Name: name},
		LocalName: local,
	}, true
}
