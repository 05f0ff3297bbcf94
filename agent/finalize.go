package agent

import (
	"strings"

	"github.com/prpilot/prpilot/model"
)

const (
	uiTestSuffix    = ".test.tsx"
	plainTestSuffix = ".test.ts"
)

// uiExtensions are source extensions that mark a file as part of the
// component tree.
var uiExtensions = []string{".tsx", ".jsx"}

// sourceExtensions are stripped when deriving a file's logical name.
var sourceExtensions = []string{".test.tsx", ".test.ts", ".tsx", ".jsx", ".ts", ".js"}

// reactImportForms are the import specifiers that mark a file as using
// the UI framework. Substring matches on bare "react" would also hit
// words like "reaction", so only real import forms count.
var reactImportForms = []string{
	`from "react"`,
	`from 'react'`,
	`require("react")`,
	`require('react')`,
	`import "react"`,
	`import 'react'`,
}

// finalizeProposals normalizes every proposal's target extension based
// on whether the code under test is UI-related. The proposal's own
// extension is advisory only.
func finalizeProposals(prCtx *model.PRContext, proposals []model.TestProposal, uiPageRoot string) []model.TestProposal {
	out := make([]model.TestProposal, 0, len(proposals))
	for _, p := range proposals {
		p.Filename = normalizeExtension(p.Filename, isUIRelated(prCtx, p, uiPageRoot))
		out = append(out, p)
	}
	return out
}

// isUIRelated reports whether the code a proposal targets is UI code.
// When a changed file's logical name matches the proposal's, that file
// decides; otherwise the proposal is UI-related if any changed file is.
func isUIRelated(prCtx *model.PRContext, p model.TestProposal, uiPageRoot string) bool {
	target := logicalName(p.Filename)
	for _, f := range prCtx.ChangedFiles {
		if logicalName(f.Filename) == target {
			return isUIFile(f, uiPageRoot)
		}
	}
	for _, f := range prCtx.ChangedFiles {
		if isUIFile(f, uiPageRoot) {
			return true
		}
	}
	return false
}

func isUIFile(f model.ChangedFile, uiPageRoot string) bool {
	for _, ext := range uiExtensions {
		if strings.HasSuffix(f.Filename, ext) {
			return true
		}
	}
	if importsUIFramework(f.Content) {
		return true
	}
	return uiPageRoot != "" && strings.HasPrefix(f.Filename, uiPageRoot)
}

func importsUIFramework(content string) bool {
	for _, form := range reactImportForms {
		if strings.Contains(content, form) {
			return true
		}
	}
	return false
}

// logicalName strips directories, test markers, and source extensions
// so that "app/utils/foo.test.tsx" and "src/foo.ts" compare equal.
func logicalName(path string) string {
	name := path
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// normalizeExtension rewrites a proposal target to end in the test
// suffix matching its UI-relatedness, replacing whatever extension the
// model chose.
func normalizeExtension(path string, ui bool) string {
	for _, ext := range sourceExtensions {
		if strings.HasSuffix(path, ext) {
			path = strings.TrimSuffix(path, ext)
			break
		}
	}
	if ui {
		return path + uiTestSuffix
	}
	return path + plainTestSuffix
}
