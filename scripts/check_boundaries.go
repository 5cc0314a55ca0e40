package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "strawpoll"

// layerRule describes what a layer directory under a context may import.
// Allowed entries are relative to the context ("domain") unless they start
// with the module path or name a third-party package.
type layerRule struct {
	allowed       []string
	thirdParty    []string
	anyThirdParty bool
	noAdapters    bool
	noPlatform    bool
}

var layerRules = map[string]layerRule{
	"domain": {
		allowed: []string{"domain"},
		thirdParty: []string{
			"github.com/ethereum/go-ethereum/crypto",
			"github.com/ethereum/go-ethereum/common",
		},
		noAdapters: true,
		noPlatform: true,
	},
	"ports": {
		allowed:    []string{"domain", modulePath + "/contracts"},
		noAdapters: true,
		noPlatform: true,
	},
	"application": {
		allowed:    []string{"application", "domain", "ports", modulePath + "/contracts"},
		noAdapters: true,
		noPlatform: true,
	},
	"transport": {
		allowed:    []string{"transport"},
		noAdapters: true,
		noPlatform: true,
	},
	"adapters": {
		allowed:       []string{"adapters", "application", "domain", "ports", "transport", modulePath + "/contracts"},
		anyThirdParty: true,
		noPlatform:    true,
	},
}

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

func main() {
	root := flag.String("root", "contexts", "directory holding bounded contexts")
	flag.Parse()

	violations := collectViolations(*root)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		a, b := violations[i], violations[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Import < b.Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// collectViolations walks contexts/<context>/<service>/<layer>/... files.
func collectViolations(root string) []violation {
	var out []violation
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, relErr := filepath.Rel(filepath.Dir(filepath.Clean(root)), path)
		if relErr != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) < 5 {
			return nil
		}
		prefix := strings.Join([]string{modulePath, "contexts", parts[1], parts[2]}, "/")
		out = append(out, validateFile(path, filepath.ToSlash(rel), parts[3], prefix)...)
		return nil
	})
	return out
}

func validateFile(path string, normalizedPath string, layer string, modulePrefix string) []violation {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return []violation{{File: normalizedPath, Line: 1, Rule: "file must parse"}}
	}

	rule, known := layerRules[layer]
	var out []violation
	for _, imp := range file.Imports {
		importPath := strings.Trim(imp.Path.Value, `"`)
		report := func(reason string) {
			out = append(out, violation{
				File:   normalizedPath,
				Line:   fset.Position(imp.Pos()).Line,
				Import: importPath,
				Rule:   reason,
			})
		}

		if hasPrefix(importPath, modulePath+"/contexts") && !hasPrefix(importPath, modulePrefix) {
			report("cross-module imports are forbidden")
		}
		if !known {
			continue
		}
		if rule.noAdapters && hasPrefix(importPath, modulePrefix+"/adapters") {
			report(layer + " must not import adapters")
		}
		if rule.noPlatform && isInfrastructure(importPath) {
			report(layer + " must not import runtime infrastructure")
		}
		if !rule.permits(importPath, modulePrefix) {
			report(layer + " import is outside explicit allowlist")
		}
	}
	return out
}

func (r layerRule) permits(importPath string, modulePrefix string) bool {
	if isStdlib(importPath) {
		return true
	}
	if !hasPrefix(importPath, modulePath) {
		return r.anyThirdParty || isAllowed(importPath, r.thirdParty)
	}
	for _, entry := range r.allowed {
		if !hasPrefix(entry, modulePath) {
			entry = modulePrefix + "/" + entry
		}
		if hasPrefix(importPath, entry) {
			return true
		}
	}
	return false
}

func isInfrastructure(importPath string) bool {
	return hasPrefix(importPath, modulePath+"/internal") ||
		hasPrefix(importPath, modulePath+"/cmd")
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isAllowed(importPath string, allowedPrefixes []string) bool {
	for _, p := range allowedPrefixes {
		if hasPrefix(importPath, p) {
			return true
		}
	}
	return false
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return first != modulePath && !strings.Contains(first, ".")
}
