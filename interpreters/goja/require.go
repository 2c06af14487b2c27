package goja

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// MakeFileLibraryProvider resolves "file://" names relative to the
// given directory.
func MakeFileLibraryProvider(dir string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad library name '%s'", name)
		}
		if parts[0] != "file" {
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
		bs, err := os.ReadFile(filepath.Join(dir, parts[1]))
		if err != nil {
			return "", err
		}
		return string(bs), nil
	}
}

// MakeMapLibraryProvider resolves names from the given map.
func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

// InlineRequires replaces top-level statements like
//
//    require("file://lib.js");
//
// with the source that the provider gives for that name.
//
// Goja can't easily combine Programs, so this function rewrites the
// source text based on positions in its AST.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {
	p, err := parser.ParseFile(nil, "", src, 0)
	if err != nil {
		return "", err
	}

	type required struct {
		from, to int
		name     string
	}

	requires := make([]required, 0, 8)

	for _, s := range p.Body {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}
		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}
		id, is := call.Callee.(*ast.Identifier)
		if !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}
		lit, is := call.ArgumentList[0].(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %#v", call.ArgumentList[0])
		}

		// AST positions are 1-based.  Skipping one character
		// past the end drops a trailing semicolon.
		to := int(exps.Idx1())
		if len(src) < to {
			to = len(src)
		}
		requires = append(requires, required{
			from: int(exps.Idx0()) - 1,
			to:   to,
			name: string(lit.Value),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var b strings.Builder
	at := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		b.WriteString(src[at:r.from])
		b.WriteString(lib)
		b.WriteString("\n")
		at = r.to
	}
	b.WriteString(src[at:])

	return b.String(), nil
}
