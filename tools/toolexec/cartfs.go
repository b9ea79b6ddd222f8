package toolexec

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
	"strings"
	"unicode"
)

// cartfsEmbed describes a global cartfs.FS declaration found in the compiled
// package: the variable's name and the //go:embed patterns of the embed.FS it
// wraps.
type cartfsEmbed struct {
	Pkg      string
	Name     string
	Patterns []string
}

// SymbolName returns the name the linker will use for the variable.
func (c cartfsEmbed) SymbolName() string {
	return c.Pkg + "." + c.Name
}

// scanCartfsEmbed parses the package sources and collects all global
// cartfs.FS variable declarations initialized with cartfs.Embed.
func scanCartfsEmbed(files []string, pkgname string) (decls []cartfsEmbed, err error) {
	importsCartfs := false
	fset := token.NewFileSet()
	pkgast := make(map[string]*ast.File)
	for _, file := range files {
		pkgast[file], err = parser.ParseFile(fset, file, nil, parser.ParseComments)
		if err != nil {
			return
		}
		for _, importSpec := range pkgast[file].Imports {
			if importSpec.Path.Value == `"github.com/nkraut/n64/drivers/cartfs"` {
				importsCartfs = true
			}
		}
	}

	if !importsCartfs {
		return
	}

	// Inspect all global variable declarations
	mappings := make(map[string]cartfsEmbed)
	for _, file := range pkgast {
		for _, decl := range file.Decls {
			if decl, ok := decl.(*ast.GenDecl); ok {
				if decl.Tok != token.VAR {
					continue
				}

				if err = inspectVarDecl(decl, mappings); err != nil {
					return nil, fmt.Errorf("%v: %v", file.Name.Name, err)
				}
			}
		}
	}

	decls = make([]cartfsEmbed, 0)
	for _, v := range mappings {
		if v.Name == "" {
			continue // embed.FS without a cartfs wrapper
		}
		decls = append(decls, cartfsEmbed{
			Pkg:      pkgname,
			Name:     v.Name,
			Patterns: v.Patterns,
		})
	}
	return
}

// inspectVarDecl searches decl for cartfs.FS initializations via cartfs.Embed()
// and for embed.FS initializations via go:embed. The results are stored in
// mapping, using the embed.FS variables name as key.
//
// FIXME package cartfs or embed might be imported under a different name
func inspectVarDecl(decl *ast.GenDecl, mapping map[string]cartfsEmbed) error {
	var embedfsSpecs, cartfsSpecs []*ast.ValueSpec
	for _, spec := range decl.Specs {
		if spec, ok := spec.(*ast.ValueSpec); ok {
			if stype, ok := spec.Type.(*ast.SelectorExpr); ok {
				if stype.Sel.String() != "FS" {
					continue
				}
				if ident, ok := stype.X.(*ast.Ident); ok {
					if ident.String() == "cartfs" {
						cartfsSpecs = append(cartfsSpecs, spec)
					} else if ident.String() == "embed" {
						if spec.Doc == nil && decl.Lparen == 0 {
							spec.Doc = decl.Doc // TODO hackish
						}
						embedfsSpecs = append(embedfsSpecs, spec)
					}
				}
			}
		}
	}

	// Map each wrapped embed.FS to the cartfs.FS variable wrapping it
	for _, spec := range cartfsSpecs {
		for i := range spec.Values {
			initcall, ok := spec.Values[i].(*ast.CallExpr)
			if !ok || len(initcall.Args) != 1 {
				continue
			}
			initfun, ok := initcall.Fun.(*ast.SelectorExpr)
			if !ok || initfun.Sel.Name != "Embed" {
				continue
			}
			pkgident, ok := initfun.X.(*ast.Ident)
			if !ok || pkgident.String() != "cartfs" {
				continue
			}
			if embedfsRef, ok := initcall.Args[0].(*ast.Ident); ok {
				m := mapping[embedfsRef.Name]
				if m.Name != "" {
					return fmt.Errorf("multiple cartfs.FS embed the same embed.FS")
				}
				m.Name = spec.Names[i].Name
				mapping[embedfsRef.Name] = m
			}
		}
	}

	// Find go:embed patterns
	for _, spec := range embedfsSpecs {
		if len(spec.Names) != 1 {
			return fmt.Errorf("multiple embed.FS per go:embed directive")
		}
		if spec.Doc == nil {
			continue
		}
		var patterns []string
		for _, doc := range spec.Doc.List {
			if args, found := strings.CutPrefix(doc.Text, "//go:embed"); found {
				p, err := parseGoEmbed(args)
				if err != nil {
					return err
				}
				patterns = append(patterns, p...)
				m := mapping[spec.Names[0].Name]
				m.Patterns = patterns
				mapping[spec.Names[0].Name] = m
			}
		}
	}

	return nil
}

// parseGoEmbed splits the argument list of a //go:embed directive into
// patterns. Patterns are separated by spaces and may be quoted with double
// quotes or backquotes. Follows the grammar accepted by the go tool.
func parseGoEmbed(args string) ([]string, error) {
	trimBytes := func(n int) { args = strings.TrimSpace(args[n:]) }
	trimBytes(0)

	var list []string
	for len(args) > 0 {
		var path string
		switch args[0] {
		default:
			i := len(args)
			for j, c := range args {
				if unicode.IsSpace(c) {
					i = j
					break
				}
			}
			path = args[:i]
			trimBytes(i)

		case '`':
			i := strings.Index(args[1:], "`")
			if i < 0 {
				return nil, fmt.Errorf("invalid quoted string in //go:embed: %s", args)
			}
			path = args[1 : 1+i]
			trimBytes(1 + i + 1)

		case '"':
			i := 1
			for ; i < len(args); i++ {
				if args[i] == '\\' {
					i++
					continue
				}
				if args[i] == '"' {
					q, err := strconv.Unquote(args[:i+1])
					if err != nil {
						return nil, fmt.Errorf("invalid quoted string in //go:embed: %s", args[:i+1])
					}
					path = q
					break
				}
			}
			if i >= len(args) {
				return nil, fmt.Errorf("invalid quoted string in //go:embed: %s", args)
			}
			trimBytes(i + 1)
		}

		list = append(list, path)
	}
	return list, nil
}
