package asg

import (
	"github.com/tidwall/btree"

	"github.com/protospec-dev/protospec/ast"
	"github.com/protospec-dev/protospec/parser"
	"github.com/protospec-dev/protospec/reporter"
)

// ProgramFromAST analyzes a parsed schema into a Program. Imports are
// loaded recursively through the resolver, analyzed once per
// normalized path, and cached for the duration of the compilation.
func ProgramFromAST(prog *ast.Program, resolver ImportResolver) (*Program, error) {
	var cache btree.Map[string, *Program]
	if err := loadImports(prog, resolver, &cache); err != nil {
		return nil, err
	}
	return analyzeProgram(prog, resolver, &cache)
}

// loadImports walks import declarations depth-first, parsing and
// analyzing each imported file into the cache. Re-entry on an already
// cached path is a no-op.
func loadImports(prog *ast.Program, resolver ImportResolver, cache *btree.Map[string, *Program]) error {
	for _, decl := range prog.Declarations {
		imp, ok := decl.(*ast.ImportDeclaration)
		if !ok {
			continue
		}
		path := string(imp.From.Content)
		normalized, err := resolver.NormalizeImport(path)
		if err != nil {
			return err
		}
		if _, ok := cache.Get(normalized); ok {
			continue
		}
		content, found, err := resolver.ResolveImport(normalized)
		if err != nil {
			return err
		}
		if !found {
			return reporter.Error(imp.From.Loc, &ErrImportMissing{Path: path, Loc: imp.From.Loc})
		}
		parsed, err := parser.Parse(content)
		if err != nil {
			return reporter.Error(imp.From.Loc, &ErrImportParse{Path: path, Loc: imp.From.Loc, Cause: err})
		}
		if err := loadImports(parsed, resolver, cache); err != nil {
			return err
		}
		analyzed, err := analyzeProgram(parsed, resolver, cache)
		if err != nil {
			return err
		}
		cache.Set(normalized, analyzed)
	}
	return nil
}

// analyzeProgram is the lowering pass. It walks the declaration list
// once per category so that later categories can forward-reference
// earlier ones regardless of source position: first every FFI
// declaration is registered, then every import is resolved, then
// consts and enum types lower, and only then are placeholders
// allocated for the remaining types and their bodies filled in
// argument scopes. Cycle detection runs last.
func analyzeProgram(prog *ast.Program, resolver ImportResolver, cache *btree.Map[string, *Program]) (*Program, error) {
	program := &Program{}
	scope := &Scope{Program: program}

	// prelude functions are available without declaration
	preludeFns, err := resolver.PreludeFFIFunctions()
	if err != nil {
		return nil, err
	}
	for name, fn := range preludeFns {
		program.Functions.Set(name, &Function{
			Name:      name,
			Inner:     fn,
			Arguments: fn.Arguments(),
		})
	}

	// pass 1: register ffi declarations
	for _, decl := range prog.Declarations {
		if d, ok := decl.(*ast.FFIDeclaration); ok {
			if err := registerFFI(program, d, resolver); err != nil {
				return nil, err
			}
		}
	}

	// pass 2: resolve imported symbols
	for _, decl := range prog.Declarations {
		if d, ok := decl.(*ast.ImportDeclaration); ok {
			if err := resolveImportItems(program, d, resolver, cache); err != nil {
				return nil, err
			}
		}
	}

	// pass 3: lower consts and enum types; both carry no arguments
	// and are needed for forward references from other types' default
	// arguments. Bitfields lower lazily with the remaining types.
	for _, decl := range prog.Declarations {
		switch d := decl.(type) {
		case *ast.ConstDeclaration:
			if err := lowerConst(scope, d); err != nil {
				return nil, err
			}
		case *ast.TypeDeclaration:
			if _, ok := d.Value.Type.Raw.(*ast.EnumDef); !ok {
				continue
			}
			if prev, ok := program.Types.Get(d.Name.Name); ok {
				return nil, reporter.Error(d.Loc, &ErrRedefinition{
					Kind: "type", Name: d.Name.Name, NewSpan: d.Loc, OldSpan: prev.Span,
				})
			}
			typ, err := scope.convertASTType(d.Value.Type.Raw, true, d.Name.Name)
			if err != nil {
				return nil, err
			}
			program.Types.Set(d.Name.Name, &Field{
				Name:     d.Name.Name,
				Span:     d.Loc,
				Type:     typ,
				Toplevel: true,
			})
		}
	}

	// pass 4: allocate placeholders for the remaining types
	var pending []*ast.TypeDeclaration
	for _, decl := range prog.Declarations {
		d, ok := decl.(*ast.TypeDeclaration)
		if !ok {
			continue
		}
		if _, ok := d.Value.Type.Raw.(*ast.EnumDef); ok {
			continue
		}
		if prev, ok := program.Types.Get(d.Name.Name); ok {
			return nil, reporter.Error(d.Loc, &ErrRedefinition{
				Kind: "type", Name: d.Name.Name, NewSpan: d.Loc, OldSpan: prev.Span,
			})
		}
		program.Types.Set(d.Name.Name, &Field{
			Name:     d.Name.Name,
			Span:     d.Value.Loc,
			Type:     Bool, // placeholder until the body lowers
			Toplevel: true,
		})
		pending = append(pending, d)
	}

	// pass 5: fill bodies in fresh argument scopes
	for _, d := range pending {
		field, _ := program.Types.Get(d.Name.Name)
		argScope, err := scope.convertASTFieldArguments(field, d.Arguments)
		if err != nil {
			return nil, err
		}
		if err := argScope.convertASTField(&d.Value, field); err != nil {
			return nil, err
		}
	}

	program.ScanCycles()
	return program, nil
}

func resolveImportItems(program *Program, imp *ast.ImportDeclaration, resolver ImportResolver, cache *btree.Map[string, *Program]) error {
	path := string(imp.From.Content)
	normalized, err := resolver.NormalizeImport(path)
	if err != nil {
		return err
	}
	cached, ok := cache.Get(normalized)
	if !ok {
		return reporter.Error(imp.From.Loc, &ErrImportMissing{Path: path, Loc: imp.From.Loc})
	}
	for _, item := range imp.Items {
		name := item.Name.Name
		importedName := name
		if item.Alias != nil {
			importedName = item.Alias.Name
		}
		if t, ok := cached.Types.Get(name); ok {
			program.Types.Set(importedName, t)
		} else if c, ok := cached.Consts.Get(name); ok {
			program.Consts.Set(importedName, c)
		} else if tr, ok := cached.Transforms.Get(name); ok {
			program.Transforms.Set(importedName, tr)
		} else if fn, ok := cached.Functions.Get(name); ok {
			program.Functions.Set(importedName, fn)
		} else {
			return reporter.Error(item.Name.Loc, &ErrImportUnresolved{
				Item: name, Path: normalized, Loc: item.Name.Loc,
			})
		}
	}
	return nil
}

func registerFFI(program *Program, decl *ast.FFIDeclaration, resolver ImportResolver) error {
	name := decl.Name.Name
	switch decl.Kind {
	case ast.FFIType:
		obj, err := resolver.ResolveFFIType(name)
		if err != nil {
			return err
		}
		if obj == nil {
			return reporter.Error(decl.Loc, &ErrFFIMissing{Name: name, Loc: decl.Loc})
		}
		if prev, ok := program.Types.Get(name); ok {
			return reporter.Error(decl.Loc, &ErrRedefinition{
				Kind: "type", Name: name, NewSpan: decl.Loc, OldSpan: prev.Span,
			})
		}
		program.Types.Set(name, &Field{
			Name:      name,
			Arguments: obj.Arguments(),
			Span:      decl.Loc,
			Type:      &ForeignType{Name: name, Span: decl.Loc, Obj: obj},
			Toplevel:  true,
		})
	case ast.FFITransform:
		obj, err := resolver.ResolveFFITransform(name)
		if err != nil {
			return err
		}
		if obj == nil {
			return reporter.Error(decl.Loc, &ErrFFIMissing{Name: name, Loc: decl.Loc})
		}
		if prev, ok := program.Transforms.Get(name); ok {
			return reporter.Error(decl.Loc, &ErrRedefinition{
				Kind: "transform", Name: name, NewSpan: decl.Loc, OldSpan: prev.Span,
			})
		}
		program.Transforms.Set(name, &Transform{
			Name: name, Span: decl.Loc, Inner: obj, Arguments: obj.Arguments(),
		})
	case ast.FFIFunction:
		obj, err := resolver.ResolveFFIFunction(name)
		if err != nil {
			return err
		}
		if obj == nil {
			return reporter.Error(decl.Loc, &ErrFFIMissing{Name: name, Loc: decl.Loc})
		}
		if prev, ok := program.Functions.Get(name); ok {
			return reporter.Error(decl.Loc, &ErrRedefinition{
				Kind: "function", Name: name, NewSpan: decl.Loc, OldSpan: prev.Span,
			})
		}
		program.Functions.Set(name, &Function{
			Name: name, Span: decl.Loc, Inner: obj, Arguments: obj.Arguments(),
		})
	}
	return nil
}

func lowerConst(scope *Scope, decl *ast.ConstDeclaration) error {
	program := scope.Program
	if prev, ok := program.Consts.Get(decl.Name.Name); ok {
		return reporter.Error(decl.Loc, &ErrRedefinition{
			Kind: "const", Name: decl.Name.Name, NewSpan: decl.Loc, OldSpan: prev.Span,
		})
	}
	typ, err := scope.convertASTType(decl.Type.Raw, false, decl.Name.Name)
	if err != nil {
		return err
	}
	switch typ.(type) {
	case *ContainerType, *EnumType, *BitfieldType:
		return reporter.Error(decl.Loc, &ErrConstTypeDefinition{Name: decl.Name.Name, Loc: decl.Loc})
	}
	value, err := scope.convertExpr(decl.Value, PartialOf(typ))
	if err != nil {
		return err
	}
	program.Consts.Set(decl.Name.Name, &Const{
		Name:  decl.Name.Name,
		Span:  decl.Loc,
		Type:  typ,
		Value: value,
	})
	return nil
}
