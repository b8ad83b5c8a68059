package resolver_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wulfhouse/pyrite/internal/ast"
	"github.com/wulfhouse/pyrite/internal/logger"
	"github.com/wulfhouse/pyrite/internal/resolver"
)

// fakeFS is an in-memory source tree keyed by file path, with a matching
// map of pre-built import lists per file so the fake parser can hand back
// a Program carrying the right Imports without a real lexer/parser.
type fakeFS struct {
	sources map[string]string
	imports map[string][]*ast.Import
}

func (f *fakeFS) exists(path string) bool {
	_, ok := f.sources[path]
	return ok
}

func (f *fakeFS) readFile(path string) (string, error) {
	src, ok := f.sources[path]
	if !ok {
		return "", resolver.ErrModuleNotFound
	}
	return src, nil
}

func (f *fakeFS) parse(source, filename string) (*ast.Program, error) {
	return &ast.Program{Imports: f.imports[filename]}, nil
}

func imp(path ...string) *ast.Import { return &ast.Import{Path: path} }

func TestResolvePathStdlibUsesFirstAndLastSegmentOnly(t *testing.T) {
	fs := &fakeFS{sources: map[string]string{
		"/std/collections/list.pyrite": "",
	}}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj"}
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, logger.NewDeferLog())

	path, ok := r.ResolvePath([]string{"std", "collections", "deeply", "nested", "list"})
	require.True(t, ok)
	require.Equal(t, "/std/collections/list.pyrite", path)
}

func TestResolvePathNonStdlibPreservesEverySegment(t *testing.T) {
	fs := &fakeFS{sources: map[string]string{
		"/proj/utils/math.pyrite": "",
	}}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj"}
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, logger.NewDeferLog())

	path, ok := r.ResolvePath([]string{"utils", "math"})
	require.True(t, ok)
	require.Equal(t, "/proj/utils/math.pyrite", path)
}

func TestLoadEntryPointReturnsModulesInDependencyFirstOrder(t *testing.T) {
	fs := &fakeFS{
		sources: map[string]string{
			"/proj/a.pyrite": "",
			"/proj/b.pyrite": "",
			"/proj/c.pyrite": "",
		},
		imports: map[string][]*ast.Import{
			"/main.pyrite":   {imp("a")},
			"/proj/a.pyrite": {imp("b"), imp("c")},
		},
	}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj"}
	log := logger.NewDeferLog()
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, log)

	_, modules, err := r.LoadEntryPoint("/main.pyrite", "")
	require.NoError(t, err)
	require.Empty(t, log.Done())

	keys := make([]string, len(modules))
	for i, m := range modules {
		keys[i] = m.ImportKey
	}
	require.Equal(t, []string{"b", "c", "a", "main"}, keys)
}

func TestCircularImportReportsDiagnosticAndDoesNotHang(t *testing.T) {
	fs := &fakeFS{
		sources: map[string]string{
			"/proj/a.pyrite": "",
			"/proj/b.pyrite": "",
		},
		imports: map[string][]*ast.Import{
			"/main.pyrite":   {imp("a")},
			"/proj/a.pyrite": {imp("b")},
			"/proj/b.pyrite": {imp("a")},
		},
	}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj"}
	log := logger.NewDeferLog()
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, log)

	_, _, err := r.LoadEntryPoint("/main.pyrite", "")
	require.NoError(t, err)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.CodeCircularImport, msgs[0].Code)
}

func TestMissingModuleReportsErrorByDefault(t *testing.T) {
	fs := &fakeFS{
		sources: map[string]string{},
		imports: map[string][]*ast.Import{
			"/main.pyrite": {imp("nope")},
		},
	}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj"}
	log := logger.NewDeferLog()
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, log)

	_, _, err := r.LoadEntryPoint("/main.pyrite", "")
	require.NoError(t, err)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.Error, msgs[0].Kind)
	require.Equal(t, logger.CodeModuleNotFound, msgs[0].Code)
}

func TestMissingModuleDowngradesToWarningWhenConfigured(t *testing.T) {
	fs := &fakeFS{
		sources: map[string]string{},
		imports: map[string][]*ast.Import{
			"/main.pyrite": {imp("nope")},
		},
	}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj", DowngradeMissingModuleToWarning: true}
	log := logger.NewDeferLog()
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, log)

	_, _, err := r.LoadEntryPoint("/main.pyrite", "")
	require.NoError(t, err)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.Warning, msgs[0].Kind)
}

func TestMissingStdlibModuleIsNeverDowngraded(t *testing.T) {
	fs := &fakeFS{
		sources: map[string]string{},
		imports: map[string][]*ast.Import{
			"/main.pyrite": {imp("std", "nope")},
		},
	}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj", DowngradeMissingModuleToWarning: true}
	log := logger.NewDeferLog()
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, log)

	_, _, err := r.LoadEntryPoint("/main.pyrite", "")
	require.NoError(t, err)

	msgs := log.Done()
	require.Len(t, msgs, 1)
	require.Equal(t, logger.Error, msgs[0].Kind, "a missing stdlib module is always a hard error regardless of the downgrade option")
}

func TestLoadCachesAlreadyResolvedModule(t *testing.T) {
	fs := &fakeFS{
		sources: map[string]string{
			"/proj/a.pyrite": "",
		},
		imports: map[string][]*ast.Import{
			"/main.pyrite":   {imp("a"), imp("a")},
			"/proj/a.pyrite": nil,
		},
	}
	opts := resolver.Options{StdlibRoot: "/std", CompilationRoot: "/proj"}
	log := logger.NewDeferLog()
	r := resolver.New(opts, fs.parse, fs.readFile, fs.exists, log)

	_, modules, err := r.LoadEntryPoint("/main.pyrite", "")
	require.NoError(t, err)
	require.Empty(t, log.Done())

	count := 0
	for _, m := range modules {
		if m.ImportKey == "a" {
			count++
		}
	}
	require.Equal(t, 1, count, "importing the same module twice from one file resolves to a single cached Module")
}

// TestLoadDedupsDistinctImportPathsResolvingToSameFile exercises the
// device/inode identity index directly against the real filesystem: "real"
// and "alias" name two different import paths, but "alias.pyrite" is a
// symlink to "real.pyrite", so they must resolve to the very same Module
// rather than being parsed twice (§4.1's path-aliasing guard).
func TestLoadDedupsDistinctImportPathsResolvingToSameFile(t *testing.T) {
	switch runtime.GOOS {
	case "darwin", "freebsd", "linux":
	default:
		t.Skip("identity-based dedup only runs on platforms with a stat-based inode probe")
	}

	root := t.TempDir()
	realFile := filepath.Join(root, "real.pyrite")
	aliasFile := filepath.Join(root, "alias.pyrite")
	require.NoError(t, os.WriteFile(realFile, []byte(""), 0o644))
	require.NoError(t, os.Symlink(realFile, aliasFile))

	parseCount := 0
	parse := func(source, filename string) (*ast.Program, error) {
		parseCount++
		return &ast.Program{}, nil
	}
	readFile := func(path string) (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", resolver.ErrModuleNotFound
		}
		return string(b), nil
	}
	exists := func(path string) bool {
		_, err := os.Stat(path)
		return err == nil
	}

	opts := resolver.Options{StdlibRoot: root, CompilationRoot: root}
	log := logger.NewDeferLog()
	r := resolver.New(opts, parse, readFile, exists, log)

	first, err := r.Load([]string{"real"})
	require.NoError(t, err)
	second, err := r.Load([]string{"alias"})
	require.NoError(t, err)

	require.Same(t, first, second, "a symlinked alias of an already-loaded file must resolve to the same Module")
	require.Equal(t, 1, parseCount, "the aliased path must not be parsed a second time")
}
