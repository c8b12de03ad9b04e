package driver

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hiesenoether/interpreter-go/pkg/ast"
	"hiesenoether/interpreter-go/pkg/parser"
)

// SourceExtension marks surface-syntax programs. Files ending in .json are
// read as AST documents; anything else goes through the parser.
const SourceExtension = ".hn"

// Loader reads program files into ASTs.
type Loader struct {
	logger *slog.Logger
}

// NewLoader constructs a loader. A nil logger discards output.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{logger: logger.With("component", "loader")}
}

// Load reads the program at path.
func (l *Loader) Load(path string) (*ast.Program, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("loader: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("loader: resolve %s: %w", path, err)
	}

	var program *ast.Program
	format := "source"
	if strings.EqualFold(filepath.Ext(absPath), ".json") {
		format = "json"
		program, err = loadJSON(absPath)
	} else {
		program, err = parser.ParseFile(absPath)
	}
	if err != nil {
		return nil, err
	}
	l.logger.Debug("program loaded", "path", absPath, "format", format, "statements", len(program.Statements))
	return program, nil
}

func loadJSON(path string) (*ast.Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	program, err := ast.DecodeProgram(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return program, nil
}
