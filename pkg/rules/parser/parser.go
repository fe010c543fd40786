package parser

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"questforge/apcore/pkg/rules/ast"
	ruleErrors "questforge/apcore/pkg/rules/errors"
)

// Document is a fully parsed rule file: the rules plus the invariants
// declared alongside them.
type Document struct {
	Ruleset    string
	Version    int
	Rules      []*ast.Rule
	Invariants []*ast.Invariant
}

// Parser parses YAML rule files into AST documents.
type Parser struct{}

// NewParser creates a parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a rule file from disk.
func (p *Parser) ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		el := ruleErrors.NewErrorList()
		el.AddError(ruleErrors.ErrorTypeIO,
			fmt.Sprintf("failed to read %q: %v", path, err),
			ast.Location{File: path})
		return nil, el
	}
	return p.ParseBytes(data, path)
}

// ParseBytes parses rule file content. The sourcePath is used only for
// error locations.
func (p *Parser) ParseBytes(data []byte, sourcePath string) (*Document, error) {
	var yd yamlDocument
	if err := yaml.Unmarshal(data, &yd); err != nil {
		el := ruleErrors.NewErrorList()
		el.AddError(ruleErrors.ErrorTypeSyntax, err.Error(), ast.Location{File: sourcePath})
		return nil, el
	}

	return newBuilder(sourcePath).buildDocument(&yd)
}
