package css

import (
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

// Parser represents a CSS parser for the subset used by report stylesheets.
type Parser struct{}

// Rule represents a CSS rule
type Rule struct {
	Selectors    []string
	Declarations []*Declaration
}

// Declaration represents a CSS declaration (property-value pair)
type Declaration struct {
	Property  string
	Value     string
	Important bool
}

// Stylesheet represents a parsed CSS stylesheet
type Stylesheet struct {
	Rules []*Rule
}

// NewParser creates a new CSS parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseString parses CSS from a string
func (p *Parser) ParseString(content string) (*Stylesheet, error) {
	return p.Parse(strings.NewReader(content))
}

// Parse parses CSS from an io.Reader. At-rules are skipped, malformed
// declarations are dropped and parsing continues with the next one.
func (p *Parser) Parse(r io.Reader) (*Stylesheet, error) {
	sheet := &Stylesheet{Rules: []*Rule{}}
	parser := css.NewParser(parse.NewInput(r), false)

	for {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if parser.HasParseError() {
				continue
			}
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, err
			}
			return sheet, nil

		case css.BeginAtRuleGrammar:
			// @media, @font-face, @page and friends are not supported
			skipAtRuleBlock(parser)

		case css.BeginRulesetGrammar:
			selectors := parseSelectors(tokensString(parser.Values()))
			decls := parseDeclarationList(parser)
			if len(selectors) > 0 {
				sheet.Rules = append(sheet.Rules, &Rule{Selectors: selectors, Declarations: decls})
			}
		}
	}
}

// ParseDeclarations parses the body of a style attribute.
func ParseDeclarations(body string) []*Declaration {
	return parseDeclarationList(css.NewParser(parse.NewInput(strings.NewReader(body)), true))
}

func skipAtRuleBlock(parser *css.Parser) {
	depth := 1
	for depth > 0 {
		gt, _, _ := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if !parser.HasParseError() {
				return
			}
		case css.BeginAtRuleGrammar, css.BeginRulesetGrammar:
			depth++
		case css.EndAtRuleGrammar, css.EndRulesetGrammar:
			depth--
		}
	}
}

// parseDeclarationList collects declarations until the end of the ruleset or
// of the input.
func parseDeclarationList(parser *css.Parser) []*Declaration {
	result := []*Declaration{}
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if parser.HasParseError() {
				continue
			}
			return result
		case css.EndRulesetGrammar:
			return result
		case css.DeclarationGrammar:
			if d := newDeclaration(string(data), parser.Values()); d != nil {
				result = append(result, d)
			}
		}
	}
}

func newDeclaration(property string, values []css.Token) *Declaration {
	value := strings.TrimSpace(tokensString(values))
	if property == "" || value == "" {
		return nil
	}
	important := false
	if i := len(value) - len("!important"); i >= 0 && strings.EqualFold(value[i:], "!important") {
		important = true
		value = strings.TrimSpace(value[:i])
	}
	return &Declaration{
		Property:  strings.ToLower(property),
		Value:     value,
		Important: important,
	}
}

func tokensString(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.Write(t.Data)
	}
	return sb.String()
}

// parseSelectors splits a selector group and collapses inner whitespace.
func parseSelectors(group string) []string {
	parts := strings.Split(group, ",")
	result := make([]string, 0, len(parts))
	for _, sel := range parts {
		sel = strings.Join(strings.Fields(sel), " ")
		if sel != "" {
			result = append(result, sel)
		}
	}
	return result
}
