package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// other swallows any rune no rule claims so that lexing never fails and
// mismatches surface as parse errors at the right offset.
const other = `[\s\S]`

// Each field label pushes the state for the rest of its line and the line
// terminator pops back to Root.
var lexerRules = lexer.Rules{
	"Root": {
		{Name: "TitleLabel", Pattern: `Book `, Action: lexer.Push("Title")},
		{Name: "AuthorsLabel", Pattern: `Authors: `, Action: lexer.Push("Authors")},
		{Name: "GenresLabel", Pattern: `Genres: `, Action: lexer.Push("Genres")},
		{Name: "YearLabel", Pattern: `Publication Year: `, Action: lexer.Push("Year")},
		{Name: "RatingLabel", Pattern: `Rating: `, Action: lexer.Push("Rating")},
		{Name: "PriceLabel", Pattern: `Price: `, Action: lexer.Push("Price")},
		{Name: "BlankLine", Pattern: `\n`},
		{Name: "Other", Pattern: other},
	},
	"Title": {
		{Name: "BookNum", Pattern: `[0-9]+`},
		{Name: "TitleSep", Pattern: `: `},
		{Name: "Quoted", Pattern: `"[^"\n]*"`},
		{Name: "TitleEnd", Pattern: `\n`, Action: lexer.Pop()},
		{Name: "Other", Pattern: other},
	},
	"Authors": listState("Authors", "Author"),
	"Genres":  listState("Genres", "Genre"),
	"Year": {
		{Name: "Year", Pattern: `[0-9]{4}`},
		{Name: "YearEnd", Pattern: `\n`, Action: lexer.Pop()},
		{Name: "Other", Pattern: other},
	},
	"Rating": {
		{Name: "RatingValue", Pattern: `[0-9]+(?:\.[0-9]+)?`},
		{Name: "RatingEnd", Pattern: `\n`, Action: lexer.Pop()},
		{Name: "Other", Pattern: other},
	},
	"Price": {
		{Name: "Number", Pattern: `-?[0-9]+(?:\.[0-9]+)?`},
		{Name: "Space", Pattern: ` +`},
		{Name: "Currency", Pattern: `[A-Z]{3}`},
		{Name: "PriceEnd", Pattern: `\n`, Action: lexer.Pop()},
		{Name: "Other", Pattern: other},
	},
	// Only reachable as a start state.
	"Whitespace": {
		{Name: "Whitespace", Pattern: `[ \t\r\n]`},
		{Name: "Other", Pattern: other},
	},
}

func listState(list, item string) []lexer.Rule {
	return []lexer.Rule{
		{Name: list + "Open", Pattern: `\[`},
		{Name: list + "Close", Pattern: `\]`},
		{Name: list + "Comma", Pattern: `,`},
		{Name: item, Pattern: `[^\[\],\n]+`},
		{Name: list + "End", Pattern: `\n`, Action: lexer.Pop()},
		{Name: "Other", Pattern: other},
	}
}

// stateLexer returns a lexer that starts in state. Atom rules are matched
// without the surrounding line, so their start state loses its transitions.
func stateLexer(state string) *lexer.StatefulDefinition {
	if state == "Root" {
		return lexer.MustStateful(lexerRules)
	}
	rules := make([]lexer.Rule, 0, len(lexerRules[state]))
	for _, r := range lexerRules[state] {
		rules = append(rules, lexer.Rule{Name: r.Name, Pattern: r.Pattern})
	}
	return lexer.MustStateful(lexer.Rules{"Root": rules})
}

// childRules maps the tokens that become nodes inside a field line.
// Brackets, commas and line terminators produce no node.
var childRules = map[string]Rule{
	"TitleLabel":   Label,
	"TitleSep":     Label,
	"AuthorsLabel": Label,
	"GenresLabel":  Label,
	"YearLabel":    Label,
	"RatingLabel":  Label,
	"PriceLabel":   Label,
	"BookNum":      BookNumber,
	"Quoted":       QuotedText,
	"Author":       Author,
	"Genre":        Genre,
	"Year":         Year,
	"RatingValue":  RatingValue,
	"Number":       Number,
	"Space":        Space,
	"Currency":     Currency,
}

// expectedAfter names the rule that must match right after a token.
// It attributes a parse failure to the innermost rule at that point.
var expectedAfter = map[string]Rule{
	"TitleLabel":   BookNumber,
	"BookNum":      Title,
	"TitleSep":     QuotedText,
	"Quoted":       Title,
	"TitleEnd":     Authors,
	"AuthorsLabel": Authors,
	"AuthorsOpen":  Author,
	"Author":       Authors,
	"AuthorsComma": Author,
	"AuthorsClose": Authors,
	"AuthorsEnd":   Genres,
	"GenresLabel":  Genres,
	"GenresOpen":   Genre,
	"Genre":        Genres,
	"GenresComma":  Genre,
	"GenresClose":  Genres,
	"GenresEnd":    PublicationYear,
	"YearLabel":    Year,
	"Year":         PublicationYear,
	"YearEnd":      Rating,
	"RatingLabel":  RatingValue,
	"RatingValue":  Rating,
	"RatingEnd":    Price,
	"PriceLabel":   Number,
	"Number":       Space,
	"Space":        Currency,
	"Currency":     Price,
	"PriceEnd":     Title,
	"BlankLine":    Title,
}

func tokenNames(def lexer.Definition) map[lexer.TokenType]string {
	names := make(map[lexer.TokenType]string)
	for name, typ := range def.Symbols() {
		names[typ] = name
	}
	return names
}
