package grammar

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

const maxRating = "10"

// Parse matches rule at the start of input and returns the matched node as
// a single-element slice.
//
// Every rule except Books accepts a prefix of input; Books must consume the
// whole input. Any mismatch aborts the parse with a *SyntaxError and no nodes.
func Parse(rule Rule, input string) ([]*Node, error) {
	e, ok := entries[rule]
	if !ok {
		return nil, fmt.Errorf("grammar: rule %s cannot be parsed on its own", rule)
	}
	n, err := e.parse(input)
	if err != nil {
		return nil, err
	}
	return []*Node{n}, nil
}

// ParseBook parses a single book record at the start of input.
func ParseBook(input string) (BookNode, error) {
	nodes, err := Parse(Book, input)
	if err != nil {
		return BookNode{}, err
	}
	return BookNode{nodes[0]}, nil
}

// ParseBooks parses a whole document and returns its books in document order.
func ParseBooks(input string) ([]BookNode, error) {
	nodes, err := Parse(Books, input)
	if err != nil {
		return nil, err
	}
	res := make([]BookNode, 0, len(nodes[0].Children))
	for _, c := range nodes[0].Children {
		res = append(res, BookNode{c})
	}
	return res, nil
}

var entries = map[Rule]*entry{
	Whitespace:      newEntry[whitespaceAtom](Whitespace, "Whitespace"),
	Space:           newEntry[spaceAtom](Space, "Price"),
	BookNumber:      newEntry[bookNumberAtom](BookNumber, "Title"),
	Year:            newEntry[yearAtom](Year, "Year"),
	Number:          newEntry[numberAtom](Number, "Price"),
	RatingValue:     newEntry[ratingAtom](RatingValue, "Rating"),
	QuotedText:      newEntry[quotedAtom](QuotedText, "Title"),
	Currency:        newEntry[currencyAtom](Currency, "Price"),
	Author:          newEntry[authorAtom](Author, "Authors"),
	Genre:           newEntry[genreAtom](Genre, "Genres"),
	Title:           newEntry[titleLine](Title, "Root"),
	Authors:         newEntry[authorsLine](Authors, "Root"),
	Genres:          newEntry[genresLine](Genres, "Root"),
	PublicationYear: newEntry[yearLine](PublicationYear, "Root"),
	Rating:          newEntry[ratingLine](Rating, "Root"),
	Price:           newEntry[priceLine](Price, "Root"),
	Book:            newEntry[bookRecord](Book, "Root"),
	Books:           newEntry[document](Books, "Root"),
}

type nodeBuilder interface {
	node(t *tree) *Node
}

// entry is a parser for one rule used as the start symbol.
type entry struct {
	rule  Rule
	def   *lexer.StatefulDefinition
	names map[lexer.TokenType]string
	parse func(src string) (*Node, error)
}

func newEntry[G any, P interface {
	*G
	nodeBuilder
}](rule Rule, state string) *entry {
	def := stateLexer(state)
	p := participle.MustBuild[G](
		participle.Lexer(def),
		// A branch that consumed a token is committed, so errors point at
		// the first token that does not fit.
		participle.UseLookahead(0),
	)
	e := &entry{rule: rule, def: def, names: tokenNames(def)}
	e.parse = func(src string) (*Node, error) {
		ast, err := p.ParseString("", src, participle.AllowTrailing(rule != Books))
		if err != nil {
			return nil, e.syntaxError(src, err)
		}
		return P(ast).node(&tree{src: src, names: e.names}), nil
	}
	return e
}

func (e *entry) syntaxError(src string, err error) error {
	var perr participle.Error
	if !errors.As(err, &perr) {
		return err
	}
	offset := perr.Position().Offset
	return newSyntaxError(src, e.rule, e.expected(src, offset), offset)
}

// expected returns the rule that failed at offset, judged by the token
// right before it.
func (e *entry) expected(src string, offset int) Rule {
	lex, err := e.def.LexString("", src)
	if err != nil {
		return e.first()
	}
	prev := ""
	for {
		tok, err := lex.Next()
		if err != nil || tok.EOF() || tok.Pos.Offset >= offset {
			break
		}
		prev = e.names[tok.Type]
	}
	if r, ok := expectedAfter[prev]; ok {
		return r
	}
	return e.first()
}

func (e *entry) first() Rule {
	if e.rule == Book || e.rule == Books {
		return Title
	}
	return e.rule
}

// tree converts matched tokens into nodes over src.
type tree struct {
	src   string
	names map[lexer.TokenType]string
}

func (t *tree) leaf(rule Rule, tokens []lexer.Token) *Node {
	return &Node{Rule: rule, Span: spanOf(tokens), src: t.src}
}

// line builds a field node whose children are its labels and values.
func (t *tree) line(rule Rule, tokens []lexer.Token) *Node {
	n := t.leaf(rule, tokens)
	for _, tok := range tokens {
		if r, ok := childRules[t.names[tok.Type]]; ok {
			n.Children = append(n.Children, t.leaf(r, []lexer.Token{tok}))
		}
	}
	return n
}

func spanOf(tokens []lexer.Token) Span {
	if len(tokens) == 0 {
		return Span{}
	}
	last := tokens[len(tokens)-1]
	return Span{tokens[0].Pos.Offset, last.Pos.Offset + len(last.Value)}
}

type whitespaceAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Whitespace"`
}

func (a *whitespaceAtom) node(t *tree) *Node { return t.leaf(Whitespace, a.Tokens) }

type spaceAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Space"`
}

func (a *spaceAtom) node(t *tree) *Node { return t.leaf(Space, a.Tokens) }

type bookNumberAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@BookNum"`
}

func (a *bookNumberAtom) node(t *tree) *Node { return t.leaf(BookNumber, a.Tokens) }

type yearAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Year"`
}

func (a *yearAtom) node(t *tree) *Node { return t.leaf(Year, a.Tokens) }

type numberAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Number"`
}

func (a *numberAtom) node(t *tree) *Node { return t.leaf(Number, a.Tokens) }

type ratingAtom struct {
	Tokens []lexer.Token
	Value  ratingScore `parser:"@RatingValue"`
}

func (a *ratingAtom) node(t *tree) *Node { return t.leaf(RatingValue, a.Tokens) }

type quotedAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Quoted"`
}

func (a *quotedAtom) node(t *tree) *Node { return t.leaf(QuotedText, a.Tokens) }

type currencyAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Currency"`
}

func (a *currencyAtom) node(t *tree) *Node { return t.leaf(Currency, a.Tokens) }

type authorAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Author"`
}

func (a *authorAtom) node(t *tree) *Node { return t.leaf(Author, a.Tokens) }

type genreAtom struct {
	Tokens []lexer.Token
	Value  string `parser:"@Genre"`
}

func (a *genreAtom) node(t *tree) *Node { return t.leaf(Genre, a.Tokens) }

type titleLine struct {
	Tokens []lexer.Token
	Number string `parser:"TitleLabel @BookNum TitleSep"`
	Text   string `parser:"@Quoted TitleEnd"`
}

func (l *titleLine) node(t *tree) *Node { return t.line(Title, l.Tokens) }

type authorsLine struct {
	Tokens []lexer.Token
	Names  []string `parser:"AuthorsLabel AuthorsOpen ( @Author ( AuthorsComma @Author )* )? AuthorsClose AuthorsEnd"`
}

func (l *authorsLine) node(t *tree) *Node { return t.line(Authors, l.Tokens) }

type genresLine struct {
	Tokens []lexer.Token
	Names  []string `parser:"GenresLabel GenresOpen ( @Genre ( GenresComma @Genre )* )? GenresClose GenresEnd"`
}

func (l *genresLine) node(t *tree) *Node { return t.line(Genres, l.Tokens) }

type yearLine struct {
	Tokens []lexer.Token
	Value  string `parser:"YearLabel @Year YearEnd"`
}

func (l *yearLine) node(t *tree) *Node { return t.line(PublicationYear, l.Tokens) }

type ratingLine struct {
	Tokens []lexer.Token
	Value  ratingScore `parser:"RatingLabel @RatingValue RatingEnd"`
}

func (l *ratingLine) node(t *tree) *Node { return t.line(Rating, l.Tokens) }

type priceLine struct {
	Tokens   []lexer.Token
	Amount   string `parser:"PriceLabel @Number Space"`
	Currency string `parser:"@Currency PriceEnd"`
}

func (l *priceLine) node(t *tree) *Node { return t.line(Price, l.Tokens) }

type bookRecord struct {
	Tokens  []lexer.Token
	Title   *titleLine   `parser:"@@"`
	Authors *authorsLine `parser:"@@"`
	Genres  *genresLine  `parser:"@@"`
	Year    *yearLine    `parser:"@@"`
	Rating  *ratingLine  `parser:"@@"`
	Price   *priceLine   `parser:"@@"`
}

func (b *bookRecord) node(t *tree) *Node {
	n := t.leaf(Book, b.Tokens)
	n.Children = []*Node{
		b.Title.node(t),
		b.Authors.node(t),
		b.Genres.node(t),
		b.Year.node(t),
		b.Rating.node(t),
		b.Price.node(t),
	}
	return n
}

// document allows at most one blank line after each book.
type document struct {
	Tokens []lexer.Token
	Books  []*bookRecord `parser:"( @@ BlankLine? )+"`
}

func (d *document) node(t *tree) *Node {
	n := t.leaf(Books, d.Tokens)
	for _, b := range d.Books {
		n.Children = append(n.Children, b.node(t))
	}
	return n
}

// ratingScore rejects values outside [0, 10] while they are captured.
type ratingScore string

func (s *ratingScore) Capture(values []string) error {
	v := strings.Join(values, "")
	intPart, frac, _ := strings.Cut(v, ".")
	if !ratingInRange(intPart, frac) {
		return fmt.Errorf("rating %s is outside [0, %s]", v, maxRating)
	}
	*s = ratingScore(v)
	return nil
}

// ratingInRange reports whether intPart.frac lies in [0, 10].
func ratingInRange(intPart, frac string) bool {
	intPart = strings.TrimLeft(intPart, "0")
	switch {
	case len(intPart) < len(maxRating):
		return true
	case intPart == maxRating:
		return strings.Trim(frac, "0") == ""
	default:
		return false
	}
}
