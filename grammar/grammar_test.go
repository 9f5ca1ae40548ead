package grammar

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const threeBooks = `Book 1: "First Book"
Authors: [Author1, Author2]
Genres: [Fiction]
Publication Year: 2020
Rating: 8.0
Price: 120.00 UAH

Book 2: "Second Book"
Authors: [Author3]
Genres: [Non-Fiction, Biography]
Publication Year: 2021
Rating: 9.0
Price: 200.00 UAH

Book 3: "Third Book"
Authors: [Author3]
Genres: [Non-Fiction, Biography]
Publication Year: 2020
Rating: 8.5
Price: 220.00 UAH
`

const singleBook = `Book 1: "Test Book Title"
Authors: [Author1, Author2]
Genres: [Fiction, Adventure]
Publication Year: 2023
Rating: 9.5
Price: 150.00 UAH
`

func mustParse(t *testing.T, rule Rule, input string) *Node {
	t.Helper()
	nodes, err := Parse(rule, input)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, rule, nodes[0].Rule)
	return nodes[0]
}

func TestParseAccepts(t *testing.T) {
	tests := []struct {
		rule  Rule
		input string
		want  string
	}{
		{Whitespace, " ", " "},
		{Whitespace, "\t", "\t"},
		{Whitespace, "\n", "\n"},
		{Space, "  ", "  "},
		{BookNumber, "123", "123"},
		{BookNumber, "9876543210", "9876543210"},
		{Year, "2024", "2024"},
		{Year, "0000", "0000"},
		{Number, "199.00", "199.00"},
		{Number, "100", "100"},
		{Number, "-100", "-100"},
		{Number, "-199.99", "-199.99"},
		{RatingValue, "8", "8"},
		{RatingValue, "8.5", "8.5"},
		{RatingValue, "0", "0"},
		{RatingValue, "10", "10"},
		{RatingValue, "10.0", "10.0"},
		{QuotedText, `"Hello, World!"`, `"Hello, World!"`},
		{QuotedText, `""`, `""`},
		{QuotedText, `"Some text!"`, `"Some text!"`},
		{Currency, "USD", "USD"},
		{Currency, "UAH", "UAH"},
		{Author, "John Smith", "John Smith"},
		{Author, "Dr. Alice", "Dr. Alice"},
		{Genre, "Fantasy", "Fantasy"},
		{Genre, "Science Fiction", "Science Fiction"},
		{Title, "Book 1: \"Enemy Of My Enemy\"\n", "Book 1: \"Enemy Of My Enemy\"\n"},
		{Authors, "Authors: [John Smith, Alice Smith]\n", "Authors: [John Smith, Alice Smith]\n"},
		{Authors, "Authors: [John Smith]\n", "Authors: [John Smith]\n"},
		{Authors, "Authors: []\n", "Authors: []\n"},
		{Genres, "Genres: [Fantasy, Science Fiction]\n", "Genres: [Fantasy, Science Fiction]\n"},
		{Genres, "Genres: [Fantasy]\n", "Genres: [Fantasy]\n"},
		{Genres, "Genres: []\n", "Genres: []\n"},
		{PublicationYear, "Publication Year: 2016\n", "Publication Year: 2016\n"},
		{Rating, "Rating: 9.5\n", "Rating: 9.5\n"},
		{Rating, "Rating: 8\n", "Rating: 8\n"},
		{Price, "Price: 199.00 UAH\n", "Price: 199.00 UAH\n"},
		{Price, "Price: 19 UAH\n", "Price: 19 UAH\n"},
		{Price, "Price: -5   USD\n", "Price: -5   USD\n"},
		{Book, singleBook, singleBook},
		{Books, singleBook, singleBook},
		{Books, threeBooks, threeBooks},
	}

	for _, tt := range tests {
		t.Run(tt.rule.String()+"/"+tt.input, func(t *testing.T) {
			n := mustParse(t, tt.rule, tt.input)
			require.Equal(t, tt.want, n.Text())
			require.Equal(t, 0, n.Span.Start)
			require.Equal(t, len(tt.want), n.Span.End)
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		rule  Rule
		input string
	}{
		{"whitespace letter", Whitespace, "a"},
		{"whitespace empty", Whitespace, ""},
		{"space empty", Space, ""},
		{"space tab", Space, "\t"},
		{"book number letters", BookNumber, "ad"},
		{"book number empty", BookNumber, ""},
		{"year letters", Year, "ad"},
		{"year short", Year, "202"},
		{"year empty", Year, ""},
		{"number roman", Number, "XXII"},
		{"number no integer part", Number, ".4"},
		{"number empty", Number, ""},
		{"rating letter", RatingValue, "a"},
		{"rating negative", RatingValue, "-1"},
		{"rating above ten", RatingValue, "10.5"},
		{"rating eleven", RatingValue, "11"},
		{"quoted no quotes", QuotedText, "Hello, World!"},
		{"quoted unterminated", QuotedText, `"Hello`},
		{"currency digits", Currency, "123"},
		{"currency lower", Currency, "uah"},
		{"currency empty", Currency, ""},
		{"author bracketed", Author, "[John Smith]"},
		{"author empty", Author, ""},
		{"genre bracketed", Genre, "[Fantasy]"},
		{"genre empty", Genre, ""},
		{"title missing number", Title, "Book: \"Enemy Of My Enemy\"\n"},
		{"title empty", Title, ""},
		{"authors no brackets", Authors, "Authors: John Smith, Alice Smith\n"},
		{"authors trailing comma", Authors, "Authors: [John Smith,]\n"},
		{"authors no newline", Authors, "Authors: [John Smith]"},
		{"genres no brackets", Genres, "Genres: Fantasy, Science Fiction\n"},
		{"genres nested", Genres, "Genres: [[Fantasy]]\n"},
		{"year missing value", PublicationYear, "Publication Year:"},
		{"year too long", PublicationYear, "Publication Year: 20245\n"},
		{"year empty", PublicationYear, ""},
		{"rating out of range", Rating, "Rating: 10.5\n"},
		{"rating missing value", Rating, "Rating:\n"},
		{"rating empty", Rating, ""},
		{"price no currency", Price, "Price: 299.99\n"},
		{"price no amount", Price, "Price: UAH\n"},
		{"price empty", Price, ""},
		{"price no label", Price, "199.00 UAH\n"},
		{"book truncated", Book, "Book 1: \"Test Book Title\""},
		{"book empty", Book, ""},
		{"books empty", Books, ""},
		{"books truncated", Books, threeBooks[:len(threeBooks)-1]},
		{"books trailing text", Books, singleBook + "\ntrailing"},
		{"books two blank lines", Books, singleBook + "\n\n" + singleBook},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := Parse(tt.rule, tt.input)
			require.Error(t, err, "expected error but got %v", nodes)
			require.Nil(t, nodes)

			var syntaxErr *SyntaxError
			require.True(t, errors.As(err, &syntaxErr), "want *SyntaxError, got %T", err)
			require.Equal(t, tt.rule, syntaxErr.Entry)
		})
	}
}

func TestParseBooksOrder(t *testing.T) {
	books, err := ParseBooks(threeBooks)
	require.NoError(t, err)
	require.Len(t, books, 3)

	titles := make([]string, 0, len(books))
	for _, b := range books {
		titles = append(titles, b.Field(Title).Child(QuotedText).Text())
	}
	require.Equal(t, []string{`"First Book"`, `"Second Book"`, `"Third Book"`}, titles)
}

func TestParseBooksAllOrNothing(t *testing.T) {
	truncated := threeBooks[:len(threeBooks)-1]
	books, err := ParseBooks(truncated)
	require.Error(t, err)
	require.Empty(t, books)

	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, Price, syntaxErr.Rule)
	require.Equal(t, len(truncated), syntaxErr.Offset)
	require.Equal(t, 20, syntaxErr.Line)
	require.Equal(t, 18, syntaxErr.Col)
}

func TestSyntaxErrorPosition(t *testing.T) {
	_, err := Parse(Title, "Book x: \"Enemy Of My Enemy\"\n")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, BookNumber, syntaxErr.Rule)
	require.Equal(t, 5, syntaxErr.Offset)
	require.Equal(t, 1, syntaxErr.Line)
	require.Equal(t, 6, syntaxErr.Col)
	require.Equal(t, "syntax error: expected book_num at line 1 col 6 (parsing book_title)", err.Error())

	_, err = Parse(Title, "Book: \"Enemy Of My Enemy\"\n")
	require.ErrorAs(t, err, &syntaxErr)
	require.Equal(t, Title, syntaxErr.Rule)
	require.Equal(t, "syntax error: expected book_title at line 1 col 1", err.Error())
}

func TestListItems(t *testing.T) {
	n := mustParse(t, Authors, "Authors: [John Smith, Alice Smith]\n")
	items := n.ChildrenOf(Author)
	require.Len(t, items, 2)
	require.Equal(t, "John Smith", items[0].Text())
	require.Equal(t, " Alice Smith", items[1].Text())

	empty := mustParse(t, Authors, "Authors: []\n")
	require.Empty(t, empty.ChildrenOf(Author))
}

func TestPriceChildren(t *testing.T) {
	n := mustParse(t, Price, "Price: 199.00 UAH\n")
	rules := make([]Rule, 0, len(n.Children))
	for _, c := range n.Children {
		rules = append(rules, c.Rule)
	}
	require.Equal(t, []Rule{Label, Number, Space, Currency}, rules)
	require.Equal(t, "199.00", n.Child(Number).Text())
	require.Equal(t, "UAH", n.Child(Currency).Text())
}

func TestSpansAreExact(t *testing.T) {
	root := mustParse(t, Books, threeBooks)
	root.Walk(func(n *Node, _ int) bool {
		require.Equal(t, threeBooks[n.Span.Start:n.Span.End], n.Text())
		prevEnd := n.Span.Start
		for _, c := range n.Children {
			require.GreaterOrEqual(t, c.Span.Start, prevEnd, "children of %s overlap", n.Rule)
			require.LessOrEqual(t, c.Span.End, n.Span.End, "%s escapes parent %s", c.Rule, n.Rule)
			prevEnd = c.Span.End
		}
		return true
	})
}

func TestRatingInRange(t *testing.T) {
	tests := []struct {
		intPart, frac string
		want          bool
	}{
		{"0", "", true},
		{"9", "99", true},
		{"10", "", true},
		{"10", "00", true},
		{"010", "", true},
		{"10", "5", false},
		{"10", "01", false},
		{"11", "", false},
		{"100", "", false},
	}
	for _, tt := range tests {
		if got := ratingInRange(tt.intPart, tt.frac); got != tt.want {
			t.Errorf("ratingInRange(%q, %q) = %v, want %v", tt.intPart, tt.frac, got, tt.want)
		}
	}
}

func TestAsBook(t *testing.T) {
	n := mustParse(t, Book, singleBook)
	b, ok := AsBook(n)
	require.True(t, ok)
	require.Same(t, n, b.Node())

	_, ok = AsBook(mustParse(t, Rating, "Rating: 9.5\n"))
	require.False(t, ok)
	_, ok = AsBook(nil)
	require.False(t, ok)
}

func TestRuleNames(t *testing.T) {
	for _, r := range Rules() {
		got, err := ParseRule(r.String())
		require.NoError(t, err)
		require.Equal(t, r, got)
	}
	_, err := ParseRule("chapter")
	require.Error(t, err)
}

func TestParseLabelRule(t *testing.T) {
	_, err := Parse(Label, "Book ")
	require.Error(t, err)
	var syntaxErr *SyntaxError
	require.False(t, errors.As(err, &syntaxErr))
}
