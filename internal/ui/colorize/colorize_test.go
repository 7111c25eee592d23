package colorize

import (
	"testing"

	"github.com/alecthomas/chroma/v2"
)

func tokens(t *testing.T, text string) []chroma.Token {
	t.Helper()
	it, err := IR.Tokenise(nil, text)
	if err != nil {
		t.Fatal(err)
	}
	var out []chroma.Token
	for _, tok := range it.Tokens() {
		if tok.Type == chroma.TextWhitespace {
			continue
		}
		out = append(out, tok)
	}
	return out
}

func TestLexer(t *testing.T) {
	tests := []struct {
		line  string
		value string
		want  chroma.TokenType
	}{
		{"<ARITHMETIC,ADD,dst=r0,r0=r1,r1=r2,type=int>", "ARITHMETIC", chroma.Keyword},
		{"<ARITHMETIC,ADD,dst=r0,r0=r1,r1=r2,type=int>", "ADD", chroma.Keyword},
		{"<ARITHMETIC,ADD,dst=r0,r0=r1,r1=r2,type=int>", "r2", chroma.NameVariable},
		{"<ARITHMETIC,ADD,dst=r0,r0=r1,r1=r2,type=int>", "dst", chroma.NameAttribute},
		{"<IF,EQZ,r0=r0,extra=index:5>", "index:5", chroma.NameLabel},
		{"<MOV,CONST,dst=r0,type=void,extra=5l>", "5l", chroma.LiteralNumber},
		{"<INVOKE,STATIC,extra=[app.Calc/add[int, int], [0, 0]]>", "app.Calc", chroma.NameClass},
		{"<INVOKE,STATIC,extra=[app.Calc/add[int, int], [0, 0]]>", "add", chroma.NameFunction},
		{"<INVOKE,STATIC,extra=[app.Calc/add[int, int]:int, [0, 0]]>", "int", chroma.Name},
		{"<HALT,STATIC,extra=unresolved:[gone.Lib/x[], []]>", "unresolved", chroma.KeywordPseudo},
		{"<INVOKE,STATIC,extra=pending:[gone.Lib/x[], []]>", "pending", chroma.KeywordPseudo},
		{"\tapp.Calc/<init>[]", "<init>", chroma.NameFunction},
		{"\t\t(no instructions)", "(no instructions)", chroma.Comment},
		{"\t\ttry [2, 3) -> java.lang.Exception@4", "try", chroma.Keyword},
		{"\t\ttry [2, 3) -> java.lang.Exception@4", "java.lang.Exception", chroma.NameClass},
	}
	for _, tt := range tests {
		t.Run(tt.line+"/"+tt.value, func(t *testing.T) {
			for _, tok := range tokens(t, tt.line) {
				if tok.Value == tt.value {
					if tok.Type != tt.want {
						t.Errorf("%q lexed as %v, want %v", tt.value, tok.Type, tt.want)
					}
					return
				}
			}
			t.Errorf("no token %q in %v", tt.value, tokens(t, tt.line))
		})
	}
}

func TestDisabled(t *testing.T) {
	t.Setenv("DEXGRAPH_NO_COLOR", "1")
	line := "<RETURN,VOID>"
	if got := Line(line); got != line {
		t.Errorf("Line() = %q with colours disabled", got)
	}
}

func TestStripRoundTrip(t *testing.T) {
	t.Setenv("DEXGRAPH_NO_COLOR", "")
	t.Setenv("NO_COLOR", "")
	line := "<MOV,CONST,dst=r0,type=void,extra=1>"
	if got := Strip(Line(line)); got != line {
		t.Errorf("Strip(Line()) = %q, want %q", got, line)
	}
}
