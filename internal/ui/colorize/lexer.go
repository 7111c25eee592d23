package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// IR tokenises canonical dump lines: class and method headers, rendered
// instructions and try block summaries.
var IR = lexers.Register(chroma.MustNewLexer(
	&chroma.Config{
		Name:      "dexgraph-ir",
		Aliases:   []string{"dexir"},
		Filenames: []string{"*.dexir"},
	},
	func() chroma.Rules {
		return chroma.Rules{
			"root": {
				{Pattern: `\s+`, Type: chroma.TextWhitespace},
				{Pattern: `\(no instructions\)`, Type: chroma.Comment},
				{Pattern: `<(?:init|clinit)>`, Type: chroma.NameFunction},
				{Pattern: `<`, Type: chroma.Punctuation, Mutator: chroma.Push("insn")},
				{Pattern: `try\b`, Type: chroma.Keyword},
				{Pattern: `->`, Type: chroma.Operator},
				{Pattern: `\*`, Type: chroma.Operator},
				{Pattern: `(/)([\w$]+)`, Type: chroma.ByGroups(chroma.Punctuation, chroma.NameFunction)},
				chroma.Include("common"),
			},
			"insn": {
				{Pattern: `>`, Type: chroma.Punctuation, Mutator: chroma.Pop(1)},
				{Pattern: `(dst|r0|r1|type|extra)(=)`, Type: chroma.ByGroups(chroma.NameAttribute, chroma.Operator)},
				{Pattern: `r\d+\b`, Type: chroma.NameVariable},
				{Pattern: `index:\d+`, Type: chroma.NameLabel},
				{Pattern: `(pending|unresolved)(:)`, Type: chroma.ByGroups(chroma.KeywordPseudo, chroma.Punctuation)},
				{Pattern: `[A-Z][A-Z_]*\b`, Type: chroma.Keyword},
				{Pattern: `(/)([\w$<>]+)`, Type: chroma.ByGroups(chroma.Punctuation, chroma.NameFunction)},
				{Pattern: `\s+`, Type: chroma.TextWhitespace},
				chroma.Include("common"),
			},
			"common": {
				{Pattern: `-?\d+(?:\.\d+)?[lf]?\b`, Type: chroma.LiteralNumber},
				{Pattern: `[\w$]+(?:\.[\w$]+)+`, Type: chroma.NameClass},
				{Pattern: `(?:true|false)\b`, Type: chroma.KeywordConstant},
				{Pattern: `[\[\](){},@=:]`, Type: chroma.Punctuation},
				{Pattern: `[\w$;]+`, Type: chroma.Name},
				{Pattern: `.`, Type: chroma.Text},
			},
		}
	},
))
