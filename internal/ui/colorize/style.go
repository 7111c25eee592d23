package colorize

import (
	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/styles"
)

// IRDark colours dump lines on a dark terminal.
var IRDark = styles.Register(chroma.MustNewStyle("dexgraph-dark", chroma.StyleEntries{
	chroma.Text:       "#D4D4D4",
	chroma.Background: "bg:#1e1e1e",
	chroma.Comment:    "italic #6A9955",

	chroma.Keyword:         "bold #569CD6",
	chroma.KeywordConstant: "#569CD6",
	chroma.NameClass:       "#4EC9B0",
	chroma.NameFunction:    "#DCDCAA",
	chroma.NameAttribute:   "#858585",
	chroma.NameVariable:    "#9CDCFE",
	chroma.NameLabel:       "#FFD700",
	chroma.Name:            "#D4D4D4",

	chroma.LiteralNumber: "#FF5F87",

	chroma.Operator:    "#D4D4D4",
	chroma.Punctuation: "#808080",
}))
