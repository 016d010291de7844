package directors

var helpText = []string{
	"create <collection>",
	"insert json <json> into <collection>",
	"insert file <filename> into <collection>",
	"load <n> <filename> into <collection>",
	"update <collection> json <json> where id = <id>",
	"update <collection> file <filename> where id = <id>",
	"copy <collection> to <collection>",
	"get <id> from <collection>",
	"select <*|id|data|count> from <c1[,c2...]>",
	"select <q> from <cs> where <attr> <op> <value>",
	"select <q> from <cs> where <attr> = <low> : <high>",
	"select <q> from <cs> where <seg> <attr> <op> <value>",
	"select <q> from <cs> where <seg> <attr> = <low> : <high>",
	"select <q> from <cs> where <seg1> with <seg2> <attr> <op> <value>",
	"select <q> from <cs> where <seg1> with <seg2> <attr> = <low> : <high>",
	"selectDistinct ...   same shapes as select, first match per collection",
	"    <op> is one of = != > >= < <=",
	"search <text> [<text>...] in <c1[,c2...]>",
	"order <collection> on [segment ...] <attr> [reverse]",
	"orderFast <collection> on [segment ...] <attr> [reverse]",
	"orderPartition <collection> on [segment ...] <attr> [reverse]",
	"reverse <collection>",
	"randomise <collection>",
	"results = <n>",
	"history",
	"clear",
	"info",
	"help",
	"exit",
}

// HelpText lists the command language, one line per command shape.
func HelpText() []string {
	return append([]string(nil), helpText...)
}
