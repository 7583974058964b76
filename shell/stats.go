package shell

import (
	"github.com/abiosoft/ishell"
)

func statsCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "stats",
		Help: "show database statistics",
		Func: func(c *ishell.Context) {
			stats := ctx.Db.Stats()
			c.Printf("entries:        %d\n", stats.Entries)
			c.Printf("stroke counts:  %d - %d\n", stats.MinStrokes, stats.MaxStrokes)
			c.Printf("feature length: %d\n", stats.FeatureLen)
			c.Printf("schema version: %d\n", stats.SchemaVersion)
		},
	}
}
