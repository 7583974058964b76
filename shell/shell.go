package shell

import (
	"fmt"

	"github.com/abiosoft/ishell"

	"github.com/kanjimatch/kanjimatch/matcher"
	"github.com/kanjimatch/kanjimatch/refdb"
)

// ShellCtxt is the state shared by every shell command: the loaded
// database, its matcher and the default candidate list size.
type ShellCtxt struct {
	Db      *refdb.Database
	Matcher *matcher.Matcher
	TopN    int
}

func RunShell(ctx *ShellCtxt) error {
	shell := ishell.New()
	shell.Println(fmt.Sprintf("kanjimatch shell, %d reference characters loaded", ctx.Db.Len()))
	shell.SetPrompt("[kanjimatch]> ")

	shell.AddCmd(matchCmd(ctx))
	shell.AddCmd(infoCmd(ctx))
	shell.AddCmd(statsCmd(ctx))
	shell.AddCmd(previewCmd(ctx))
	shell.AddCmd(versionCmd(ctx))

	shell.Run()

	return nil
}

// createCharCompleter completes identifiers present in the database.
func createCharCompleter(ctx *ShellCtxt) func([]string) []string {
	return func(args []string) []string {
		ids := make([]string, 0, ctx.Db.Len())
		for i := 0; i < ctx.Db.Len(); i++ {
			ids = append(ids, ctx.Db.ID(i))
		}
		return ids
	}
}
