package shell

import (
	"errors"
	"fmt"

	"github.com/abiosoft/ishell"
)

func infoCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "info",
		Help:      "show a reference character's normalized geometry",
		Completer: createCharCompleter(ctx),
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(errors.New("missing character"))
				return
			}

			char, ok := ctx.Db.Character(c.Args[0])
			if !ok {
				c.Err(fmt.Errorf("character %q not in database", c.Args[0]))
				return
			}

			c.Printf("character: %s\n", char.ID)
			c.Printf("strokes:   %d\n", len(char.Strokes))
			c.Printf("features:  %d values\n", len(char.Features))
			for i, s := range char.Strokes {
				start, end := s[0], s[len(s)-1]
				c.Printf("  stroke %2d: (%.3f, %.3f) -> (%.3f, %.3f)\n", i+1, start.X, start.Y, end.X, end.Y)
			}
		},
	}
}
