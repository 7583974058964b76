package shell

import (
	"errors"
	"fmt"
	"os"

	"github.com/abiosoft/ishell"

	"github.com/kanjimatch/kanjimatch/render"
)

func previewCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name:      "preview",
		Help:      "render a reference character to a PNG file",
		Completer: createCharCompleter(ctx),
		LongHelp: `Usage: preview [options] <character> <output.png>

Options:
  --size=<pixels>  Output size (default 160)`,
		Func: func(c *ishell.Context) {
			size := 160

			args := c.Args
			for i, arg := range args {
				if len(arg) > 7 && arg[:7] == "--size=" {
					fmt.Sscanf(arg[7:], "%d", &size)
					args = append(args[:i], args[i+1:]...)
					break
				}
			}

			if len(args) < 2 {
				c.Err(errors.New("usage: preview <character> <output.png>"))
				return
			}

			char, ok := ctx.Db.Character(args[0])
			if !ok {
				c.Err(fmt.Errorf("character %q not in database", args[0]))
				return
			}

			data, err := render.PNG(char.Strokes, size)
			if err != nil {
				c.Err(fmt.Errorf("render failed: %v", err))
				return
			}

			if err := os.WriteFile(args[1], data, 0644); err != nil {
				c.Err(fmt.Errorf("can't write %s: %v", args[1], err))
				return
			}

			c.Printf("written: %s\n", args[1])
		},
	}
}
