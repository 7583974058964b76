package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/abiosoft/ishell"

	"github.com/kanjimatch/kanjimatch/model"
)

func matchCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "match",
		Help: "rank the database against a drawing read from a strokes file",
		LongHelp: `Usage: match [options] <strokes.json>

The file holds the raw drawing: {"strokes": [[{"x":0,"y":0}, ...], ...]}

Options:
  --top=<N>  Number of candidates to return (default from config)`,
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Err(errors.New("missing strokes file"))
				return
			}

			topN := ctx.TopN

			args := c.Args
			for i, arg := range args {
				if len(arg) > 6 && arg[:6] == "--top=" {
					fmt.Sscanf(arg[6:], "%d", &topN)
					args = append(args[:i], args[i+1:]...)
					break
				}
			}

			if len(args) == 0 {
				c.Err(errors.New("missing strokes file"))
				return
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				c.Err(fmt.Errorf("can't read %s: %v", args[0], err))
				return
			}

			var req model.MatchRequest
			if err := json.Unmarshal(data, &req); err != nil {
				c.Err(fmt.Errorf("can't parse %s: %v", args[0], err))
				return
			}

			results, err := ctx.Matcher.Match(req.Strokes, topN)
			if err != nil {
				c.Err(fmt.Errorf("match failed: %v", err))
				return
			}

			if len(results) == 0 {
				c.Println("no candidates")
				return
			}

			for i, r := range results {
				c.Printf("%2d. %s  distance=%.3f confidence=%.4f\n", i+1, r.ID, r.Distance, r.Confidence)
			}
		},
	}
}
