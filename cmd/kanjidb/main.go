// kanjidb builds the reference database blob from an SVG corpus.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/kanjimatch/kanjimatch/builder"
	"github.com/kanjimatch/kanjimatch/log"
)

func main() {
	corpus := flag.String("corpus", "", "corpus glob, e.g. kanjivg/kanji/**/*.svg")
	output := flag.String("o", "kanjimatch.kdb", "output blob path")
	concurrency := flag.Int64("j", 4, "parallel file workers")
	flag.Parse()

	log.InitLog()

	if *corpus == "" {
		fmt.Fprintln(os.Stderr, "missing -corpus glob")
		flag.Usage()
		os.Exit(1)
	}

	start := time.Now()
	count, err := builder.Build(context.Background(), builder.Config{
		CorpusGlob:  *corpus,
		Output:      *output,
		Concurrency: *concurrency,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log.Info.Printf("built %d entries in %s", count, time.Since(start).Round(time.Millisecond))
}
