package log

import (
	"io"
	"log"
	"os"
)

const (
	tracingEnvVar = "KANJIMATCH_TRACE"
)

var (
	Trace   *log.Logger
	Info    *log.Logger
	Warning *log.Logger
	Error   *log.Logger

	TracingEnabled bool
)

func init() {
	InitLog()
}

// InitLog sets up the package loggers. Tracing is off unless
// KANJIMATCH_TRACE=1 is set in the environment.
func InitLog() {
	var traceOutput io.Writer = io.Discard

	if os.Getenv(tracingEnvVar) == "1" {
		TracingEnabled = true
		traceOutput = os.Stderr
	}

	Trace = log.New(traceOutput, "TRACE: ", log.Ldate|log.Ltime|log.Lshortfile)
	Info = log.New(os.Stdout, "", 0)
	Warning = log.New(os.Stdout, "WARNING: ", 0)
	Error = log.New(os.Stderr, "ERROR: ", 0)
}
