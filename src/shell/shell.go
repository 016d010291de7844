package shell

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"resourcedb/src/directors"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

const Prompt = "> "

// Executor runs one command line.
type Executor interface {
	Execute(command string) (*directors.CommandResponse, error)
}

// Shell reads commands from in, one per line, and prints the results to out.
type Shell struct {
	executor Executor
	scanner  *bufio.Scanner
	out      io.Writer
	logger   *zap.SugaredLogger

	errColor    *color.Color
	headerColor *color.Color
	timingColor *color.Color
}

func NewShell(executor Executor, in io.Reader, out io.Writer, logger *zap.SugaredLogger) *Shell {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	return &Shell{
		executor:    executor,
		scanner:     scanner,
		out:         out,
		logger:      logger,
		errColor:    color.New(color.FgRed),
		headerColor: color.New(color.Bold, color.FgCyan),
		timingColor: color.New(color.FgHiBlack),
	}
}

// Run loops until exit or the end of input.
func (s *Shell) Run() error {
	s.headerColor.Fprintln(s.out, "resourcedb")
	fmt.Fprintln(s.out, "Type 'help' for available commands")

	for {
		fmt.Fprint(s.out, Prompt)
		if !s.scanner.Scan() {
			fmt.Fprintln(s.out)
			return s.scanner.Err()
		}

		line := strings.TrimSpace(s.scanner.Text())
		if line == "" {
			continue
		}
		if s.RunCommand(line) {
			fmt.Fprintln(s.out, "Goodbye!")
			return nil
		}
	}
}

// RunCommand executes one line and prints its rows, or its error, followed
// by the time taken. It reports whether the command asked to exit.
func (s *Shell) RunCommand(line string) bool {
	start := time.Now()
	resp, err := s.executor.Execute(line)
	elapsed := time.Since(start)

	if err != nil {
		if !directors.IsCommandError(err) {
			s.logger.Errorw("Command failed", "command", line, "error", err)
		}
		s.errColor.Fprintf(s.out, "Error: %v\n", err)
	} else {
		if resp.Exit {
			return true
		}
		for _, row := range resp.Result {
			fmt.Fprintln(s.out, row)
		}
	}

	s.timingColor.Fprintf(s.out, "Processed in: %.02f ms\n", float64(elapsed.Microseconds())/1000)
	return false
}
