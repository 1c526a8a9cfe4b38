package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/young1lin/groundsearch/internal/models"
	"github.com/young1lin/groundsearch/internal/orchestrator"
	"github.com/young1lin/groundsearch/internal/presenter"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Terminal drives a controller from typed lines and prints each state
// through the text renderer.
type Terminal struct {
	ctrl *orchestrator.Controller
	opts presenter.Options
	out  io.Writer
}

// NewTerminal creates a terminal surface writing to out
func NewTerminal(ctrl *orchestrator.Controller, opts presenter.Options, out io.Writer) *Terminal {
	return &Terminal{ctrl: ctrl, opts: opts, out: out}
}

// Ask runs a single search and prints its outcome
func (t *Terminal) Ask(ctx context.Context, query string) (models.SearchState, error) {
	if !t.ctrl.Submit(query) {
		return t.ctrl.State(), errors.New("query is empty")
	}
	return t.await(ctx)
}

// Render prints the current state
func (t *Terminal) Render() error {
	return presenter.RenderText(t.out, presenter.Build(t.ctrl.State(), t.ctrl.Query(), t.opts))
}

// HandleLine runs one line of input. It returns false when the session
// should end.
func (t *Terminal) HandleLine(ctx context.Context, line string) (bool, error) {
	input := strings.TrimSpace(line)
	if input == "" {
		return true, nil
	}

	if strings.HasPrefix(input, "/") {
		return t.handleCommand(ctx, input)
	}

	// A number picks a suggestion while they are on screen; anything else,
	// including an out of range number, is searched as typed
	if n, err := strconv.Atoi(input); err == nil && t.ctrl.State().Status == models.StatusIdle &&
		n >= 1 && n <= len(t.opts.Suggestions) {
		input = t.opts.Suggestions[n-1]
	}

	_, err := t.Ask(ctx, input)
	return true, err
}

func (t *Terminal) handleCommand(ctx context.Context, input string) (bool, error) {
	switch strings.ToLower(strings.Fields(input)[0]) {
	case "/retry":
		if !t.ctrl.Retry() {
			fmt.Fprintf(t.out, "%sNothing to retry%s\n", colorYellow, colorReset)
			return true, nil
		}
		_, err := t.await(ctx)
		return true, err

	case "/suggest":
		t.printSuggestions()
		return true, nil

	case "/help":
		t.printHelp()
		return true, nil

	case "/exit", "/quit", "/q":
		return false, nil

	default:
		fmt.Fprintf(t.out, "%sUnknown command: %s%s\n", colorYellow, input, colorReset)
		fmt.Fprintln(t.out, "Type /help for available commands")
		return true, nil
	}
}

// await prints the loading line, then the settled state
func (t *Terminal) await(ctx context.Context) (models.SearchState, error) {
	if err := t.Render(); err != nil {
		return models.SearchState{}, err
	}
	state, err := t.ctrl.Await(ctx)
	if err != nil {
		return state, err
	}
	fmt.Fprintln(t.out)
	if err := t.Render(); err != nil {
		return state, err
	}
	fmt.Fprintln(t.out)
	return state, nil
}

func (t *Terminal) printSuggestions() {
	v := presenter.Build(models.IdleState(), "", t.opts)
	fmt.Fprintf(t.out, "%s:\n", v.SuggestionsHeading)
	for i, s := range v.Suggestions {
		fmt.Fprintf(t.out, "  %d. %s\n", i+1, s)
	}
}

func (t *Terminal) printHelp() {
	fmt.Fprintf(t.out, `
%sCommands:%s
  /retry    - Run the last query again
  /suggest  - List suggested queries
  /help     - Show this help message
  /exit     - Exit

%sAnything else is searched. Type a number to pick a suggestion.%s

`, colorCyan, colorReset, colorGray, colorReset)
}

// newReadlineConfig keeps line history in memory only, for the current session
func newReadlineConfig(out io.Writer) *readline.Config {
	return &readline.Config{
		Prompt:            fmt.Sprintf("%ssearch> %s", colorGreen, colorReset),
		HistoryLimit:      1000,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
		Stdout:            out,
	}
}

// RunREPL reads lines until /exit, EOF or ctx is done
func (t *Terminal) RunREPL(ctx context.Context) error {
	rl, err := readline.NewEx(newReadlineConfig(t.out))
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	if err := t.Render(); err != nil {
		return err
	}
	fmt.Fprintf(t.out, "%sType /help for help, /exit to quit%s\n\n", colorGray, colorReset)

	for {
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				fmt.Fprintf(t.out, "%sPress Ctrl+D or type /exit to quit%s\n", colorYellow, colorReset)
				continue
			}
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		more, err := t.HandleLine(ctx, line)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !more {
			return nil
		}
	}
}
