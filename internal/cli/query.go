package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"rgehrsitz/semrex/internal/resolver"
	"rgehrsitz/semrex/internal/rules"
	"rgehrsitz/semrex/internal/runtime"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Strategy string
	Fire     bool
}

type agendaEntry struct {
	Index    int          `json:"index"`
	Name     string       `json:"name,omitempty"`
	Event    string       `json:"event,omitempty"`
	Priority int          `json:"priority,omitempty"`
	Terms    []rules.Term `json:"terms"`
}

type queryResult struct {
	Facts  []rules.Term  `json:"facts"`
	Agenda []agendaEntry `json:"agenda"`
	Fired  []string      `json:"fired,omitempty"`
}

func (r *queryResult) Text(w io.Writer) {
	if len(r.Agenda) == 0 {
		fmt.Fprintln(w, "no rules matched")
		return
	}
	for _, e := range r.Agenda {
		terms := make([]string, len(e.Terms))
		for i, t := range e.Terms {
			terms[i] = t.String()
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t[%s]\n", e.Index, e.Name, e.Event, strings.Join(terms, " "))
	}
	for _, f := range r.Fired {
		fmt.Fprintf(w, "fired %s\n", f)
	}
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <rules-or-model-file> [fact...]",
		Short: "Evaluate a fact set against compiled rules",
		Long: `Load a rule file (.json, .yaml) or a compiled model (.rex), evaluate
the given facts and print the agenda of matched rules in rule order.

Facts that parse as numbers are numeric terms; everything else is text.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Strategy, "strategy", "none",
		fmt.Sprintf("conflict strategies, comma separated (%s)", strings.Join(resolver.Names, "|")))
	cmd.Flags().BoolVar(&opts.Fire, "fire", false, "invoke the actions of matched rules")

	return cmd
}

func runQuery(opts *QueryOptions, path string, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	strategy, err := resolver.Named(opts.Strategy)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStrategy, err)
	}

	result := &queryResult{Facts: make([]rules.Term, 0, len(args)), Agenda: []agendaEntry{}}
	handler := func(a *rules.Action) {
		result.Fired = append(result.Fired, fmt.Sprintf("%s (rule %d)", a.Event.Type, a.Index))
	}

	eng, err := loadEngine(path, handler, strategy)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeLoad, err)
	}

	for _, arg := range args {
		result.Facts = append(result.Facts, rules.ParseFact(arg))
	}
	agenda, err := eng.ExecuteQuery(result.Facts)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeQuery, err)
	}

	for _, a := range agenda {
		result.Agenda = append(result.Agenda, agendaEntry{
			Index:    a.Index,
			Name:     a.Name,
			Event:    a.Event.Type,
			Priority: a.Event.Priority,
			Terms:    a.Terms,
		})
	}
	if opts.Fire {
		runtime.Fire(agenda)
	}

	return formatter.Success(result)
}
