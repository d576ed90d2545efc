package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"rgehrsitz/semrex/internal/compiler"
	"rgehrsitz/semrex/internal/rules"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

type compileResult struct {
	Rules      int    `json:"rules"`
	Terms      int    `json:"terms"`
	Categories []int  `json:"categories"`
	Output     string `json:"output,omitempty"`
}

func (r *compileResult) Text(w io.Writer) {
	fmt.Fprintf(w, "✓ Compiled %d rule(s) over %d term(s) in %d categories\n", r.Rules, r.Terms, len(r.Categories))
	if r.Output != "" {
		fmt.Fprintf(w, "  model written to %s\n", r.Output)
	}
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <rules-file>",
		Short: "Compile a JSON or YAML rule file",
		Long: `Compile a rule file and report what was registered.

With --output the compiled terms and rules are written as a model file
that "rex query" can load without recompiling.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output model file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	// Files only carry events; bodies are bound when the model is queried.
	eng, err := loadEngine(path, func(*rules.Action) {}, nil)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeCompile, err)
	}

	result := &compileResult{
		Rules:      eng.Len(),
		Terms:      eng.Terms(),
		Categories: eng.Categories(),
	}

	if opts.Output != "" {
		if err := writeModel(opts.Output, eng.Snapshot()); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeWrite, err)
		}
		result.Output = opts.Output
	}

	return formatter.Success(result)
}

func writeModel(path string, m *compiler.Model) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating model file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return compiler.EncodeModel(f, m)
}
