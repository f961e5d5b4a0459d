package main

import (
	"errors"
	"io"

	"github.com/klothoplatform/fabric/pkg/report"
	"github.com/klothoplatform/fabric/pkg/validation"
	"github.com/lithammer/dedent"
	"github.com/spf13/cobra"
)

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph>",
		Short: "Check a graph without deploying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.setup()
			if err != nil {
				return err
			}
			g, err := a.readGraph(args[0])
			if err != nil {
				return err
			}
			r := d.Validate(g)
			if err := a.write(cmd, r, func(w io.Writer, opts report.Options) error {
				return report.Validation(w, r, opts)
			}); err != nil {
				return err
			}
			if !r.Valid {
				return errInvalidGraph
			}
			return nil
		},
	}
}

func (a *app) previewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview <graph>",
		Short: "Show the changes up would make",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.setup()
			if err != nil {
				return err
			}
			g, err := a.readGraph(args[0])
			if err != nil {
				return err
			}
			ctx, done := a.withProgress(cmd)
			res, err := d.Preview(ctx, g, nil)
			done()
			if err != nil {
				return err
			}
			if err := a.write(cmd, res, func(w io.Writer, opts report.Options) error {
				return report.Preview(w, res, opts)
			}); err != nil {
				return err
			}
			if !res.Validation.Valid {
				return errInvalidGraph
			}
			return nil
		},
	}
}

func (a *app) upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up <graph>",
		Short: "Deploy a graph",
		Long: dedent.Dedent(`
			Deploy a graph to the stack named by its project and env. Credentials
			come from the config file or the ARM_* environment variables.`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.setup()
			if err != nil {
				return err
			}
			g, err := a.readGraph(args[0])
			if err != nil {
				return err
			}
			ctx, done := a.withProgress(cmd)
			res, err := d.Up(ctx, g, nil)
			done()

			var verr *validation.ValidationError
			if errors.As(err, &verr) {
				if werr := a.write(cmd, verr.Report, func(w io.Writer, opts report.Options) error {
					return report.Validation(w, verr.Report, opts)
				}); werr != nil {
					return werr
				}
				return errInvalidGraph
			} else if err != nil {
				return err
			}
			return a.write(cmd, res, func(w io.Writer, opts report.Options) error {
				return report.Up(w, res, opts)
			})
		},
	}
}

func (a *app) destroyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "destroy <project> <env>",
		Short: "Delete every resource of a stack",
		Long: dedent.Dedent(`
			Delete every resource of a stack. When the stack has no record, or its
			destroy fails, the stack's resource group is deleted directly if
			credentials are configured.`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.setup()
			if err != nil {
				return err
			}
			ctx, done := a.withProgress(cmd)
			res, err := d.Destroy(ctx, args[0], args[1], nil)
			done()
			if err != nil {
				return err
			}
			return a.write(cmd, res, func(w io.Writer, opts report.Options) error {
				return report.Destroy(w, res, opts)
			})
		},
	}
}

func (a *app) graphCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "graph <graph>",
		Short: "Print a graph in Graphviz DOT format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.readGraph(args[0])
			if err != nil {
				return err
			}
			return g.RenderDOT(cmd.OutOrStdout())
		},
	}
}

func (a *app) kindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the supported node kinds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, d, err := a.setup()
			if err != nil {
				return err
			}
			kinds := d.Kinds()
			return a.write(cmd, kinds, func(w io.Writer, opts report.Options) error {
				return report.Kinds(w, kinds, opts)
			})
		},
	}
}
