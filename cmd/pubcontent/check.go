package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/output"
	"github.com/eringen/pubcontent/schema"
)

func (c *cli) checkCmd() *cobra.Command {
	var failFast bool
	var workers int

	cmd := &cobra.Command{
		Use:   "check [project-root]",
		Short: "Validate every post in the content collection",
		Long: `Validates the front-matter of every Markdown file in the blog collection
and lists each invalid file with the fields that failed.

Exits non-zero when any file is invalid.

Example:
  pubcontent check
  pubcontent check ./site --fail-fast`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.cfg
			if len(args) == 1 {
				cfg.ProjectRoot = args[0]
			}
			if failFast {
				cfg.FailFast = true
			}
			if workers > 0 {
				cfg.Workers = workers
			}

			loader, err := pubcontent.NewLoader(cfg, nil)
			if err != nil {
				return err
			}
			output.Verbose(fmt.Sprintf("Scanning %s", cfg.ContentPath()))
			col, err := loader.Load(cmd.Context())
			if err != nil {
				return err
			}
			return report(col)
		},
	}

	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Report only the first error in each file")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Files validated in parallel (default from config)")

	return cmd
}

// report prints the collection and returns an error when any file failed.
func report(col *pubcontent.Collection) error {
	for _, e := range col.Entries {
		output.Verbose(fmt.Sprintf("%s -> %s", e.Path, e.Slug))
	}
	for _, fe := range col.Errors {
		output.Error(fe.Path)
		if verrs, ok := schema.AsValidationErrors(fe.Err); ok {
			for _, field := range verrs {
				output.Step(fmt.Sprintf("%s (%s)", field.Error(), field.Kind))
			}
			continue
		}
		output.Step(fe.Err.Error())
	}

	total := len(col.Entries) + len(col.Errors)
	if len(col.Errors) > 0 {
		return fmt.Errorf("%d of %d content files are invalid", len(col.Errors), total)
	}
	output.Success(fmt.Sprintf("%d content files are valid", total))
	return nil
}
