package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eringen/pubcontent"
	"github.com/eringen/pubcontent/output"
	"github.com/eringen/pubcontent/scaffold"
)

func (c *cli) newCmd() *cobra.Command {
	var (
		description string
		hero        string
		tags        []string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "new <title>",
		Short: "Create a new post with valid front-matter",
		Long: `Creates <content-dir>/<slug>.md with front-matter filled in and today's
date as pubDate, then validates it.

Example:
  pubcontent new "Hello World" --tags go,web`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := args[0]
			slug := pubcontent.Slugify(title)
			if slug == "" {
				return fmt.Errorf("cannot derive a file name from %q", title)
			}
			if description == "" {
				description = title
			}

			path := filepath.Join(c.cfg.ContentPath(), slug+".md")
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			var buf bytes.Buffer
			err := scaffold.RenderPost(&buf, scaffold.Post{
				Title:       title,
				Description: description,
				HeroImage:   hero,
				Tags:        pubcontent.FilterEmpty(tags),
			})
			if err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			output.Success("Created " + path)

			loader, err := pubcontent.NewLoader(c.cfg, nil)
			if err != nil {
				return err
			}
			if _, err := loader.LoadFile(cmd.Context(), path); err != nil {
				return fmt.Errorf("%s was created but is invalid: %w", path, err)
			}
			output.Step("Front-matter is valid")
			return nil
		},
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "Post description (default: the title)")
	cmd.Flags().StringVar(&hero, "hero", "", "Hero image path, relative to the post")
	cmd.Flags().StringSliceVarP(&tags, "tags", "t", nil, "Comma-separated tags")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing post")

	return cmd
}
