package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/hanul-clinic/clinicboard/internal/config"
	"github.com/hanul-clinic/clinicboard/internal/errors"
	"github.com/hanul-clinic/clinicboard/internal/ops"
	"github.com/hanul-clinic/clinicboard/internal/schedule"
	"github.com/hanul-clinic/clinicboard/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "clinicboard",
		Usage:   "Clinic notice board",
		Version: Version,
		Commands: []*cli.Command{
			storeCmd(db, cfg),
			fetchCmd(db),
			updateCmd(db, cfg),
			publishCmd(db),
			unpublishCmd(db),
			deleteCmd(db),
			listCmd(db, cfg),
			searchCmd(db, cfg),
			previewCmd(cfg),
			exportCmd(db, cfg),
			importCmd(db, cfg),
			purgeCmd(db),
			rebuildCmd(db, cfg),
			categoryCmd(db),
			serveCmd(db, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// contentFlags are shared by store and update.
func contentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Notice title"},
		&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Content format: delta|tree (detected when omitted)"},
		&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Category slug"},
		&cli.StringFlag{Name: "author", Aliases: []string{"a"}, Usage: "Author display name"},
	}
}

// storeCmd creates the store command.
func storeCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "store",
		Usage: "Create a notice (reads the editor document from stdin, if piped)",
		Flags: append(contentFlags(),
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Value: "draft", Usage: "Initial status: draft|published"},
			&cli.BoolFlag{Name: "pinned", Usage: "Pin the notice"},
		),
		Action: func(c *cli.Context) error {
			input := ops.StoreInput{
				Title:         c.String("title"),
				ContentFormat: c.String("format"),
				Status:        c.String("status"),
				Pinned:        c.Bool("pinned"),
			}

			if stdinHasData() {
				content, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if content != "" {
					input.Content = json.RawMessage(content)
				}
			}
			if category := c.String("category"); category != "" {
				input.Category = &category
			}
			if author := c.String("author"); author != "" {
				input.Author = &author
			}

			output, err := ops.Store(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// fetchCmd creates the fetch command.
func fetchCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "Fetch a notice by ID, drafts included",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notices"},
			&cli.BoolFlag{Name: "no-content", Usage: "Exclude the source document and plain text"},
		},
		Action: func(c *cli.Context) error {
			input := ops.FetchInput{
				ID:             c.Args().First(),
				IncludeDeleted: c.Bool("include-deleted"),
			}

			if c.Bool("no-content") {
				includeContent := false
				input.IncludeContent = &includeContent
			}

			output, err := ops.Fetch(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// updateCmd creates the update command.
func updateCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Update a notice (optionally reads a new document from stdin)",
		ArgsUsage: "<id>",
		Flags: append(contentFlags(),
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "New status: draft|published"},
			&cli.BoolFlag{Name: "pinned", Usage: "Pin or unpin (--pinned=false)"},
			&cli.BoolFlag{Name: "clear-content", Usage: "Remove the notice body"},
		),
		Action: func(c *cli.Context) error {
			input := ops.UpdateInput{
				ID:            c.Args().First(),
				ContentFormat: c.String("format"),
			}

			switch {
			case c.Bool("clear-content"):
				input.Content = json.RawMessage("null")
			case stdinHasData():
				content, err := readStdin()
				if err != nil {
					return outputError(errors.NewInternal(err))
				}
				if content != "" {
					input.Content = json.RawMessage(content)
				}
			}

			if c.IsSet("title") {
				title := c.String("title")
				input.Title = &title
			}
			if c.IsSet("category") {
				category := c.String("category")
				input.Category = &category
			}
			if c.IsSet("status") {
				status := c.String("status")
				input.Status = &status
			}
			if c.IsSet("pinned") {
				pinned := c.Bool("pinned")
				input.Pinned = &pinned
			}
			if c.IsSet("author") {
				author := c.String("author")
				input.Author = &author
			}

			output, err := ops.Update(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// publishCmd creates the publish command.
func publishCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "publish",
		Usage:     "Publish a notice on the board",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Publish(c.Context, db, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// unpublishCmd creates the unpublish command.
func unpublishCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "unpublish",
		Usage:     "Return a notice to draft",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Unpublish(c.Context, db, c.Args().First())
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Soft-delete a notice",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, db, c.Args().First())
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// listFlags are shared by list and search.
func listFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Filter by category slug"},
		&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Filter by status: draft|published"},
		&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Maximum items to return"},
		&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notices"},
	}
}

// optional returns a pointer to the flag value, or nil when it is empty.
func optional(c *cli.Context, name string) *string {
	if v := c.String(name); v != "" {
		return &v
	}
	return nil
}

// listCmd creates the list command.
func listCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List notices, pinned first, then newest",
		Flags: listFlags(),
		Action: func(c *cli.Context) error {
			input := ops.ListInput{
				Category:       optional(c, "category"),
				Status:         optional(c, "status"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			}

			output, err := ops.List(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// searchCmd creates the search command.
func searchCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over titles and bodies",
		ArgsUsage: "<query...>",
		Flags:     listFlags(),
		Action: func(c *cli.Context) error {
			input := ops.SearchInput{
				Query:          strings.Join(c.Args().Slice(), " "),
				Category:       optional(c, "category"),
				Status:         optional(c, "status"),
				Limit:          c.Int("limit"),
				Offset:         c.Int("offset"),
				IncludeDeleted: c.Bool("include-deleted"),
			}

			output, err := ops.Search(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// previewCmd creates the preview command. It needs no database.
func previewCmd(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Render a document from stdin without storing it",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Content format: delta|tree (detected when omitted)"},
			&cli.BoolFlag{Name: "html", Usage: "Print only the HTML"},
		},
		Action: func(c *cli.Context) error {
			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("document must be piped via stdin"))
			}
			content, err := readStdin()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}

			output, err := ops.Preview(cfg, ops.PreviewInput{
				Content:       json.RawMessage(content),
				ContentFormat: c.String("format"),
			})
			if err != nil {
				return outputError(err)
			}

			if c.Bool("html") {
				_, err := fmt.Fprintln(os.Stdout, output.HTML)
				return err
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export notices to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.clinicboard/exports/notices-<timestamp>.jsonl)"},
			&cli.BoolFlag{Name: "include-deleted", Usage: "Include soft-deleted notices"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ExportInput{
				Path:           c.String("path"),
				IncludeDeleted: c.Bool("include-deleted"),
			}

			output, err := ops.Export(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import notices from a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace"},
		},
		Action: func(c *cli.Context) error {
			input := ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			}

			output, err := ops.Import(c.Context, db, cfg, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// purgeCmd creates the purge command.
func purgeCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "purge",
		Usage: "Permanently delete soft-deleted notices",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "older-than", Usage: "Only purge if deleted more than N days ago (e.g., 30d)"},
		},
		Action: func(c *cli.Context) error {
			input := ops.PurgeInput{}

			if olderThan := c.String("older-than"); olderThan != "" {
				days, err := parseDuration(olderThan)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				input.OlderThanDays = &days
			}

			output, err := ops.Purge(c.Context, db, input)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(output)
		},
	}
}

// rebuildCmd creates the rebuild command.
func rebuildCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "rebuild",
		Usage: "Re-render cached HTML and plain text for every notice",
		Action: func(c *cli.Context) error {
			output, err := ops.Rebuild(c.Context, db, cfg)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// categoryCmd groups the category subcommands.
func categoryCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "category",
		Usage: "Manage notice categories",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create a category",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "slug", Required: true, Usage: "URL slug (a-z, 0-9, '-')"},
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Display name"},
					&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Markdown description"},
					&cli.IntFlag{Name: "sort-order", Usage: "Menu position (ascending)"},
				},
				Action: func(c *cli.Context) error {
					output, err := ops.CreateCategory(c.Context, db, ops.CreateCategoryInput{
						Slug:          c.String("slug"),
						Name:          c.String("name"),
						DescriptionMD: c.String("description"),
						SortOrder:     c.Int("sort-order"),
					})
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "list",
				Usage: "List categories with published notice counts",
				Action: func(c *cli.Context) error {
					output, err := ops.ListCategories(c.Context, db)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// serveCmd runs the public board, the admin API and the purge schedule.
func serveCmd(db *sql.DB, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the notice board over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
			&cli.BoolFlag{Name: "no-schedule", Usage: "Do not run scheduled jobs"},
		},
		Action: func(c *cli.Context) error {
			if addr := c.String("addr"); addr != "" {
				cfg.ListenAddr = addr
			}

			if !c.Bool("no-schedule") {
				sched, err := schedule.New(db, cfg)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				sched.Start()
				defer func() {
					ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
					defer cancel()
					sched.Stop(ctx)
				}()
				for name, next := range sched.Jobs() {
					logrus.WithFields(logrus.Fields{"job": name, "next": next}).Info("job scheduled")
				}
			}

			if err := web.Run(c.Context, web.NewServer(db, cfg, Version)); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if bErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", bErr.Code, bErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads all content from stdin.
func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// parseDuration parses "30d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 30d")
}
