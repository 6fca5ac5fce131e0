package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/nordveil/ideaforge/internal"
	"github.com/nordveil/ideaforge/internal/index"
	"github.com/nordveil/ideaforge/internal/metadata"
	"github.com/nordveil/ideaforge/internal/section"
	pkgconfig "github.com/nordveil/ideaforge/pkg/config"
)

// setup loads configuration and wires the application for one command run.
func setup(cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfExists(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return internal.Setup(internal.WithConfig(cfg))
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func argInts(cmd *cli.Command, from int) ([]int, error) {
	args := cmd.Args().Slice()[from:]
	out := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil {
			return nil, fmt.Errorf("not a document id: %q", a)
		}
		out = append(out, n)
	}
	return out, nil
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the vault index with the files on disk",
		Action: func(_ context.Context, cmd *cli.Command) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			if err := index.Sync(app.Index, app.Store, app.Logger); err != nil {
				return err
			}
			app.Cache.Invalidate()
			return nil
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Print a document's parsed metadata and body",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("usage: show <path>")
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			detail, err := app.Docs.Get(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			return printJSON(detail)
		},
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Create a new idea document and assign it an id",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Usage: "Idea category"},
			&cli.StringSliceFlag{Name: "tag", Usage: "Tag (repeatable)"},
			&cli.StringFlag{Name: "body", Usage: "Initial body text"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("usage: new <path>")
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			path := cmd.Args().First()
			rec := metadata.Record{
				Kind:            metadata.Kind,
				Status:          metadata.StatusDraft,
				CreatedDate:     time.Now().Format(metadata.DateLayout),
				Category:        cmd.String("category"),
				Tags:            cmd.StringSlice("tag"),
				RelatedIDs:      []int{},
				DomainChecks:    []string{},
				ExistenceChecks: []string{},
			}
			if _, err := app.Docs.Create(ctx, path, rec, cmd.String("body")); err != nil {
				return err
			}
			id, err := app.Docs.AssignID(ctx, path)
			if err != nil {
				return err
			}
			fmt.Printf("created %s (id %d)\n", path, id)
			return nil
		},
	}
}

func setStatusCommand() *cli.Command {
	return &cli.Command{
		Name:      "set-status",
		Usage:     "Move a document to another lifecycle status",
		ArgsUsage: "<path> <" + strings.Join(metadata.Statuses(), "|") + ">",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 2 {
				return fmt.Errorf("usage: set-status <path> <status>")
			}
			path, status := cmd.Args().Get(0), cmd.Args().Get(1)
			if !slices.Contains(metadata.Statuses(), status) {
				return fmt.Errorf("unknown status %q (valid: %s)", status, strings.Join(metadata.Statuses(), ", "))
			}

			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			_, err = app.Docs.PutMetadata(ctx, path, func(r *metadata.Record) {
				r.Status = status
			})
			return err
		},
	}
}

func mergeCommand() *cli.Command {
	return &cli.Command{
		Name:      "merge",
		Usage:     "Replace or extend a labeled section of a document's body",
		ArgsUsage: "<path> <label> <content>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mode",
				Value: "replace",
				Usage: "One of replace, append-after, append-end",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 3 {
				return fmt.Errorf("usage: merge <path> <label> <content>")
			}
			var mode section.Mode
			switch cmd.String("mode") {
			case "replace":
				mode = section.Replace
			case "append-after":
				mode = section.AppendAfter
			case "append-end":
				mode = section.AppendAtEnd
			default:
				return fmt.Errorf("unknown mode: %s", cmd.String("mode"))
			}

			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			_, err = app.Docs.MergeSection(ctx,
				cmd.Args().Get(0), cmd.Args().Get(1), cmd.Args().Get(2), mode)
			return err
		},
	}
}

func relateCommand() *cli.Command {
	return &cli.Command{
		Name:      "relate",
		Usage:     "Add related document ids to a document's metadata",
		ArgsUsage: "<path> <id>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 2 {
				return fmt.Errorf("usage: relate <path> <id>...")
			}
			ids, err := argInts(cmd, 1)
			if err != nil {
				return err
			}

			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			_, err = app.Docs.PutMetadata(ctx, cmd.Args().First(), func(r *metadata.Record) {
				existing := make(map[int]struct{}, len(r.RelatedIDs))
				for _, id := range r.RelatedIDs {
					existing[id] = struct{}{}
				}
				for _, id := range ids {
					if _, dup := existing[id]; !dup {
						r.RelatedIDs = append(r.RelatedIDs, id)
					}
				}
			})
			return err
		},
	}
}

func relationsCommand() *cli.Command {
	return &cli.Command{
		Name:      "relations",
		Usage:     "Resolve document ids to their current paths and titles",
		ArgsUsage: "<id>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() < 1 {
				return fmt.Errorf("usage: relations <id>...")
			}
			ids, err := argInts(cmd, 0)
			if err != nil {
				return err
			}

			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			titles := app.Cache.IDsToTitles(ctx, ids)
			for _, id := range ids {
				paths := app.Cache.IDsToPaths(ctx, []int{id})
				if len(paths) == 0 {
					fmt.Printf("%d\t<not found>\n", id)
					continue
				}
				fmt.Printf("%d\t%s\t%s\n", id, paths[0], titles[id])
			}
			return nil
		},
	}
}

func referrersCommand() *cli.Command {
	return &cli.Command{
		Name:      "referrers",
		Usage:     "List documents whose relatedIds cite the given id",
		ArgsUsage: "<id>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("usage: referrers <id>")
			}
			id, err := strconv.Atoi(cmd.Args().First())
			if err != nil {
				return fmt.Errorf("not a document id: %q", cmd.Args().First())
			}

			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			refs, err := app.Index.Referrers(id)
			if err != nil {
				return err
			}
			for _, p := range refs {
				fmt.Println(p)
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List indexed documents, optionally filtered by status",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "status", Usage: "Only documents with this status"},
			&cli.IntFlag{Name: "limit", Value: 50, Usage: "Maximum number of rows"},
			&cli.IntFlag{Name: "offset", Usage: "Rows to skip"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			rows, total, err := app.Index.ListIdeas(int(cmd.Int("limit")), int(cmd.Int("offset")), cmd.String("status"))
			if err != nil {
				return err
			}
			for _, r := range rows {
				fmt.Printf("%d\t%s\t%s\t%s\n", r.DocID, r.Status, r.Path, r.Title)
			}
			fmt.Printf("%d of %d\n", len(rows), total)
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Strictly validate a document's metadata block",
		ArgsUsage: "<path>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("usage: check <path>")
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			detail, err := app.Docs.Get(ctx, cmd.Args().First())
			if err != nil {
				return err
			}
			if detail.Doc == nil {
				return fmt.Errorf("%s: no metadata block", detail.Path)
			}
			if err := detail.Doc.Meta.Validate(); err != nil {
				return fmt.Errorf("%s: %w", detail.Path, err)
			}
			if !metadata.ValidateSource(detail.Raw) {
				return fmt.Errorf("%s: metadata block is missing required keys or array fields", detail.Path)
			}
			fmt.Printf("%s: ok\n", detail.Path)
			return nil
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Search the vault index (lookup and duplicate detection)",
		ArgsUsage: "<query>",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of hits"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if cmd.Args().Len() != 1 {
				return fmt.Errorf("usage: search <query>")
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			hits, err := app.Index.Search(cmd.Args().First(), int(cmd.Int("limit")))
			if err != nil {
				return err
			}
			for _, h := range hits {
				fmt.Printf("%s\t%s\t%s\n", h.Path, h.Title, h.Snippet)
			}
			return nil
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "ideaforge",
		Usage: "Vault of structured idea documents with rename-proof relations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			syncCommand(),
			showCommand(),
			listCommand(),
			newCommand(),
			setStatusCommand(),
			mergeCommand(),
			relateCommand(),
			relationsCommand(),
			referrersCommand(),
			checkCommand(),
			searchCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
