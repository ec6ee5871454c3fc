package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/intake/internal/errors"
	"github.com/hpungsan/intake/internal/journal"
	"github.com/hpungsan/intake/internal/record"
	"github.com/hpungsan/intake/internal/session"
	"github.com/hpungsan/intake/internal/web"
)

// newCLIApp creates the CLI application with all commands. d may be nil when
// only help or version output is needed.
func newCLIApp(d *deps) *cli.App {
	app := &cli.App{
		Name:    "intake",
		Usage:   "Conversational record-filling agents",
		Version: Version,
		Commands: []*cli.Command{
			listCmd(d),
			exportCmd(d),
			importCmd(d),
			conceptsCmd(d),
			faqCmd(d),
			simulateCmd(d),
			webCmd(d),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// listCmd creates the list command.
func listCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List journal entries",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "persona", Aliases: []string{"p"}, Usage: "Filter by persona (order, lead, wellness)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: 20, Usage: "Most recent entries to return (0 for all)"},
		},
		Action: func(c *cli.Context) error {
			if c.Int("limit") < 0 {
				return outputError(errors.NewInvalidRequest("limit must be non-negative"))
			}
			name := c.String("persona")
			if name != "" {
				if _, ok := d.registry.Lookup(name); !ok {
					return outputError(errors.NewNotFound("persona", name))
				}
			}

			entries, err := d.journal.List(c.Context, name, c.Int("limit"))
			if err != nil {
				return outputError(err)
			}
			if entries == nil {
				entries = []journal.Entry{}
			}

			return outputJSON(c.App.Writer, map[string]any{
				"persona": name,
				"count":   len(entries),
				"entries": entries,
			})
		},
	}
}

// exportCmd creates the export command.
func exportCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export journal entries to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"o"}, Usage: "Export file path (default: ~/.intake/exports/<persona>-<timestamp>.jsonl)"},
			&cli.StringFlag{Name: "persona", Aliases: []string{"p"}, Usage: "Filter by persona"},
		},
		Action: func(c *cli.Context) error {
			name := c.String("persona")
			path := c.String("path")
			if path == "" {
				path = defaultExportPath(d.baseDir, name, time.Now())
			}

			result, err := journal.Export(c.Context, d.journal, name, path)
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, result)
		},
	}
}

// importCmd creates the import command.
func importCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Append entries from a JSONL export file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"i"}, Required: true, Usage: "Import file path"},
		},
		Action: func(c *cli.Context) error {
			result, err := journal.Import(c.Context, d.journal, c.String("path"))
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, result)
		},
	}
}

// conceptsCmd creates the concepts command.
func conceptsCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "concepts",
		Usage: "List tutor concepts",
		Action: func(c *cli.Context) error {
			return outputJSON(c.App.Writer, d.registry.Concepts.List())
		},
	}
}

// faqCmd creates the faq command.
func faqCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "faq",
		Usage:     "List FAQ topics, or answer one",
		ArgsUsage: "[topic]",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputJSON(c.App.Writer, map[string]any{"topics": d.registry.FAQ.Topics()})
			}

			topic := strings.Join(c.Args().Slice(), " ")
			answer, ok := d.registry.FAQ.Answer(topic)
			if !ok {
				return outputError(errors.NewNotFound("faq topic", topic))
			}
			return outputJSON(c.App.Writer, map[string]any{"topic": topic, "answer": answer})
		},
	}
}

// simulateCmd creates the simulate command, which drives one update through
// the session manager as the dialogue engine would.
func simulateCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "Apply field=value pairs to a persona record and print the reply",
		ArgsUsage: "[field=value ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "persona", Aliases: []string{"p"}, Value: "order", Usage: "Persona name"},
			&cli.StringFlag{Name: "session", Aliases: []string{"s"}, Value: "cli", Usage: "Session id"},
			&cli.BoolFlag{Name: "finalize", Usage: "Persist the record even if it is incomplete"},
		},
		Action: func(c *cli.Context) error {
			patch, err := parseAssignments(c.Args().Slice())
			if err != nil {
				return outputError(err)
			}

			name := c.String("persona")
			id := c.String("session")

			var cmd session.Command = session.Update{Persona: name, Patch: patch}
			if len(patch) == 0 {
				cmd = session.Prompt{Persona: name}
			}
			reply, err := d.manager.Dispatch(c.Context, id, cmd)
			if err != nil {
				return outputError(err)
			}

			if c.Bool("finalize") && reply.Status != session.StatusComplete {
				reply, err = d.manager.Dispatch(c.Context, id, session.Finalize{Persona: name, Force: true})
				if err != nil {
					return outputError(err)
				}
			}

			return outputJSON(c.App.Writer, reply)
		},
	}
}

// webCmd creates the web command.
func webCmd(d *deps) *cli.Command {
	return &cli.Command{
		Name:  "web",
		Usage: "Serve the read-only dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Aliases: []string{"b"}, Value: "127.0.0.1", Usage: "Bind address"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Port"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(web.Options{
				Journal:  d.journal,
				Registry: d.registry,
				Metrics:  d.metrics,
				Sessions: d.manager,
				Logger:   d.logger,
				Version:  Version,
			}, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(err)
			}
			return web.Run(c.Context, srv, d.logger)
		},
	}
}

// Helper functions

// outputJSON writes v to w as indented JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var iErr *errors.IntakeError
	if stderrors.As(err, &iErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", iErr.Code, iErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseAssignments turns field=value arguments into a patch. List fields
// take one assignment per item or a value their schema splits.
func parseAssignments(args []string) (record.Patch, error) {
	patch := make(record.Patch, 0, len(args))
	for _, arg := range args {
		field, value, ok := strings.Cut(arg, "=")
		field = strings.TrimSpace(field)
		if !ok || field == "" {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("expected field=value, got %q", arg))
		}
		patch = append(patch, record.Set(field, value))
	}
	return patch, nil
}

// defaultExportPath returns ~/.intake/exports/<persona>-<timestamp>.jsonl.
func defaultExportPath(baseDir, persona string, now time.Time) string {
	if persona == "" {
		persona = "all"
	}
	return filepath.Join(baseDir, "exports", fmt.Sprintf("%s-%s.jsonl", persona, now.UTC().Format("20060102T150405Z")))
}
