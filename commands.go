package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	apiapp "learnsnap/internal/api/app"
	"learnsnap/internal/domain"
	"learnsnap/internal/transport"
)

// withApp runs fn against a started application and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, app *App) error) (err error) {
	ctx := cmd.Context()
	app, err := NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		err = errors.Join(err, app.Close(closeCtx))
	}()
	if err := app.Start(); err != nil {
		return err
	}
	return fn(ctx, app)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var captureCmd = &cobra.Command{
	Use:   "capture <url>",
	Short: "Open a tab on a page, capture it and save the snapshot",
	Long: `Open a tab on the page, make it active and send CAPTURE_SNAPSHOT.

The capture request is only acknowledged by the background. The snapshot id is read from the
tab's own save, which the command waits for.

Examples:
  learnsnap capture https://go.dev/blog/pipelines
  learnsnap capture --mode headless https://example.com/spa
  learnsnap capture --file page.html https://example.com/page`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func runCapture(cmd *cobra.Command, args []string) error {
	mode, _ := cmd.Flags().GetString("mode")
	file, _ := cmd.Flags().GetString("file")
	wait, _ := cmd.Flags().GetDuration("wait")

	req := apiapp.OpenTabRequest{URL: args[0], Mode: mode}
	if file != "" {
		b, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read page file: %w", err)
		}
		req.Mode, req.HTML = "static", string(b)
	}

	return withApp(cmd, func(ctx context.Context, app *App) error {
		saved := make(chan domain.MessageResponse, 1)
		app.OnSaved(func(_ string, resp domain.MessageResponse) {
			select {
			case saved <- resp:
			default:
			}
		})
		tab, err := app.OpenTab(ctx, req)
		if err != nil {
			return err
		}
		defer app.CloseTab(tab.ID)

		var ack domain.CaptureAck
		if err := app.Client().Call(ctx, domain.KindCaptureSnapshot, nil, &ack); err != nil {
			return err
		}
		log.Debug("capture acknowledged", "status", ack.Status, "tab", tab.ID)

		select {
		case resp := <-saved:
			snap, err := transport.Decode[domain.Snapshot](resp)
			if err != nil {
				return fmt.Errorf("capture %s: %w", req.URL, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%d words\n", snap.ID, snap.Title, snap.Metadata.WordCount)
			return nil
		case <-time.After(wait):
			return fmt.Errorf("capture of %s was not saved within %s", req.URL, wait)
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored snapshots",
	RunE:    runList,
}

func runList(cmd *cobra.Command, _ []string) error {
	category, _ := cmd.Flags().GetString("category")
	query, _ := cmd.Flags().GetString("query")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	return withApp(cmd, func(ctx context.Context, app *App) error {
		kind, payload := domain.KindListSnapshots, any(nil)
		if category != "" || query != "" {
			kind, payload = domain.KindSearchSnapshots, domain.SnapshotQuery{Query: query, Category: category}
		}
		var list []*domain.Snapshot
		if err := app.Client().Call(ctx, kind, payload, &list); err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), list)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tDATE\tWORDS\tCATEGORIES\tTITLE")
		for _, s := range list {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", s.ID, s.CapturedDate(), s.Metadata.WordCount, strings.Join(s.Categories, ","), s.Title)
		}
		return tw.Flush()
	})
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored snapshot as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *App) error {
			var snap *domain.Snapshot
			if err := app.Client().Call(ctx, domain.KindGetSnapshot, args[0], &snap); err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("%s: %w", args[0], domain.ErrSnapshotNotFound)
			}
			return printJSON(cmd.OutOrStdout(), snap)
		})
	},
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a snapshot with its annotations",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, app *App) error {
			var res domain.DeleteResult
			if err := app.Client().Call(ctx, domain.KindDeleteSnapshot, args[0], &res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", res.ID)
			return nil
		})
	},
}

var translateCmd = &cobra.Command{
	Use:   "translate [text...]",
	Short: "Translate text, or standard input when no text is given",
	Long: `Translate text with a configured provider. Answers are cached by text and language pair.

With --batch the input is split into paragraphs on newlines and the paragraphs are translated
concurrently; the output keeps their order.`,
	RunE: runTranslate,
}

func runTranslate(cmd *cobra.Command, args []string) error {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	provider, _ := cmd.Flags().GetString("provider")
	batch, _ := cmd.Flags().GetBool("batch")

	text := strings.Join(args, " ")
	if text == "" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	}
	if provider == "" {
		provider = cfg.Translation.DefaultProvider
	}

	return withApp(cmd, func(ctx context.Context, app *App) error {
		out := cmd.OutOrStdout()
		if batch {
			var res []*domain.TranslationResult
			err := app.Client().Call(ctx, domain.KindTranslateBatch, domain.BatchTranslateParams{
				Text: text, Provider: provider, From: from, To: to,
			}, &res)
			if err != nil {
				return err
			}
			for _, r := range res {
				fmt.Fprintln(out, r.Translated)
			}
			return nil
		}
		var res domain.TranslationResult
		err := app.Client().Call(ctx, domain.KindTranslateText, domain.TranslateParams{
			Text: strings.TrimSpace(text), Provider: provider, From: from, To: to,
		}, &res)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, res.Translated)
		return nil
	})
}

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a snapshot",
	Long: `Export a snapshot. The obsidian format is written into the export directory unless
--stdout is set; other formats (json, csv) are printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	stdout, _ := cmd.Flags().GetBool("stdout")

	return withApp(cmd, func(ctx context.Context, app *App) error {
		c := app.Client()
		if format == "obsidian" && !stdout {
			var snap *domain.Snapshot
			if err := c.Call(ctx, domain.KindGetSnapshot, args[0], &snap); err != nil {
				return err
			}
			if snap == nil {
				return fmt.Errorf("%s: %w", args[0], domain.ErrSnapshotNotFound)
			}
			var res domain.ExportResult
			if err := c.Call(ctx, domain.KindExportObsidian, snap, &res); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Path)
			return nil
		}
		var f domain.ExportFile
		if err := c.Call(ctx, domain.KindExportSnapshot, domain.ExportRequest{ID: args[0], Format: format}, &f); err != nil {
			return err
		}
		b, err := base64.StdEncoding.DecodeString(f.ContentBase64)
		if err != nil {
			return fmt.Errorf("decode export: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(b)
		return err
	})
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show configured translation providers and whether they are reachable",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withApp(cmd, func(ctx context.Context, app *App) error {
			list, err := apiapp.NewProviderAPI(app.Client(), cfg.Translation.DefaultProvider).List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tREACHABLE\tDEFAULT")
			for _, p := range list {
				def := ""
				if p.Default {
					def = "*"
				}
				fmt.Fprintf(tw, "%s\t%t\t%s\n", p.Name, p.Reachable, def)
			}
			return tw.Flush()
		})
	},
}

func init() {
	rootCmd.AddCommand(captureCmd, listCmd, getCmd, deleteCmd, translateCmd, exportCmd, providersCmd)

	captureCmd.Flags().String("mode", "", "page source: fetch, headless or static (default from config)")
	captureCmd.Flags().String("file", "", "capture this HTML file as the page instead of loading the url")
	captureCmd.Flags().Duration("wait", 2*time.Minute, "how long to wait for the tab to save the snapshot")

	listCmd.Flags().String("category", "", "only snapshots in this category")
	listCmd.Flags().StringP("query", "q", "", "only snapshots whose title, text or description contains this")
	listCmd.Flags().Bool("json", false, "output as JSON")

	translateCmd.Flags().String("from", "auto", "source language")
	translateCmd.Flags().String("to", "en", "target language")
	translateCmd.Flags().StringP("provider", "p", "", "provider name (default from config)")
	translateCmd.Flags().Bool("batch", false, "translate paragraph by paragraph")

	exportCmd.Flags().StringP("format", "f", "obsidian", "export format: obsidian, json or csv")
	exportCmd.Flags().Bool("stdout", false, "print the obsidian note instead of writing it")
}
