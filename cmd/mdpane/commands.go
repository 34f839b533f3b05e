package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/gubarz/mdpane/internal/config"
	"github.com/gubarz/mdpane/internal/format"
	"github.com/gubarz/mdpane/internal/log"
	"github.com/gubarz/mdpane/internal/normalize"
	"github.com/gubarz/mdpane/internal/paste"
	"github.com/gubarz/mdpane/internal/render"
	"github.com/gubarz/mdpane/internal/watch"
)

var (
	errNeedFile    = errors.New("--write needs a file argument")
	errNoClipboard = errors.New("no clipboard tool found (install xclip, xsel or wl-clipboard)")
)

// applyMode overrides the configured mode when --mode was given
func applyMode(cmd *cobra.Command, mode string) error {
	if !cmd.Flags().Changed("mode") {
		return nil
	}
	m, err := normalize.ParseMode(mode)
	if err != nil {
		return err
	}
	config.SetMode(m)
	return nil
}

func newFormatCmd(a *app) *cobra.Command {
	var (
		mode        string
		engine      string
		write       bool
		diff        bool
		noNormalize bool
	)

	cmd := &cobra.Command{
		Use:   "format [file]",
		Short: "Format Markdown and normalize blank lines",
		Long: `Runs the configured formatter over a file or stdin, then the blank-line
normalizer. The result goes to stdout unless --write or --diff is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyMode(cmd, mode); err != nil {
				return err
			}
			if cmd.Flags().Changed("engine") {
				config.SetFormatEngine(engine)
			}
			if noNormalize {
				config.SetNormalize(false)
			}
			if write && len(args) == 0 {
				return errNeedFile
			}

			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}
			out, err := p.Format(cmd.Context(), in)
			if err != nil {
				return err
			}

			switch {
			case diff:
				fmt.Fprint(cmd.OutOrStdout(), format.Diff(in, out))
			case write:
				if !format.Changed(in, out) {
					return nil
				}
				return a.document(args).Write(out)
			default:
				fmt.Fprint(cmd.OutOrStdout(), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Blank-line mode: remove, collapse")
	cmd.Flags().StringVarP(&engine, "engine", "e", "", "Formatter: markdownfmt, prettier, none")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file in place")
	cmd.Flags().BoolVar(&diff, "diff", false, "Print a line diff instead of the result")
	cmd.Flags().BoolVar(&noNormalize, "no-normalize", false, "Skip the blank-line pass")
	return cmd
}

func newNormalizeCmd(a *app) *cobra.Command {
	var (
		mode  string
		write bool
	)

	cmd := &cobra.Command{
		Use:   "normalize [file]",
		Short: "Normalize blank lines outside code fences",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := applyMode(cmd, mode); err != nil {
				return err
			}
			if write && len(args) == 0 {
				return errNeedFile
			}

			in, err := a.readInput(cmd, args)
			if err != nil {
				return err
			}
			out := normalize.New(config.GetMode()).Apply(in)
			if write {
				return a.document(args).Write(out)
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Blank-line mode: remove, collapse")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "Rewrite the file in place")
	return cmd
}

func newPasteCmd(a *app) *cobra.Command {
	var htmlFile, mdFile string

	cmd := &cobra.Command{
		Use:   "paste [file]",
		Short: "Append clipboard content to a document",
		Long: `Reads the clipboard (or --html / --markdown files), converts HTML to
Markdown, formats it and appends it to the file or the stored document.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := a.source
			if htmlFile != "" || mdFile != "" {
				payload, err := a.readPayload(htmlFile, mdFile)
				if err != nil {
					return err
				}
				src = paste.StaticSource{Payload: payload}
			}

			doc := a.document(args)
			existing, err := doc.LoadOrEmpty()
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			out, pasted, err := paste.NewHandler(src, paste.NewHTMLConverter(), p).Paste(cmd.Context(), existing)
			if err != nil {
				return err
			}
			if !pasted {
				fmt.Fprintln(cmd.ErrOrStderr(), "nothing to paste")
				return nil
			}
			if err := doc.Write(out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "pasted into %s\n", doc.Path())
			return nil
		},
	}

	cmd.Flags().StringVar(&htmlFile, "html", "", "Read text/html content from FILE")
	cmd.Flags().StringVar(&mdFile, "markdown", "", "Read text/markdown content from FILE")
	return cmd
}

func (a *app) readPayload(htmlFile, mdFile string) (paste.Payload, error) {
	var p paste.Payload
	if htmlFile != "" {
		data, err := afero.ReadFile(a.fs, htmlFile)
		if err != nil {
			return p, fmt.Errorf("read html: %w", err)
		}
		p.HTML = string(data)
	}
	if mdFile != "" {
		data, err := afero.ReadFile(a.fs, mdFile)
		if err != nil {
			return p, fmt.Errorf("read markdown: %w", err)
		}
		p.Markdown = string(data)
	}
	return p, nil
}

func newPreviewCmd(a *app) *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Render Markdown to the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := a.document(args)
			r := a.renderer()

			show := func() error {
				content, err := doc.Load()
				if err != nil {
					return err
				}
				out, err := r.Render(content)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}

			if err := show(); err != nil {
				return err
			}
			if !follow {
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return watch.Watch(ctx, doc.Path(), watch.DefaultDebounce, func() {
				// Clear the screen before each redraw
				fmt.Fprint(cmd.OutOrStdout(), "\x1b[2J\x1b[H")
				if err := show(); err != nil {
					log.WarnErr(log.CatWatch, "re-render failed", err, "path", doc.Path())
				}
			})
		},
	}

	cmd.Flags().BoolVar(&follow, "watch", false, "Re-render when the file changes")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export Markdown as a standalone HTML page",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc := a.document(args)
			content, err := doc.Load()
			if err != nil {
				return err
			}
			body, err := render.HTML(content)
			if err != nil {
				return err
			}
			title := strings.TrimSuffix(doc.Name(), ".md")
			page := render.Page(title, body)

			if out == "" {
				fmt.Fprint(cmd.OutOrStdout(), page)
				return nil
			}
			if err := afero.WriteFile(a.fs, out, []byte(page), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Write HTML to FILE instead of stdout")
	return cmd
}

func newCopyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "copy [file]",
		Short: "Copy a document to the clipboard",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := a.document(args).Load()
			if err != nil {
				return err
			}
			if cb, ok := a.sink.(paste.SystemClipboard); ok && !cb.Available() {
				return errNoClipboard
			}
			if err := a.sink.Write(content); err != nil {
				return fmt.Errorf("copy to clipboard: %w", err)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), "copied")
			return nil
		},
	}
}
