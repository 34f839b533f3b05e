package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gubarz/mdpane/internal/config"
	"github.com/gubarz/mdpane/internal/format"
	"github.com/gubarz/mdpane/internal/log"
	"github.com/gubarz/mdpane/internal/paste"
	"github.com/gubarz/mdpane/internal/render"
	"github.com/gubarz/mdpane/internal/ui"
)

var version = "0.1.0"

// app carries what every command shares. Tests swap fs and the clipboard.
type app struct {
	cfgFile  string
	debug    bool
	fs       afero.Fs
	source   paste.Source
	sink     paste.Sink
	closeLog func()
}

func newApp() *app {
	return &app{
		fs:     afero.NewOsFs(),
		source: paste.SystemClipboard{},
		sink:   paste.SystemClipboard{},
	}
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mdpane [file]",
		Short: "Split-pane Markdown editor with a blank-line normalizer",
		Long: `Edit Markdown in the terminal with a live rendered preview.

The editor formats on demand and converts clipboard HTML to Markdown
on paste. Without a file argument the last session's document is
restored from local storage.`,
		Args:              cobra.MaximumNArgs(1),
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
		RunE:              a.runEditor,
	}
	cmd.Version = version

	cmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default ~/.config/mdpane/mdpane.yaml)")
	cmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "Write debug log to the configured log file")
	_ = viper.BindPFlag("debug", cmd.PersistentFlags().Lookup("debug"))

	cmd.AddCommand(
		newFormatCmd(a),
		newNormalizeCmd(a),
		newPasteCmd(a),
		newPreviewCmd(a),
		newExportCmd(a),
		newCopyCmd(a),
	)
	return cmd
}

func (a *app) initConfig(cmd *cobra.Command, args []string) error {
	if err := config.Init(a.cfgFile); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if config.GetDebug() && a.closeLog == nil {
		closeLog, err := log.Init(config.GetLogFile())
		if err != nil {
			return err
		}
		a.closeLog = closeLog
		log.Info(log.CatConfig, "config loaded", "file", viper.ConfigFileUsed(), "mode", config.GetMode())
	}
	ui.RefreshStyles()
	return nil
}

// pipeline builds the formatter chain from the current configuration
func (a *app) pipeline() (*format.Pipeline, error) {
	engine, err := format.NewEngine(config.GetFormatEngine(), config.GetFormatCommand())
	if err != nil {
		return nil, err
	}
	opts := format.Options{
		TabWidth:  config.GetTabWidth(),
		UseTabs:   config.GetUseTabs(),
		ProseWrap: config.GetProseWrap(),
	}
	return format.NewPipeline(engine, opts, config.GetMode()).WithNormalize(config.GetNormalize()), nil
}

func (a *app) renderer() *render.Terminal {
	return render.NewTerminal(config.GetPreviewStyle(), config.GetPreviewWrap())
}

func (a *app) runEditor(cmd *cobra.Command, args []string) error {
	doc := a.document(args)
	content, err := doc.LoadOrEmpty()
	if err != nil {
		return err
	}

	pipeline, err := a.pipeline()
	if err != nil {
		return err
	}

	_, err = ui.Run(ui.Deps{
		Title:    doc.Name(),
		Content:  content,
		Saver:    doc,
		Pipeline: pipeline,
		Paste:    paste.NewHandler(a.source, paste.NewHTMLConverter(), pipeline),
		Sink:     a.sink,
		Renderer: a.renderer(),
		Split:    config.GetSplit(),
	})
	return err
}

func main() {
	a := newApp()
	err := newRootCmd(a).Execute()
	if a.closeLog != nil {
		a.closeLog()
	}
	if err != nil {
		os.Exit(1)
	}
}
