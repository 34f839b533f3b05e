package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/gubarz/mdpane/internal/log"
	"github.com/gubarz/mdpane/internal/normalize"
)

// Config holds the application configuration
type Config struct {
	Mode      string        `mapstructure:"mode"`
	Normalize bool          `mapstructure:"normalize"`
	Format    FormatConfig  `mapstructure:"format"`
	Storage   StorageConfig `mapstructure:"storage"`
	Preview   PreviewConfig `mapstructure:"preview"`
	UI        UIConfig      `mapstructure:"ui"`
	LogFile   string        `mapstructure:"log_file"`
	Debug     bool          `mapstructure:"debug"`
}

// FormatConfig configures the external formatter step
type FormatConfig struct {
	Engine    string `mapstructure:"engine"`
	Command   string `mapstructure:"command"`
	TabWidth  int    `mapstructure:"tab_width"`
	UseTabs   bool   `mapstructure:"use_tabs"`
	ProseWrap string `mapstructure:"prose_wrap"`
}

// StorageConfig configures where editor content is persisted
type StorageConfig struct {
	Dir string `mapstructure:"dir"`
}

// PreviewConfig configures the rendered preview
type PreviewConfig struct {
	Style string `mapstructure:"style"`
	Wrap  int    `mapstructure:"wrap"`
}

// UIConfig configures the split-pane TUI
type UIConfig struct {
	Split       int    `mapstructure:"split"`
	ColorBorder string `mapstructure:"color_border"`
	ColorStatus string `mapstructure:"color_status"`
	ColorDim    string `mapstructure:"color_dim"`
}

// C is the global config instance
var C Config

// SetDefaults registers every key with its default value
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", string(normalize.DefaultMode))
	v.SetDefault("normalize", true)
	v.SetDefault("format.engine", "markdownfmt")
	v.SetDefault("format.command", "prettier")
	v.SetDefault("format.tab_width", 4)
	v.SetDefault("format.use_tabs", false)
	v.SetDefault("format.prose_wrap", "preserve")
	v.SetDefault("storage.dir", defaultDataDir())
	v.SetDefault("preview.style", "dark")
	v.SetDefault("preview.wrap", 80)
	v.SetDefault("ui.split", 50) // Editor width in percent
	v.SetDefault("ui.color_border", "240")
	v.SetDefault("ui.color_status", "212")
	v.SetDefault("ui.color_dim", "241")
	v.SetDefault("log_file", filepath.Join(os.TempDir(), "mdpane.log"))
	v.SetDefault("debug", false)
}

// Init initializes configuration with viper. An explicit file that cannot be
// read is an error; a missing default config file is not.
func Init(file string) error {
	SetDefaults(viper.GetViper())

	if file != "" {
		viper.SetConfigFile(file)
	} else {
		viper.SetConfigName("mdpane")
		viper.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "mdpane"))
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("MDPANE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return err
		}
	}

	return viper.Unmarshal(&C)
}

// defaultDataDir follows XDG for the persisted document
func defaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mdpane")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "mdpane")
	}
	return filepath.Join(os.TempDir(), "mdpane")
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetMode returns the configured normalize mode, falling back to the default
// for unrecognized values
func GetMode() normalize.Mode {
	raw := viper.GetString("mode")
	mode, err := normalize.ParseMode(raw)
	if err != nil {
		log.WarnErr(log.CatConfig, "invalid mode, using default", err, "default", normalize.DefaultMode)
		return normalize.DefaultMode
	}
	return mode
}

// GetNormalize returns whether the blank-line pass runs after formatting
func GetNormalize() bool {
	return viper.GetBool("normalize")
}

// GetFormatEngine returns the formatter engine name
func GetFormatEngine() string {
	return viper.GetString("format.engine")
}

// GetFormatCommand returns the external formatter executable
func GetFormatCommand() string {
	return viper.GetString("format.command")
}

// GetTabWidth returns the formatter tab width
func GetTabWidth() int {
	return viper.GetInt("format.tab_width")
}

// GetUseTabs returns whether the formatter indents with tabs
func GetUseTabs() bool {
	return viper.GetBool("format.use_tabs")
}

// GetProseWrap returns the formatter prose wrap policy
func GetProseWrap() string {
	return viper.GetString("format.prose_wrap")
}

// GetStorageDir returns the content directory with tilde expansion
func GetStorageDir() string {
	return expandTilde(viper.GetString("storage.dir"))
}

// GetPreviewStyle returns the glamour style name
func GetPreviewStyle() string {
	return viper.GetString("preview.style")
}

// GetPreviewWrap returns the preview word wrap width
func GetPreviewWrap() int {
	return viper.GetInt("preview.wrap")
}

// GetSplit returns the initial editor pane width in percent
func GetSplit() int {
	return viper.GetInt("ui.split")
}

// GetColorBorder returns the pane border color
func GetColorBorder() string {
	return viper.GetString("ui.color_border")
}

// GetColorStatus returns the status line color
func GetColorStatus() string {
	return viper.GetString("ui.color_status")
}

// GetColorDim returns the help text color
func GetColorDim() string {
	return viper.GetString("ui.color_dim")
}

// GetLogFile returns the debug log path
func GetLogFile() string {
	return expandTilde(viper.GetString("log_file"))
}

// GetDebug returns whether debug logging is enabled
func GetDebug() bool {
	return viper.GetBool("debug")
}

// SetMode sets the normalize mode at runtime
func SetMode(mode normalize.Mode) {
	viper.Set("mode", string(mode))
	C.Mode = string(mode)
}

// SetFormatEngine sets the engine at runtime
func SetFormatEngine(engine string) {
	viper.Set("format.engine", engine)
	C.Format.Engine = engine
}

// SetNormalize toggles the blank-line pass at runtime
func SetNormalize(enabled bool) {
	viper.Set("normalize", enabled)
	C.Normalize = enabled
}
