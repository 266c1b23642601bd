// Package main provides the entry point for the memegen CLI application.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/memegen/internal/canvas"
	"github.com/dgnsrekt/memegen/internal/speech"
	"github.com/dgnsrekt/memegen/ui"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile   string
	printMode    bool
	width        uint
	showAllFiles bool
	fastScaling  bool
	mouse        bool
	topText      string
	bottomText   string
	ttsEngine    string
	voice        string
	volume       speech.Volume
	speed        float64

	rootCmd = &cobra.Command{
		Use:   "memegen [IMAGE|DIR]",
		Short: "Make memes in the terminal, and hear them too",
		Long: paragraph(
			fmt.Sprintf("\nMake memes in the terminal, %s!", keyword("then hear them read aloud")),
		),
		Example: paragraph("memegen ~/Pictures\n" +
			"memegen doge.png --tts gtts\n" +
			"memegen cat.jpg --top 'i can has' --bottom 'cheezburger' --print"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		ValidArgsFunction: func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
			return nil, cobra.ShellCompDirectiveDefault
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", configFile)
	}

	// grab config values from Viper
	width = viper.GetUint("width")
	mouse = viper.GetBool("mouse")
	printMode = viper.GetBool("print")
	showAllFiles = viper.GetBool("all")
	fastScaling = viper.GetBool("fast")
	ttsEngine = viper.GetString("tts.engine")
	voice = viper.GetString("tts.voice")
	speed = viper.GetFloat64("tts.speed")

	v, err := speech.ParseVolume(viper.GetInt("tts.volume"))
	if err != nil {
		return err
	}
	volume = v

	if err := canvas.ValidateSize(viper.GetInt("canvas.width"), viper.GetInt("canvas.height")); err != nil {
		return fmt.Errorf("invalid canvas config: %w", err)
	}

	if ttsEngine != "" {
		engine, err := speech.ParseEngine(ttsEngine)
		if err != nil {
			return fmt.Errorf("TTS validation failed: %w", err)
		}
		if err := validateTTSConfig(engine); err != nil {
			return fmt.Errorf("TTS config validation failed: %w", err)
		}
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))

	// Detect terminal width
	if !cmd.Flags().Changed("width") { //nolint:nestif
		if isTerminal && width == 0 {
			w, _, err := term.GetSize(int(os.Stdout.Fd()))
			if err == nil {
				width = uint(w) //nolint:gosec
			}

			if width > 120 {
				width = 120
			}
		}
		if width == 0 {
			width = 80
		}
	}
	return nil
}

// validateTTSConfig validates TTS configuration values.
func validateTTSConfig(engine speech.EngineType) error {
	if err := speech.ValidateSpeed(speed); err != nil {
		return err
	}

	maxCacheSize := viper.GetInt("tts.cache.max_size")
	if maxCacheSize < 1 || maxCacheSize > 10000 {
		return fmt.Errorf("TTS cache max_size must be between 1 and 10000 MB, got %d", maxCacheSize)
	}

	if lang := viper.GetString("tts.gtts.language"); lang != "" {
		if err := speech.ValidateLanguage(lang); err != nil {
			return err
		}
	}

	if engine == speech.EnginePiper {
		models := expandPath(viper.GetString("tts.piper.models"))
		if models == "" {
			return errors.New("piper needs a models directory: set tts.piper.models")
		}
		if info, err := os.Stat(models); err != nil || !info.IsDir() {
			return fmt.Errorf("piper models directory does not exist: %s", models)
		}
	}
	return nil
}

func execute(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) == 1 {
		path = args[0]
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unable to open %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("unable to get absolute path: %w", err)
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	if printMode || cmd.Flags().Changed("print") || !isTerminal {
		if info.IsDir() {
			return errors.New("an image file is required to print a preview")
		}
		return executePreview(os.Stdout, previewOptions{
			path:         abs,
			top:          topText,
			bottom:       bottomText,
			width:        int(width), //nolint:gosec
			canvasWidth:  viper.GetInt("canvas.width"),
			canvasHeight: viper.GetInt("canvas.height"),
			fast:         fastScaling,
			profile:      previewProfile(),
		})
	}

	if !info.IsDir() && !canvas.IsImagePath(abs) {
		return fmt.Errorf("%s: %w", path, canvas.ErrUnsupportedFormat)
	}
	return runTUI(abs)
}

func runTUI(path string) error {
	// Read environment to get debugging stuff
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	cfg.Path = path
	cfg.ShowAllFiles = showAllFiles
	cfg.EnableMouse = mouse
	cfg.CanvasWidth = viper.GetInt("canvas.width")
	cfg.CanvasHeight = viper.GetInt("canvas.height")
	cfg.FastScaling = fastScaling
	cfg.TopText = topText
	cfg.BottomText = bottomText
	cfg.Voice = voice
	cfg.Language = viper.GetString("tts.gtts.language")
	cfg.Volume = volume

	reader, closer, err := newReader()
	if err != nil {
		return err
	}
	defer func() {
		if err := closer(); err != nil {
			log.Warn("TTS shutdown error", "error", err)
		}
	}()

	// Run Bubble Tea program
	if _, err := ui.NewProgram(cfg, reader).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}

	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().BoolVarP(&printMode, "print", "p", false, "print a preview to stdout instead of starting the editor")
	rootCmd.Flags().StringVarP(&topText, "top", "t", "", "top caption")
	rootCmd.Flags().StringVarP(&bottomText, "bottom", "b", "", "bottom caption")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "preview width in columns (print mode only)")
	rootCmd.Flags().BoolVarP(&showAllFiles, "all", "a", false, "show images in hidden and ignored directories")
	rootCmd.Flags().BoolVar(&fastScaling, "fast", false, "use faster, lower quality image scaling")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse support")
	_ = rootCmd.Flags().MarkHidden("mouse")
	rootCmd.Flags().StringVar(&ttsEngine, "tts", "", "read captions aloud with the given engine (gtts/piper/mock)")
	rootCmd.Flags().StringVar(&voice, "voice", "", "preferred voice ID")
	rootCmd.Flags().Int("volume", int(speech.DefaultVolume), "speech volume (0-100)")
	rootCmd.Flags().Float64Var(&speed, "speed", 1.0, "speech speed (0.5-2.0)")

	// Config bindings
	_ = viper.BindPFlag("print", rootCmd.Flags().Lookup("print"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("all", rootCmd.Flags().Lookup("all"))
	_ = viper.BindPFlag("fast", rootCmd.Flags().Lookup("fast"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))
	_ = viper.BindPFlag("tts.engine", rootCmd.Flags().Lookup("tts"))
	_ = viper.BindPFlag("tts.voice", rootCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("tts.volume", rootCmd.Flags().Lookup("volume"))
	_ = viper.BindPFlag("tts.speed", rootCmd.Flags().Lookup("speed"))

	viper.SetDefault("width", 0)
	viper.SetDefault("all", false)
	viper.SetDefault("canvas.width", canvas.DefaultWidth)
	viper.SetDefault("canvas.height", canvas.DefaultHeight)

	// TTS defaults
	viper.SetDefault("tts.engine", "")
	viper.SetDefault("tts.voice", "")
	viper.SetDefault("tts.volume", int(speech.DefaultVolume))
	viper.SetDefault("tts.speed", 1.0)
	viper.SetDefault("tts.cache.dir", "")
	viper.SetDefault("tts.cache.max_size", 100)
	viper.SetDefault("tts.piper.binary", "piper")
	viper.SetDefault("tts.piper.models", "")
	viper.SetDefault("tts.gtts.language", "en")
	viper.SetDefault("tts.gtts.slow", false)
	viper.SetDefault("tts.gtts.requests_per_minute", 50)

	rootCmd.AddCommand(configCmd, manCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "memegen")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "memegen")}, dirs...)
	}

	if c := os.Getenv("MEMEGEN_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("memegen")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("memegen")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "memegen.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
