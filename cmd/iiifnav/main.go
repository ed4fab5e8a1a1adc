package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vidyasagar/iiifnav/internal/app"
	"github.com/vidyasagar/iiifnav/internal/config"
	"github.com/vidyasagar/iiifnav/internal/logging"
	"github.com/vidyasagar/iiifnav/internal/state"
	"github.com/vidyasagar/iiifnav/internal/storage"
	"github.com/vidyasagar/iiifnav/internal/theme"
	"github.com/vidyasagar/iiifnav/internal/urlslicer"
)

var (
	version = "0.1.0"

	cfgFile string
	// flags is bound to the --theme and --log-level flags.
	flags = viper.New()
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "iiifnav [address]",
		Short: "Browse IIIF collections from the terminal",
		Long: `iiifnav is a terminal viewer for IIIF collections and manifests.

Every view gets a bookmarkable address such as
  iiif://viewer/#aor/Douce195/1r/image
and the back and forward keys replay the navigation history.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          run,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is config.yaml in the iiifnav config dir)")
	root.PersistentFlags().String("theme", "", "color theme ("+strings.Join(theme.List(), ", ")+")")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = flags.BindPFlag("theme", root.PersistentFlags().Lookup("theme"))
	_ = flags.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newDecodeCmd(), newBookmarksCmd())
	return root
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if t := flags.GetString("theme"); t != "" {
		cfg.Theme = t
	}
	if l := flags.GetString("logging.level"); l != "" {
		cfg.Logging.Level = l
	}
	return cfg, nil
}

// openLog writes logs to iiifnav.log in the data directory; the terminal
// belongs to the UI.
func openLog(cfg *config.Config, dataDir string) (*logging.Logger, io.Closer, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("creating data dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dataDir, "iiifnav.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("opening log file: %w", err)
	}
	return logging.NewLogger(logging.LoggerOptions{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: f,
	}), f, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !theme.Set(cfg.Theme) {
		return fmt.Errorf("unknown theme %q (available: %s)", cfg.Theme, strings.Join(theme.List(), ", "))
	}

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	log, logFile, err := openLog(cfg, dataDir)
	if err != nil {
		return err
	}
	defer logFile.Close()

	var bookmarks *storage.BookmarkStore
	db, err := storage.OpenDB(dataDir)
	if err != nil {
		log.Warn().Err(err).Msg("bookmarks disabled")
	} else {
		defer db.Close()
		bookmarks = storage.NewBookmarkStore(db)
	}

	var start string
	if len(args) > 0 {
		start = args[0]
	}
	engine, err := app.NewEngine(app.Options{
		Config:       cfg,
		Logger:       log,
		Bookmarks:    bookmarks,
		StartAddress: start,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	log.Info().Str("version", version).Str("start", engine.Session.Location()).Msg("starting iiifnav")
	p := tea.NewProgram(app.New(engine),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <address>",
		Short: "Show the navigation state an address stands for",
		Example: `  iiifnav decode 'iiif://viewer/#aor/Douce195/1r/image'
  iiifnav decode 'aor/search?q=rose&offset=20'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			slicer := urlslicer.New(cfg.BaseAddress)
			address := args[0]
			if !strings.Contains(address, "://") {
				address = slicer.Base() + strings.TrimLeft(address, "#/")
			}
			st, err := slicer.Decode(address)
			if err != nil {
				return err
			}
			printState(cmd.OutOrStdout(), slicer, st)
			return nil
		},
	}
}

func printState(w io.Writer, slicer *urlslicer.Slicer, st state.HistoryState) {
	d := st.Data
	fmt.Fprintf(w, "type:       %s\n", st.Type)
	fmt.Fprintf(w, "title:      %s\n", slicer.Title(st))
	fmt.Fprintf(w, "collection: %s\n", d.CollectionID)
	if d.ManifestID != "" {
		fmt.Fprintf(w, "manifest:   %s\n", d.ManifestID)
	}
	if d.CanvasID != "" {
		fmt.Fprintf(w, "canvas:     %s\n", d.CanvasID)
	}
	if d.ViewType != "" {
		fmt.Fprintf(w, "view:       %s\n", d.ViewType)
	}
	if s := d.Search; s != nil {
		fmt.Fprintf(w, "query:      %s\n", s.Query)
		if s.Offset > 0 {
			fmt.Fprintf(w, "offset:     %d\n", s.Offset)
		}
		if s.MaxPerPage > 0 {
			fmt.Fprintf(w, "rows:       %d\n", s.MaxPerPage)
		}
		if s.SortOrder != "" {
			fmt.Fprintf(w, "sort:       %s\n", s.SortOrder)
		}
	}
}

func newBookmarksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bookmarks [query]",
		Short: "List saved addresses",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, err := config.DataDir()
			if err != nil {
				return err
			}
			db, err := storage.OpenDB(dataDir)
			if err != nil {
				return err
			}
			defer db.Close()
			return listBookmarks(cmd.OutOrStdout(), storage.NewBookmarkStore(db), args)
		},
	}
}

func listBookmarks(w io.Writer, store *storage.BookmarkStore, args []string) error {
	var (
		list []storage.Bookmark
		err  error
	)
	if len(args) > 0 {
		list, err = store.Search(args[0])
	} else {
		list, err = store.List()
	}
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(w, "no bookmarks")
		return nil
	}
	for _, b := range list {
		title := b.Title
		if title == "" {
			title = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", b.Address, title)
	}
	return nil
}
