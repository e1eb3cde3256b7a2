package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/DanielSallander/Calcula-sub003/internal/backend"
	"github.com/DanielSallander/Calcula-sub003/internal/tui"
)

type App struct {
	DataDir string
	DBPath  string
	Sheets  string
	Demo    bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "calcula",
		Short:        "Calcula spreadsheet TUI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # In-memory scratch sheet
  calcula

  # Open (or create) an automerge-backed workbook
  calcula --data ~/.calcula/books/budget

  # SQLite-backed workbook
  calcula --db budget.db

  # Scratch sheet pre-filled with demo data
  calcula --demo
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(app)
		},
	}

	cmd.Flags().StringVar(&app.DataDir, "data", "", "automerge workbook directory")
	cmd.Flags().StringVar(&app.DBPath, "db", "", "sqlite workbook path")
	cmd.Flags().StringVar(&app.Sheets, "sheets", "", "comma-separated sheet names for a new workbook")
	cmd.Flags().BoolVar(&app.Demo, "demo", false, "seed a demo table into a fresh workbook")

	return cmd
}

func runTUI(app *App) error {
	cfg, err := buildConfig(app)
	if err != nil {
		return err
	}
	p := tea.NewProgram(tui.New(cfg), tea.WithAltScreen(), tea.WithMouseAllMotion())
	_, err = p.Run()
	return err
}

func buildConfig(app *App) (tui.Config, error) {
	if app.DataDir != "" && app.DBPath != "" {
		return tui.Config{}, fmt.Errorf("--data and --db are mutually exclusive")
	}
	names := sheetNames(app.Sheets)

	if app.DBPath != "" {
		db, err := backend.OpenSQLite(app.DBPath, names...)
		if err != nil {
			return tui.Config{}, fmt.Errorf("open %s: %w", app.DBPath, err)
		}
		return tui.Config{Backend: db, SheetNames: db.SheetNames()}, nil
	}

	if app.DataDir != "" {
		store, err := backend.LoadWorkbook(app.DataDir)
		if err != nil {
			store = backend.NewMemory(names...)
			if app.Demo {
				backend.SeedDemo(store)
			}
		}
		return tui.Config{
			Backend:    store,
			Store:      store,
			DocPath:    app.DataDir,
			SheetNames: store.SheetNames(),
		}, nil
	}

	store := backend.NewMemory(names...)
	if app.Demo {
		backend.SeedDemo(store)
	}
	return tui.Config{Backend: store, Store: store, SheetNames: store.SheetNames()}, nil
}

func sheetNames(flag string) []string {
	if flag == "" {
		return nil
	}
	var names []string
	for _, n := range strings.Split(flag, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}
