package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sadopc/pomotask/internal/config"
	"github.com/sadopc/pomotask/internal/server"
	"github.com/sadopc/pomotask/internal/tasks"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the next-task lookup service",
	Long: `Serves GET /tasks/next over HTTP. Tasks come from a Notion database when
notion_token and notion_database_id are set, otherwise from a YAML task file
that is reloaded when it changes.

Settings are read from the config file, then the environment
(NOTION_TOKEN, NOTION_DATABASE_ID, PORT, CORS_ORIGIN, TASKS_FILE, ...),
then flags.`,
	RunE: runServe,
}

func init() {
	defaultConfig, _ := config.DefaultPath()

	serveCmd.Flags().StringVar(&serveConfigPath, "config", defaultConfig, "config file (YAML)")
	serveCmd.Flags().String("host", "", "listen host")
	serveCmd.Flags().Int("port", 0, "listen port")
	serveCmd.Flags().String("cors-origin", "", "allowed CORS origin")
	serveCmd.Flags().String("tasks-file", "", "YAML task file used when Notion is not configured")

	rootCmd.AddCommand(serveCmd)
}

// serveFlags maps config keys to serve flags.
var serveFlags = map[string]string{
	"host":        "host",
	"port":        "port",
	"cors_origin": "cors-origin",
	"tasks_file":  "tasks-file",
}

func loadServiceConfig(cmd *cobra.Command) (*config.Service, error) {
	v := viper.New()
	for key, flag := range serveFlags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return nil, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}
	return config.Load(v, serveConfigPath)
}

// newSource picks Notion when credentials are configured. The file source is
// watched for changes until ctx is done.
func newSource(ctx context.Context, cfg *config.Service) tasks.Source {
	if cfg.UseNotion() {
		log.Printf("Reading tasks from Notion database %s", cfg.NotionDatabaseID)
		return tasks.NewNotionSource(cfg.NotionToken, cfg.NotionDatabaseID, tasks.NotionProps(cfg.NotionProps))
	}

	log.Printf("Reading tasks from %s", cfg.TasksFile)
	fs := tasks.NewFileSource(cfg.TasksFile)
	err := fs.Watch(ctx, func() {
		log.Printf("Task file changed, reloading")
	})
	if err != nil {
		log.Printf("Task file watch disabled: %v", err)
	}
	return fs
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadServiceConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(*cfg, tasks.NewLookup(newSource(ctx, cfg)))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	serverErr := make(chan error, 1)
	go func() {
		err := srv.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, shutting down...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("Shutdown complete")
	return nil
}
