// Package config loads the lookup service settings from an optional YAML file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

// NotionProps names the database properties read for each task.
type NotionProps struct {
	Title  string `mapstructure:"title" json:"title"`
	Date   string `mapstructure:"date" json:"date"`
	Length string `mapstructure:"length" json:"length"`
	Label  string `mapstructure:"label" json:"label"`
}

// Service holds everything `pomotask serve` needs.
type Service struct {
	Host             string      `mapstructure:"host" json:"host"`
	Port             int         `mapstructure:"port" json:"port"`
	CORSOrigin       string      `mapstructure:"cors_origin" json:"corsOrigin"`
	NotionToken      string      `mapstructure:"notion_token" json:"notionToken"`
	NotionDatabaseID string      `mapstructure:"notion_database_id" json:"notionDatabaseId"`
	NotionProps      NotionProps `mapstructure:"notion_props" json:"notionProps"`
	TasksFile        string      `mapstructure:"tasks_file" json:"tasksFile"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() Service {
	return Service{
		Host:       "127.0.0.1",
		Port:       8787,
		CORSOrigin: "*",
		NotionProps: NotionProps{
			Title:  "Name",
			Date:   "Date",
			Length: "Length",
			Label:  "Estimate",
		},
		TasksFile: defaultTasksFile(),
	}
}

// envKeys maps config keys to the environment variables that override them.
var envKeys = map[string]string{
	"host":                "POMOTASK_HOST",
	"port":                "PORT",
	"cors_origin":         "CORS_ORIGIN",
	"notion_token":        "NOTION_TOKEN",
	"notion_database_id":  "NOTION_DATABASE_ID",
	"tasks_file":          "TASKS_FILE",
	"notion_props.title":  "NOTION_TITLE_PROP",
	"notion_props.date":   "NOTION_DATE_PROP",
	"notion_props.length": "NOTION_LENGTH_PROP",
	"notion_props.label":  "NOTION_LABEL_PROP",
}

// Load resolves the service settings. Precedence, lowest first: defaults, the
// YAML file at path, environment variables, then any flags already bound to v.
// A missing file is not an error. v may be nil.
func Load(v *viper.Viper, path string) (*Service, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, &ParseError{Path: path, Err: err}
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Service
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("host", d.Host)
	v.SetDefault("port", d.Port)
	v.SetDefault("cors_origin", d.CORSOrigin)
	v.SetDefault("notion_token", "")
	v.SetDefault("notion_database_id", "")
	v.SetDefault("tasks_file", d.TasksFile)
	v.SetDefault("notion_props.title", d.NotionProps.Title)
	v.SetDefault("notion_props.date", d.NotionProps.Date)
	v.SetDefault("notion_props.length", d.NotionProps.Length)
	v.SetDefault("notion_props.label", d.NotionProps.Label)
}

func (s Service) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	if (s.NotionToken == "") != (s.NotionDatabaseID == "") {
		return errors.New("notion_token and notion_database_id must be set together")
	}
	return nil
}

// UseNotion reports whether tasks come from Notion rather than the task file.
func (s Service) UseNotion() bool {
	return s.NotionToken != "" && s.NotionDatabaseID != ""
}

func (s Service) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Redacted returns a copy that is safe to print.
func (s Service) Redacted() Service {
	if s.NotionToken != "" {
		s.NotionToken = "********"
	}
	return s
}

// DefaultPath returns ~/.config/pomotask/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "pomotask", "config.yaml"), nil
}

func defaultTasksFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "tasks.yaml"
	}
	return filepath.Join(dir, "pomotask", "tasks.yaml")
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
