package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "RESOURCEDB"

type Arguments struct {
	// The storage root holding one directory per collection
	DataDir string `mapstructure:"datadir"`
	// Directory for timestamped log files. Empty logs to stdout only.
	LogDir string `mapstructure:"logdir"`
	// Directory for the journal of mutating commands. Empty disables it.
	JournalDir string `mapstructure:"journaldir"`

	ConfigFile string `mapstructure:"config"`

	SchemaName      string `mapstructure:"schema"`
	NumberOfResults int    `mapstructure:"results"`
	// native or partition
	SortStrategy string `mapstructure:"sort"`

	// the host name or IP address to listen on
	Host string `mapstructure:"host"`
	// the port number to listen on
	Port int `mapstructure:"port"`

	Verbose       bool `mapstructure:"verbose"`
	Debug         bool `mapstructure:"debug"`
	PrintToScreen bool `mapstructure:"print"`

	AuthEnabled bool `mapstructure:"auth"`
	// username -> password, only read from the config file or environment
	Users map[string]string `mapstructure:"users"`
}

// Defaults returns the settings used when nothing else is configured.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"datadir":    "./Collection",
		"logdir":     "",
		"journaldir": "",
		"schema":     "Schema",
		"results":    10,
		"sort":       "native",
		"host":       "127.0.0.1",
		"port":       1776,
		"verbose":    false,
		"debug":      false,
		"print":      true,
		"auth":       false,
	}
}

// BindFlags registers the command line flags for every setting.
func BindFlags(flags *pflag.FlagSet) {
	d := Defaults()
	flags.String("datadir", d["datadir"].(string), "Storage root holding one directory per collection")
	flags.String("logdir", d["logdir"].(string), "Directory to store log files (default: stdout)")
	flags.String("journaldir", d["journaldir"].(string), "Directory for the command journal (default: disabled)")
	flags.String("config", "", "Path to config file")
	flags.String("schema", d["schema"].(string), "Schema name")
	flags.Int("results", d["results"].(int), "Maximum number of results printed per collection")
	flags.String("sort", d["sort"].(string), "Sort strategy used by order (native, partition)")
	flags.String("host", d["host"].(string), "Host name or IP address to listen on")
	flags.Int("port", d["port"].(int), "Port for the TCP server")
	flags.Bool("verbose", d["verbose"].(bool), "Enable verbose logging")
	flags.Bool("debug", d["debug"].(bool), "Enable debug mode")
	flags.Bool("print", d["print"].(bool), "Print log messages to screen")
	flags.Bool("auth", d["auth"].(bool), "Enable authentication on the TCP server")
}

// Load merges defaults, the optional config file, RESOURCEDB_* environment
// variables and flags, in increasing order of precedence.
func Load(flags *pflag.FlagSet) (*Arguments, error) {
	v := viper.New()
	for key, value := range Defaults() {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("resourcedb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var args Arguments
	if err := v.Unmarshal(&args); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &args, nil
}

// Validate checks the arguments. The storage root is required to exist.
func Validate(args *Arguments) error {
	dirInfo, err := os.Stat(args.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("data directory %s does not exist", args.DataDir)
		}
		return fmt.Errorf("error accessing data directory: %w", err)
	} else if !dirInfo.IsDir() {
		return fmt.Errorf("data directory path exists but is not a directory: %s", args.DataDir)
	}

	if args.Port < 1 || args.Port > 65535 {
		return fmt.Errorf("invalid port number: %d (must be between 1 and 65535)", args.Port)
	}

	if args.NumberOfResults < 1 {
		return fmt.Errorf("invalid number of results: %d (must be at least 1)", args.NumberOfResults)
	}

	validSorts := map[string]bool{"native": true, "partition": true}
	if !validSorts[args.SortStrategy] {
		return fmt.Errorf("invalid sort strategy: %s (must be 'native' or 'partition')", args.SortStrategy)
	}

	if args.AuthEnabled && len(args.Users) == 0 {
		return fmt.Errorf("authentication is enabled but no users are configured")
	}

	return nil
}

// LogFilePath returns the timestamped log file for this run, or "" when
// logging to a directory is disabled.
func (a *Arguments) LogFilePath(timestamp string) string {
	if a.LogDir == "" {
		return ""
	}
	return filepath.Join(a.LogDir, fmt.Sprintf("%s_%s_ServerLog.txt", timestamp, a.Host))
}

// JournalFilePath is the base path handed to the journal.
func (a *Arguments) JournalFilePath() string {
	if a.JournalDir == "" {
		return ""
	}
	return filepath.Join(a.JournalDir, "resourcedb.journal")
}
