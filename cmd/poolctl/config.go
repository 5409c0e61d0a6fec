package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/regolith-labs/ore-cli-sub000/dal"
	"github.com/regolith-labs/ore-cli-sub000/utils"
)

var (
	poolctlHomeDir    = utils.AppDataDir("ore-poolctl", false)
	defaultConfigFile = filepath.Join(poolctlHomeDir, "poolctl.conf")
	defaultTimeout    = 30 * time.Second
)

// config defines the configuration options for poolctl.
//
// See loadConfig for details on the configuration load process.
type config struct {
	ConfigFile   string        `short:"C" long:"configfile" description:"Path to configuration file"`
	PoolURL      string        `short:"s" long:"poolurl" description:"Pool server to query"`
	Proxy        string        `long:"proxy" description:"Connect via SOCKS5 proxy (eg. 127.0.0.1:9050)"`
	ProxyPass    string        `long:"proxypass" default-mask:"-" description:"Password for proxy server"`
	ProxyUser    string        `long:"proxyuser" description:"Username for proxy server"`
	Timeout      time.Duration `long:"timeout" description:"Request timeout"`
	ShowVersion  bool          `short:"V" long:"version" description:"Display version information and exit"`
	ListCommands bool          `short:"l" long:"listcommands" description:"List all of the supported commands and exit"`

	DbAddress  string `long:"dbaddress" description:"ip address and port of the history database"`
	DbUsername string `long:"dbusername" description:"username which is used to connect with database"`
	DbPassword string `long:"dbpassword" default-mask:"-" description:"password which is used to connect with database"`
	DbName     string `long:"dbname" description:"name of history database"`
}

func (cfg *config) proxyConfig() *utils.ProxyConfig {
	if cfg.Proxy == "" {
		return nil
	}
	return &utils.ProxyConfig{Addr: cfg.Proxy, User: cfg.ProxyUser, Pass: cfg.ProxyPass}
}

func (cfg *config) dbConfig() *dal.DBConfig {
	if utils.IsBlank(cfg.DbUsername) {
		return nil
	}
	return &dal.DBConfig{
		Username:     cfg.DbUsername,
		Password:     cfg.DbPassword,
		Address:      cfg.DbAddress,
		DatabaseName: cfg.DbName,
	}
}

// cleanAndExpandPath expands environement variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(poolctlHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows-style %VARIABLE%,
	// but they variables can still be expanded via POSIX-style $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

func loadConfig() (*config, []string, error) {
	// Default config.
	cfg := config{
		ConfigFile: defaultConfigFile,
		PoolURL:    "http://localhost:3000",
		Timeout:    defaultTimeout,
		DbAddress:  "127.0.0.1:3306",
		DbName:     "ore_miner",
	}

	// Pre-parse the command line options to see if an alternative config
	// file, the version flag, or the list commands flag was specified.  Any
	// errors aside from the help message error can be ignored here since
	// they will be caught by the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.HelpFlag)
	_, err := preParser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr, "")
			listCommands()
			return nil, nil, err
		}
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	usageMessage := fmt.Sprintf("Use %s -h to show options", appName)
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	// Show the available commands and exit if the associated flag was
	// specified.
	if preCfg.ListCommands {
		listCommands()
		os.Exit(0)
	}

	// Load additional config from file.
	parser := flags.NewParser(&cfg, flags.Default)
	err = flags.NewIniParser(parser).ParseFile(cleanAndExpandPath(preCfg.ConfigFile))
	if err != nil {
		if _, ok := err.(*os.PathError); !ok {
			fmt.Fprintf(os.Stderr, "Error parsing config file: %v\n",
				err)
			fmt.Fprintln(os.Stderr, usageMessage)
			return nil, nil, err
		}
	}

	// Parse command line options again to ensure they take precedence.
	remainingArgs, err := parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			fmt.Fprintln(os.Stderr, usageMessage)
		}
		return nil, nil, err
	}

	cfg.PoolURL = strings.TrimRight(cfg.PoolURL, "/")
	return &cfg, remainingArgs, nil
}
