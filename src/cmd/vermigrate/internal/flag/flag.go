package flag

import (
	"os"

	"github.com/alecthomas/kingpin"

	"github.com/vermigrate/vermigrate/src/configs"
	"github.com/vermigrate/vermigrate/src/consts"
)

var (
	app = kingpin.New(consts.AppName, "Migrate version-carrying JSON/YAML documents along registered step chains.")

	Debug        = app.Flag("debug", "Enable debug mode.").Bool()
	Conf         = app.Flag("config", "Path to the config file.").Short('c').String()
	Inputs       = app.Flag("input", "Document to migrate. Repeatable.").Short('i').Strings()
	To           = app.Flag("to", "Target version.").Short('t').String()
	Backward     = app.Flag("backward", "Run the downgrade chain instead of the upgrade chain.").Short('b').Bool()
	VersionField = app.Flag("version-field", "Top-level key holding the document version.").Default("version").String()
	LogLevel     = app.Flag("log-level", "Log level (trace, debug, info, warn, error).").Default("info").String()
)

func init() {
	app.Version(consts.AppVersion)
	app.HelpFlag.Short('h')
	kingpin.MustParse(app.Parse(os.Args[1:]))
}

// GenConfigFromFlags builds a config purely from command line flags, for
// runs without a config file.
func GenConfigFromFlags() *configs.Config {
	config := configs.NewConfig()
	config.Debug = *Debug
	config.Log.Level = *LogLevel
	config.VersionField = *VersionField
	for _, path := range *Inputs {
		config.Documents = append(config.Documents, configs.Document{
			Path:     path,
			To:       *To,
			Backward: *Backward,
		})
	}
	return config
}
