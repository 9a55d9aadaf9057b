package config

const (
	defaultConfigPath   = "~/.config/tapedeck/config.toml"
	defaultLibraryDir   = "~/.local/share/tapedeck/library"
	defaultLogDir       = "~/.local/share/tapedeck/logs"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
	defaultTapeLabel    = "Unknown"
	defaultReplaceTapes = true
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
		},
		Cartridge: Cartridge{
			ReplaceExisting: defaultReplaceTapes,
			DefaultLabel:    defaultTapeLabel,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
