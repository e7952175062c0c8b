package config

const (
	defaultStagingDir     = "~/.local/share/gamesync/staging"
	defaultLogDir         = "~/.local/share/gamesync/logs"
	defaultCacheDir       = "~/.cache/gamesync"
	defaultRequestTimeout = 30
	defaultVisibility     = "timeline"
	defaultEmbedTimeout   = 60
	defaultRemuxTimeout   = 300
	defaultWorkers        = 4
	defaultRetryBackoff   = 2
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LogDir:     defaultLogDir,
			CacheDir:   defaultCacheDir,
		},
		Immich: Immich{
			RequestTimeout: defaultRequestTimeout,
			Visibility:     defaultVisibility,
		},
		Tools: Tools{
			EmbedTimeout: defaultEmbedTimeout,
			RemuxTimeout: defaultRemuxTimeout,
		},
		Sync: Sync{
			Workers:      defaultWorkers,
			RetryBackoff: defaultRetryBackoff,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
