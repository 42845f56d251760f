package config

const (
	defaultConfigPath            = "~/.config/captionary/config.toml"
	projectConfigName            = "captionary.toml"
	defaultServerURL             = "http://127.0.0.1:8000"
	defaultEndpoint              = "/transcribe"
	defaultResponseHeaderTimeout = 60
	defaultModel                 = "medium"
	defaultDevice                = "cpu"
	defaultComputeType           = "int8"
	defaultDownloadDir           = "~/Downloads"
	defaultFilename              = "subtitles.srt"
	defaultDialogCommand         = "zenity"
	defaultLogDir                = "~/.local/share/captionary/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Server: Server{
			URL:                   defaultServerURL,
			Endpoint:              defaultEndpoint,
			ResponseHeaderTimeout: defaultResponseHeaderTimeout,
		},
		Transcription: Transcription{
			Model:       defaultModel,
			Device:      defaultDevice,
			ComputeType: defaultComputeType,
		},
		Delivery: Delivery{
			DownloadDir:     defaultDownloadDir,
			DefaultFilename: defaultFilename,
		},
		Native: Native{
			Enabled:       true,
			DialogCommand: defaultDialogCommand,
		},
		Paths: Paths{
			StateDir: defaultStateDir(),
			LogDir:   defaultLogDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
