package config

import "github.com/spf13/pflag"

var (
	Dev     bool
	LogPath string
)

// BindFlags registers the flags shared by every subcommand.
func BindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&Dev, "dev", false, "Development mode")
	fs.StringVar(&LogPath, "log-path", "", "Directory to save the log file")
}
