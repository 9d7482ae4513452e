// ABOUTME: Entry point for the heywifi acoustic credential receiver
// ABOUTME: Defines the cobra command tree and maps session results to exit codes
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/heywifi/heywifi-go/internal/session"
	"github.com/heywifi/heywifi-go/internal/version"
)

var (
	configFile string
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:   "heywifi",
	Short: "Receive WiFi credentials over sound",
	Long: `heywifi listens on a capture device, demodulates an acoustic data signal and
extracts the network name and passphrase it carries.

Running heywifi without a subcommand is the same as "heywifi listen".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runListen,
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Listen for one credential transmission",
	RunE:  runListen,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the decoder profiles in the profile store",
	RunE:  runProfiles,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(versionCmd)

	f := rootCmd.PersistentFlags()
	f.StringVar(&configFile, "config", "", "Config file path (default: heywifi.yaml in /etc/heywifi, ~/.config/heywifi, .)")
	f.CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")

	f.StringP("device", "D", "default", "Capture device name, or file:<path> to decode a recording")
	f.String("driver", "", "Capture driver: malgo (default), portaudio or pulse")
	f.String("format", "f32", "Sample format: u8, s16, s24, s32 or f32")
	f.IntP("rate", "r", 44100, "Sample rate in Hz")
	f.IntP("channels", "c", 1, "Channel count")
	f.IntP("buffer-frames", "B", 16384, "Capture buffer size in frames")
	f.Duration("read-timeout", 0, "Abort when a read waits longer than this (0 waits forever)")

	f.StringP("profiles-file", "f", "quiet-profiles.json", "Decoder profile store")
	f.StringP("profile", "p", "wave", "Decoder profile name")
	f.Int("message-size", 255, "Maximum decoded message size in bytes")

	f.StringP("exec", "x", "", "Command to run with <ssid> <passphrase> after a successful receive")
	f.Duration("exec-timeout", 0, "Timeout for --exec (default 30s)")
	f.Bool("ack-tone", false, "Play a short tone after a successful receive")

	f.String("log-level", "", "Log level: trace, debug, info, warn or error")
	f.String("log-file", "", "Also write JSON logs to this file")
	f.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9090)")
	f.Bool("tui", false, "Show a status view instead of console logs")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "heywifi:", err)
		os.Exit(session.ExitCode(err))
	}
}
