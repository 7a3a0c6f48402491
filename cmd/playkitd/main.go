// playkitd is the player API server: bearer-token authentication in front of
// the score, profile, and messaging routes.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "playkitd",
	Short: "Player API server with JWKS-verified bearer authentication",
}

func init() {
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("issuer_domain", "")
	viper.SetDefault("cache_ttl", "1h")
	viper.SetDefault("key_refresh_schedule", "")
	viper.SetDefault("postgres_dsn", "")
	viper.SetDefault("redis_addr", "")
	viper.SetDefault("log_level", "info")

	viper.SetConfigName("playkit")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/playkit")

	viper.SetEnvPrefix("PLAYKIT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd)
}

func main() {
	// Config file is optional; env and defaults cover containerized runs.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "failed to read config: %v\n", err)
			os.Exit(1)
		}
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
