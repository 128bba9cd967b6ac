package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gogpu/littleplanet"
)

const version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "littleplanet",
	Short: "Project equirectangular panoramas into little planet images",
	Long: `littleplanet turns equirectangular panoramas into stereographic
"little planet" images.

The source image should be a full 360x180 degree equirectangular
panorama in PNG, JPEG or WebP format. The output is written as PNG
or WebP.

Examples:
  # Render a panorama with default view parameters
  littleplanet render -i panorama.png -o planet.png

  # Zoom in and spin the planet
  littleplanet render -i panorama.png -o planet.png --scale 1.8 --gamma 0.7

  # Custom output size with parallel rendering
  littleplanet render -i panorama.png -o planet.webp --width 1600 --height 1200 --workers 8

  # Start the HTTP render API
  littleplanet serve --port 8080`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if viper.GetBool("verbose") {
			littleplanet.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.littleplanet.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".littleplanet")
	}

	viper.SetEnvPrefix("LITTLEPLANET")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
