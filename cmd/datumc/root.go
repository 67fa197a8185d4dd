package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "datumc",
	Short: "Headless CLI for datum scripts and documents",
	Long: `datumc evaluates datum modeling scripts (.datum) and saved documents
(.json) without the desktop app: print scene reports, export binary STL,
inspect mass properties, pose assemblies and watch scripts for changes.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default .datumc.yaml)")
	rootCmd.PersistentFlags().Int("cells", 0, "marching cubes resolution override")
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".datumc")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetDefault("cells", 200)

	viper.SetEnvPrefix("DATUMC")
	viper.AutomaticEnv()

	// It's fine if no config file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// meshCells resolves the meshing resolution: flag, then config file or
// DATUMC_CELLS, then the built-in default.
func meshCells(cmd *cobra.Command) int {
	if cells, _ := cmd.Flags().GetInt("cells"); cells > 0 {
		return cells
	}
	return viper.GetInt("cells")
}
