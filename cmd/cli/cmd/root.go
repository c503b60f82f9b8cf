package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile      string
	outputFormat string
	budget       time.Duration
	constraints  string
	seed         int64
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "examtt",
	Short: "CLI for the exam timetabling engine",
	Long:  `examtt validates exam timetabling instances, solves them with exact and heuristic strategies, and compares strategies against each other.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.examtt/config)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "output", "table", "output format: table or json")
	rootCmd.PersistentFlags().DurationVar(&budget, "budget", 30*time.Second, "time budget per strategy run")
	rootCmd.PersistentFlags().StringVar(&constraints, "constraints", "full", "constraint selection: full, default, or a comma-separated list of names")
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(filepath.Join(home, ".examtt"))
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("examtt")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if viper.IsSet("budget") && !rootCmd.PersistentFlags().Changed("budget") {
			budget = viper.GetDuration("budget")
		}
		if viper.GetString("output") != "" && !rootCmd.PersistentFlags().Changed("output") {
			outputFormat = viper.GetString("output")
		}
		if viper.GetString("constraints") != "" && !rootCmd.PersistentFlags().Changed("constraints") {
			constraints = viper.GetString("constraints")
		}
	}
}
