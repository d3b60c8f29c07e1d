package cli

import (
	"github.com/spf13/cobra"
)

var (
	configFile string
	envFile    string
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "commentui",
		Short: "CommentUI - comment management UI",
		Long: `CommentUI serves a browser UI for listing, creating, editing and deleting
threaded comments stored by an external comments API.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "./config/config.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}
