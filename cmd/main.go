package main

import (
	"CaseComments/internal/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"os"
)

var (
	configPath string
	authorFlag string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "casecomments",
	Short: "Threaded comments on medical cases",
	Long: `casecomments stores threaded discussion on medical cases.

Run "casecomments serve" for the HTTP API, "casecomments mcp" for the
agent interface, or use the thread/post/edit/delete commands as a client.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is normal; the environment is used as is.
		_ = godotenv.Load()

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if authorFlag != "" {
			loaded.Author = authorFlag
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./config/config.yaml", "config file path")
	rootCmd.PersistentFlags().StringVar(&authorFlag, "as", "", "author identity for client commands")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
