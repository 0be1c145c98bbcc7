// Package main provides the resume_auditor CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resume_auditor",
	Short: "Audit job candidates against public information",
	Long: `Resume Auditor researches candidates on the web with a tool-calling LLM agent,
cross-checks their résumés and produces a scored, structured report per candidate.

Configuration can be loaded from a JSON or YAML file using --config. Command-line
flags override config file values; credentials fall back to GEMINI_API_KEY,
GOOGLE_SEARCH_API_KEY and GOOGLE_SEARCH_CX.`,
	SilenceUsage: true,
}

var (
	rootConfigPath string
	rootAPIKey     string
	rootTier       string
	rootUseBrowser bool
	rootVerbose    bool
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rootConfigPath, "config", "", "Path to a .json/.yaml config file (values can be overridden by other flags)")
	flags.StringVar(&rootAPIKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	flags.StringVar(&rootTier, "tier", "", "Model tier: lite, standard or advanced")
	flags.BoolVar(&rootUseBrowser, "use-browser", false, "Render script-heavy pages in headless Chrome when static extraction is thin")
	flags.BoolVarP(&rootVerbose, "verbose", "v", false, "Print detailed debug information")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
