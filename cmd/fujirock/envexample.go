package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"fujirock/internal/i18n"
)

func generateEnvExample(cmd *cobra.Command) error {
	fmt.Println("Generating .env.example file from current configuration...")

	content := generateEnvExampleContent(cmd)

	if err := os.WriteFile(".env.example", []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write .env.example: %w", err)
	}

	fmt.Println("Successfully generated .env.example file")
	return nil
}

func generateEnvExampleContent(cmd *cobra.Command) string {
	var content strings.Builder

	content.WriteString("# =============================================================================\n")
	content.WriteString("# Fujirock Configuration\n")
	content.WriteString("# =============================================================================\n")
	content.WriteString("#\n")
	content.WriteString("# Copy this file to .env and update with your values\n")
	content.WriteString("# All environment variables have CLI flag equivalents (use --help to see them)\n")
	content.WriteString("#\n")
	content.WriteString("# Format: FUJIROCK_<SETTING>=value\n")
	content.WriteString("# CLI equivalent: --<setting>\n")
	content.WriteString("#\n\n")

	generateStoreSection(&content, cmd)
	generateSpotifySection(&content)
	generateCatalogSection(&content, cmd)
	generateLLMSection(&content, cmd)
	generateMatchSection(&content, cmd)
	generateAppSection(&content, cmd)
	generateServerSection(&content, cmd)
	generateLoggingSection(&content, cmd)

	return content.String()
}

func flagToEnvVar(flagName string) string {
	return envPrefix + "_" + strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

func getDefaultValueString(cmd *cobra.Command, flagName string) string {
	if f := cmd.Root().PersistentFlags().Lookup(flagName); f != nil {
		return f.DefValue
	}
	return ""
}

func sectionHeader(content *strings.Builder, title string, flags ...string) {
	content.WriteString("# -----------------------------------------------------------------------------\n")
	fmt.Fprintf(content, "# %s\n", title)
	content.WriteString("# -----------------------------------------------------------------------------\n")
	if len(flags) > 0 {
		fmt.Fprintf(content, "# CLI: --%s\n", strings.Join(flags, ", --"))
	}
}

// writeDefault writes one variable set to its flag default.
func writeDefault(content *strings.Builder, cmd *cobra.Command, flag, help string) {
	def := getDefaultValueString(cmd, flag)
	fmt.Fprintf(content, "%s=%s    # %s (default: %s)\n", flagToEnvVar(flag), def, help, def)
}

func generateStoreSection(content *strings.Builder, cmd *cobra.Command) {
	sectionHeader(content, "Content Store (SQLite)", "store-path")
	writeDefault(content, cmd, "store-path", "Database file, created and migrated on start")
	content.WriteString("\n")
}

func generateSpotifySection(content *strings.Builder) {
	sectionHeader(content, "Spotify (Optional - enables catalog enrichment)",
		"spotify-client-id", "spotify-client-secret", "spotify-market")
	content.WriteString("# Get these from https://developer.spotify.com/dashboard\n")
	fmt.Fprintf(content, "# %s=your_spotify_client_id_here\n", flagToEnvVar("spotify-client-id"))
	fmt.Fprintf(content, "# %s=your_spotify_client_secret_here\n", flagToEnvVar("spotify-client-secret"))
	fmt.Fprintf(content, "%s=US    # Market for top tracks\n", flagToEnvVar("spotify-market"))
	content.WriteString("\n")
}

func generateCatalogSection(content *strings.Builder, cmd *cobra.Command) {
	sectionHeader(content, "Preview and Encyclopedia Catalogs",
		"itunes-country", "itunes-requests-per-second", "wiki-cache-ttl", "wiki-cache-size")
	writeDefault(content, cmd, "itunes-country", "iTunes store country")
	writeDefault(content, cmd, "itunes-requests-per-second", "iTunes request rate")
	writeDefault(content, cmd, "wiki-cache-ttl", "Wikipedia summary cache TTL")
	writeDefault(content, cmd, "wiki-cache-size", "Wikipedia summary cache entries")
	content.WriteString("\n")
}

func generateLLMSection(content *strings.Builder, cmd *cobra.Command) {
	sectionHeader(content, "AI Artist Descriptions (Optional)",
		"llm-provider", "llm-api-key", "llm-model", "llm-base-url")
	writeDefault(content, cmd, "llm-provider", "Provider: none, openai, anthropic, ollama")
	content.WriteString("\n")
	content.WriteString("# OpenAI: set the provider to openai\n")
	fmt.Fprintf(content, "# %s=sk-...\n", flagToEnvVar("llm-api-key"))
	fmt.Fprintf(content, "# %s=gpt-4o-mini\n", flagToEnvVar("llm-model"))
	content.WriteString("\n")
	content.WriteString("# Anthropic: set the provider to anthropic\n")
	fmt.Fprintf(content, "# %s=sk-ant-...\n", flagToEnvVar("llm-api-key"))
	fmt.Fprintf(content, "# %s=claude-3-5-haiku-latest\n", flagToEnvVar("llm-model"))
	content.WriteString("\n")
	content.WriteString("# Ollama: set the provider to ollama\n")
	fmt.Fprintf(content, "# %s=http://localhost:11434\n", flagToEnvVar("llm-base-url"))
	fmt.Fprintf(content, "# %s=llama3.2\n", flagToEnvVar("llm-model"))
	content.WriteString("\n")
}

func generateMatchSection(content *strings.Builder, cmd *cobra.Command) {
	sectionHeader(content, "Name Matching", "duplicate-min-tier", "alternative-count")
	writeDefault(content, cmd, "duplicate-min-tier", "Lowest tier that blocks creation: low, medium, high, exact")
	writeDefault(content, cmd, "alternative-count", "Runners-up reported by name resolution")
	content.WriteString("\n")
}

func generateAppSection(content *strings.Builder, cmd *cobra.Command) {
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	sectionHeader(content, "Application", "language", "flood-limit-per-minute", "top-tracks")
	writeDefault(content, cmd, "language", "Default API language: "+supportedLangs)
	writeDefault(content, cmd, "flood-limit-per-minute", "Max write requests per client per minute")
	writeDefault(content, cmd, "top-tracks", "Top tracks stored per enriched artist")
	content.WriteString("\n")
}

func generateServerSection(content *strings.Builder, cmd *cobra.Command) {
	sectionHeader(content, "HTTP Server Configuration", "server-host", "server-port")
	writeDefault(content, cmd, "server-host", "Server bind address")
	writeDefault(content, cmd, "server-port", "Server port")
	content.WriteString("\n")
}

func generateLoggingSection(content *strings.Builder, cmd *cobra.Command) {
	sectionHeader(content, "Logging Configuration", "log-level", "log-format", "log-file")
	writeDefault(content, cmd, "log-level", "Log level: debug, info, warn, error")
	writeDefault(content, cmd, "log-format", "Log format: json, text")
	fmt.Fprintf(content, "# %s=./logs/fujirock.log    # Rotated log file, in addition to stderr\n",
		flagToEnvVar("log-file"))
}
