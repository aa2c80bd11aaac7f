package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ppiankov/chandigest/internal/config"
	"github.com/ppiankov/chandigest/internal/tone"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config directory with example config and lexicon",
	RunE:  initAction,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func initAction(_ *cobra.Command, _ []string) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	lexicon, err := yaml.Marshal(tone.DefaultLexicon())
	if err != nil {
		return fmt.Errorf("marshal lexicon: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{config.DefaultConfigFile, []byte(exampleConfig)},
		{config.DefaultLexiconFile, append([]byte(lexiconHeader), lexicon...)},
	}

	created := 0
	for _, f := range files {
		wrote, err := writeIfNotExists(filepath.Join(configDir, f.name), f.data)
		if err != nil {
			return err
		}
		if wrote {
			created++
		}
	}

	if created == 0 {
		fmt.Printf("Config directory %s already initialized.\n", configDir)
	} else {
		fmt.Printf("Initialized %s with %d config files.\n", configDir, created)
	}
	return nil
}

// writeIfNotExists writes data to path if the file does not exist.
// Returns true if the file was created.
func writeIfNotExists(path string, data []byte) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		fmt.Printf("  exists: %s\n", path)
		return false, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("  created: %s\n", path)
	return true, nil
}

const lexiconHeader = `# chandigest tone lexicon
# Terms are lowercase substrings; stems match inflected forms.
# Posts containing a noise marker are dropped from the digest.

`

const exampleConfig = `# chandigest configuration

sources:
  - id: meduza
    title: Meduza
    handle: meduzaproject
  - id: rbc
    title: RBC
    handle: rbc_news
  - id: tass
    title: TASS
    handle: tass_agency
  - id: interfax
    title: Interfax
    handle: interfax_news
  - id: ria
    title: RIA Novosti
    handle: rian_ru
  - id: bbbreaking
    title: Breaking
    handle: bbbreaking
  - id: kontext
    title: Kontext
    handle: kontext_channel
  - id: meduzalive
    title: Meduza Live
    handle: meduzalive
  - id: superslowflow
    title: Superslowflow
    handle: superslowflow
  # - id: moscow_chat
  #   handle: moscow_chat
  #   kind: group          # needs collector.script
  # - id: meduza_rss
  #   url: https://meduza.io/rss/all
  #   kind: feed

fetch:
  workers: 4
  rate_per_second: 2
  max_messages: 20
  timeout: 15s

collector:
  script: ""
  api_id_env: TELEGRAM_API_ID
  api_hash_env: TELEGRAM_API_HASH
  session_dir: .chandigest/session

digest:
  title: "What's happening"
  timezone: "UTC"         # e.g. Europe/Moscow
  format: text            # text, markdown, json
  target_count: 8
  per_source_floor: 1
  widen_steps: [24, 72, 168]

schedule:
  cron: "0 9,12,15,18,21 * * *"
  run_on_start: false

delivery:
  stdout: true
  telegram:
    enabled: false
    bot_token_env: CHANDIGEST_BOT_TOKEN
    chat_id_env: CHANDIGEST_CHAT_ID

archive:
  path: .chandigest/history.db
  retain_days: 30

privacy:
  redact:
    enabled: false
    patterns: []

log:
  level: info
  format: console
`
