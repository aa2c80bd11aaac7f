package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/ppiankov/chandigest/internal/archive"
	"github.com/ppiankov/chandigest/internal/config"
	"github.com/ppiankov/chandigest/internal/dispatch"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, lexicon, archive and collector setup",
	RunE:  doctorAction,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func doctorAction(cmd *cobra.Command, _ []string) error {
	ok := true

	if info, err := os.Stat(configDir); err != nil || !info.IsDir() {
		printCheck(false, "config directory %s", configDir)
		ok = false
	} else {
		printCheck(true, "config directory %s", configDir)
	}

	cfg, err := loadConfig()
	if err != nil {
		printCheck(false, "config.yaml: %v", err)
		return fmt.Errorf("some checks failed")
	}

	counts := make(map[string]int)
	monitored := 0
	for _, src := range cfg.Sources {
		counts[src.Kind]++
		if src.Monitored() {
			monitored++
		}
	}
	printCheck(true, "config.yaml (%d channels, %d groups, %d feeds; %d monitored)",
		counts[config.KindChannel], counts[config.KindGroup], counts[config.KindFeed], monitored)
	if monitored == 0 {
		printInfo("no source is monitored; digests will be empty until one is")
	}

	lexPath := cfg.LexiconPath(configDir)
	if _, err := config.LoadLexicon(lexPath); err != nil {
		printCheck(false, "lexicon: %v", err)
		ok = false
	} else if _, statErr := os.Stat(lexPath); statErr != nil {
		printCheck(true, "lexicon (built-in, %s not found)", lexPath)
	} else {
		printCheck(true, "lexicon %s", lexPath)
	}

	arc, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		printCheck(false, "archive: %v", err)
		ok = false
	} else {
		entries, listErr := arc.List(cmdContext(cmd), 1)
		_ = arc.Close()
		switch {
		case listErr != nil:
			printCheck(false, "archive %s: %v", cfg.Archive.Path, listErr)
			ok = false
		case len(entries) == 0:
			printCheck(true, "archive %s (empty)", cfg.Archive.Path)
		default:
			printCheck(true, "archive %s (last digest %s)", cfg.Archive.Path, entries[0].CreatedAt.Local().Format("2006-01-02 15:04"))
		}
	}

	if counts[config.KindGroup] > 0 {
		if !checkCollector(cfg) {
			ok = false
		}
	}

	tg := cfg.Delivery.Telegram
	if tg.Enabled {
		printCheck(tg.BotToken != "" && tg.ChatID != "", "telegram delivery (%s, %s)", tg.BotTokenEnv, tg.ChatIDEnv)
	} else if cfg.Delivery.Stdout {
		printInfo("delivering to stdout only")
	}

	noop := func(context.Context) error { return nil }
	if sched, err := dispatch.NewScheduler(cfg.Schedule.Cron, cfg.Location(), noop, nil); err != nil {
		printCheck(false, "schedule: %v", err)
		ok = false
	} else {
		next := sched.Next(time.Now(), 1)
		printCheck(true, "schedule %q (next %s)", cfg.Schedule.Cron, next[0].Format("2006-01-02 15:04 MST"))
	}

	if !ok {
		return fmt.Errorf("some checks failed")
	}
	fmt.Println("\nAll checks passed.")
	return nil
}

func checkCollector(cfg *config.Config) bool {
	ok := true

	if _, err := exec.LookPath(cfg.Collector.PythonPath); err != nil {
		printCheck(false, "%s not found", cfg.Collector.PythonPath)
		ok = false
	} else {
		printCheck(true, "%s", cfg.Collector.PythonPath)
		if err := exec.Command(cfg.Collector.PythonPath, "-c", "import telethon").Run(); err != nil {
			printCheck(false, "telethon not installed (pip install telethon)")
			ok = false
		} else {
			printCheck(true, "telethon")
		}
	}

	if info, err := os.Stat(cfg.Collector.Script); err != nil {
		printCheck(false, "collector script: %v", err)
		ok = false
	} else if info.IsDir() {
		printCheck(false, "collector script: %s is a directory", cfg.Collector.Script)
		ok = false
	} else {
		printCheck(true, "collector script %s", cfg.Collector.Script)
	}

	if cfg.Collector.APIID == "" || cfg.Collector.APIHash == "" {
		printCheck(false, "collector credentials (%s, %s)", cfg.Collector.APIIDEnv, cfg.Collector.APIHashEnv)
		ok = false
	}
	return ok
}

func printCheck(pass bool, format string, args ...any) {
	mark := "FAIL"
	if pass {
		mark = " OK "
	}
	fmt.Printf("[%s] %s\n", mark, fmt.Sprintf(format, args...))
}

func printInfo(format string, args ...any) {
	fmt.Printf("[INFO] %s\n", fmt.Sprintf(format, args...))
}
