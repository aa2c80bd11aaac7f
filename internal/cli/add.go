package cli

import (
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ppiankov/chandigest/internal/config"
	"github.com/spf13/cobra"
)

var (
	addMonitor bool
	addGroup   bool
	addTitle   string
)

var handleRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

var addCmd = &cobra.Command{
	Use:   "add <@handle|url>",
	Short: "Add a channel, group or feed to config.yaml",
	Long: "Adds a source. @handle and t.me links become channels (or groups with --group); " +
		"any other http(s) URL becomes an RSS/Atom feed. New sources are not monitored unless --monitor is given.",
	Args: cobra.ExactArgs(1),
	RunE: addAction,
}

func init() {
	addCmd.Flags().BoolVar(&addMonitor, "monitor", false, "include the source in digests right away")
	addCmd.Flags().BoolVar(&addGroup, "group", false, "read the handle through the collector script as a group")
	addCmd.Flags().StringVar(&addTitle, "title", "", "display title (default @handle or feed host)")
	rootCmd.AddCommand(addCmd)
}

func addAction(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	src, err := parseTarget(args[0], addGroup)
	if err != nil {
		return err
	}
	if addTitle != "" {
		src.Title = addTitle
	}
	if !addMonitor {
		off := false
		src.Monitor = &off
	}

	taken := make(map[string]bool, len(cfg.Sources))
	for _, existing := range cfg.Sources {
		if existing.Kind == src.Kind && existing.Target() == src.Target() {
			fmt.Printf("Source %s already configured as %q.\n", src.Target(), existing.ID)
			return nil
		}
		taken[existing.ID] = true
	}
	src.ID = uniqueID(src.ID, taken)

	configPath := filepath.Join(configDir, config.DefaultConfigFile)
	if err := appendSources(configPath, []config.SourceConfig{src}); err != nil {
		return fmt.Errorf("add source: %w", err)
	}

	state := "not monitored"
	if addMonitor {
		state = "monitored"
	}
	fmt.Printf("Added %s %q (%s, %s).\n", src.Kind, src.Title, src.ID, state)
	return nil
}

// parseTarget turns "@handle", "handle", "t.me/handle" or a feed URL into a
// source entry with id, title, kind and target filled in.
func parseTarget(arg string, group bool) (config.SourceConfig, error) {
	arg = strings.TrimSpace(arg)

	if handle, ok := telegramHandle(arg); ok {
		if !handleRe.MatchString(handle) {
			return config.SourceConfig{}, fmt.Errorf("invalid handle %q", handle)
		}
		kind := config.KindChannel
		if group {
			kind = config.KindGroup
		}
		return config.SourceConfig{
			ID:     strings.ToLower(handle),
			Title:  "@" + handle,
			Handle: handle,
			Kind:   kind,
		}, nil
	}

	if group {
		return config.SourceConfig{}, fmt.Errorf("--group needs a handle, got %q", arg)
	}
	u, err := url.Parse(arg)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return config.SourceConfig{}, fmt.Errorf("%q is neither a handle nor an http(s) feed URL", arg)
	}
	host := feedHost(arg)
	return config.SourceConfig{
		ID:    slug(host),
		Title: strings.TrimPrefix(host, "www."),
		URL:   arg,
		Kind:  config.KindFeed,
	}, nil
}

// telegramHandle extracts the handle from @name, a bare name, or a t.me link.
func telegramHandle(arg string) (string, bool) {
	if strings.HasPrefix(arg, "@") {
		return strings.TrimPrefix(arg, "@"), true
	}

	rest := arg
	for _, prefix := range []string{"https://", "http://"} {
		rest = strings.TrimPrefix(rest, prefix)
	}
	for _, host := range []string{"t.me/", "telegram.me/"} {
		if strings.HasPrefix(rest, host) {
			path := strings.TrimPrefix(rest, host)
			path = strings.TrimPrefix(path, "s/")
			handle, _, _ := strings.Cut(path, "/")
			handle, _, _ = strings.Cut(handle, "?")
			return handle, true
		}
	}

	if !strings.Contains(arg, "/") && !strings.Contains(arg, ".") {
		return arg, true
	}
	return "", false
}
