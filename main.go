// transx is a gettext catalog toolkit: extract strings, merge, compile and
// machine-translate message catalogs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/minios-linux/transx/config"
	"github.com/minios-linux/transx/extract"
	"github.com/minios-linux/transx/langmeta"
	"github.com/minios-linux/transx/lockfile"
	"github.com/minios-linux/transx/logging"
	"github.com/minios-linux/transx/merge"
	"github.com/minios-linux/transx/mofile"
	po "github.com/minios-linux/transx/pofile"
	"github.com/minios-linux/transx/settings"
	"github.com/minios-linux/transx/translate"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ---------------------------------------------------------------------------
// Global flags
// ---------------------------------------------------------------------------

var (
	rootDir   string
	verbose   bool
	logFormat string
)

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "transx",
		Short: "gettext catalog toolkit: extract, merge, compile and translate",
		Long: `transx manages gettext message catalogs.

Catalogs live in <locales>/<lang>/LC_MESSAGES/<domain>.po with the template
at <locales>/<domain>.pot. Settings come from .transx.yaml in the project
root, TRANSX_* environment variables and command-line flags, in increasing
priority.

Commands:
  extract     Scan sources and write the POT template
  update      Merge the template into per-language PO files
  compile     Compile PO files into MO files
  list        Show languages and translation statistics
  translate   Fill empty translations with a translator
  auth        Manage stored translator API keys`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory")
	root.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatConsole, "Log format: console or json")

	root.AddCommand(
		newExtractCmd(),
		newUpdateCmd(),
		newCompileCmd(),
		newListCmd(),
		newTranslateCmd(),
		newAuthCmd(),
		newVersionCmd(),
	)

	return root
}

func setupLogging() error {
	level := "debug"
	if !verbose {
		env, err := config.LoadEnv("", nil)
		if err != nil {
			return err
		}
		level = env.LogLevel
	}
	return logging.Setup(os.Stderr, level, logFormat)
}

func main() {
	_ = logging.Setup(os.Stderr, "info", logging.FormatConsole)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("transx failed")
		stop()
		os.Exit(1)
	}
}

func loadProject() (*config.Project, error) {
	return config.Resolve(rootDir)
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "transx version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

type extractFlags struct {
	output      string
	project     string
	version     string
	copyright   string
	bugs        string
	keywords    []string
	langs       []string
	localesDir  string
	noDefaultKw bool
}

func newExtractCmd() *cobra.Command {
	var f extractFlags

	cmd := &cobra.Command{
		Use:   "extract [source_path...]",
		Short: "Scan sources and write the POT template",
		Long: `Scan source files for translatable strings and write a POT template.

Without arguments the sources configured in .transx.yaml are scanned
(default: the project root). Keywords use xgettext syntax: "name",
"name:1,2" (singular, plural), "name:1c,2" (context, msgid). Keywords
given with -k are added to the built-in set unless --no-default-keywords
is set.

With -l, the per-language PO files are created or updated from the new
template, as "transx update" would.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output POT file (default <locales>/<domain>.pot)")
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project name for the header")
	cmd.Flags().StringVarP(&f.version, "version", "v", "", "Project version for the header")
	cmd.Flags().StringVarP(&f.copyright, "copyright", "c", "", "Copyright holder for the header")
	cmd.Flags().StringVarP(&f.bugs, "bugs", "b", "", "Address for translation bug reports")
	cmd.Flags().StringArrayVarP(&f.keywords, "keyword", "k", nil, "Additional keyword spec (repeatable)")
	cmd.Flags().BoolVar(&f.noDefaultKw, "no-default-keywords", false, "Use only keywords given with -k or in the config")
	cmd.Flags().StringSliceVarP(&f.langs, "langs", "l", nil, "Languages to create or update after extraction")
	cmd.Flags().StringVarP(&f.localesDir, "output-dir", "d", "", "Locales directory for -l (default from config)")

	return cmd
}

func runExtract(cmd *cobra.Command, args []string, f extractFlags) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	cfg := proj.File

	sources := args
	if len(sources) == 0 {
		for _, s := range cfg.Sources {
			sources = append(sources, resolvePath(proj.Root, s))
		}
	}

	keywords := append(append([]string{}, cfg.Keywords...), f.keywords...)
	if !f.noDefaultKw && len(keywords) > 0 {
		keywords = append(append([]string{}, extract.DefaultKeywords...), keywords...)
	}

	ex := extract.New(extract.WithKeywords(keywords...))
	res, err := ex.ExtractPaths(sources)
	if err != nil {
		return err
	}
	log.Info().
		Int("files", len(res.SourceFiles)).
		Strs("languages", res.Languages).
		Int("messages", res.Messages).
		Msg("sources scanned")
	log.Debug().Msg(extract.DescribeFiles(res.SourceFiles))

	out := f.output
	if out == "" {
		out = proj.POTPath()
	}
	info := po.TemplateInfo{
		Project:     firstNonEmpty(f.project, cfg.Project),
		Version:     firstNonEmpty(f.version, cfg.Version),
		Copyright:   firstNonEmpty(f.copyright, cfg.Copyright),
		BugsAddress: firstNonEmpty(f.bugs, cfg.BugsAddress),
	}
	if err := ex.WriteTemplate(out, info); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Extracted %d messages from %d files to %s\n", res.Messages, len(res.SourceFiles), out)

	if len(f.langs) == 0 {
		return nil
	}
	langs, err := parseLangs(f.langs)
	if err != nil {
		return err
	}
	localesDir := proj.LocalesDir()
	if f.localesDir != "" {
		localesDir = f.localesDir
	}
	results, err := merge.UpdateDir(out, localesDir, cfg.Domain, langs)
	printMergeResults(cmd.OutOrStdout(), results)
	return err
}

// ---------------------------------------------------------------------------
// update
// ---------------------------------------------------------------------------

func newUpdateCmd() *cobra.Command {
	var (
		langs      []string
		localesDir string
		noFuzzy    bool
	)

	cmd := &cobra.Command{
		Use:   "update [pot_file]",
		Short: "Merge the template into per-language PO files",
		Long: `Merge a POT template into <locales>/<lang>/LC_MESSAGES/<domain>.po.

Existing translations are kept, new messages are added untranslated and
messages that left the template are kept as obsolete (#~) entries.
Missing PO files are created. Languages default to the configured ones,
then to the locale directories that already exist.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			potPath := proj.POTPath()
			if len(args) == 1 {
				potPath = args[0]
			}
			dir := proj.LocalesDir()
			if localesDir != "" {
				dir = localesDir
			}

			targets, err := parseLangs(langs)
			if err != nil {
				return err
			}
			if len(targets) == 0 {
				targets = proj.File.Languages
			}
			if len(targets) == 0 {
				targets = config.DetectLanguages(dir)
			}
			if len(targets) == 0 {
				return fmt.Errorf("no languages found in %s (use -l)", dir)
			}

			results, err := merge.UpdateDir(potPath, dir, proj.File.Domain, targets, merge.WithPreserveFuzzy(!noFuzzy))
			printMergeResults(cmd.OutOrStdout(), results)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&langs, "langs", "l", nil, "Languages to update (comma-separated)")
	cmd.Flags().StringVarP(&localesDir, "output-dir", "o", "", "Locales directory (default from config)")
	cmd.Flags().BoolVar(&noFuzzy, "clear-fuzzy", false, "Drop fuzzy flags from merged entries")

	return cmd
}

func printMergeResults(w io.Writer, results []*merge.Result) {
	for _, r := range results {
		action := "updated"
		if r.Created {
			action = "created"
		}
		fmt.Fprintf(w, "%-8s %s %s: %d new, %d obsolete, %d/%d translated\n",
			r.Lang, action, r.Path, r.Added, r.Obsolete, r.Translated, r.Total)
	}
}

// ---------------------------------------------------------------------------
// compile
// ---------------------------------------------------------------------------

type compileFlags struct {
	localesDir string
	force      bool
	verify     bool
	useFuzzy   bool
}

func newCompileCmd() *cobra.Command {
	var f compileFlags

	cmd := &cobra.Command{
		Use:   "compile [po_file...]",
		Short: "Compile PO files into MO files",
		Long: `Compile PO catalogs into gettext MO files written next to each PO.

Without arguments, or with -d, every PO under the locales directory is
compiled. A PO whose checksum matches the one recorded in transx.lock
after its last compilation is skipped while its MO exists; --force
recompiles everything. --verify reloads each MO with an independent
gettext reader and fails on any lookup that differs from the PO.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(cmd, args, f)
		},
	}

	cmd.Flags().StringVarP(&f.localesDir, "locales-dir", "d", "", "Compile every PO under this directory")
	cmd.Flags().BoolVar(&f.force, "force", false, "Recompile unchanged PO files")
	cmd.Flags().BoolVar(&f.verify, "verify", false, "Verify the written MO files")
	cmd.Flags().BoolVar(&f.useFuzzy, "use-fuzzy", false, "Include fuzzy translations")

	return cmd
}

func runCompile(cmd *cobra.Command, args []string, f compileFlags) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}

	files := args
	fullTree := len(files) == 0 || f.localesDir != ""
	if fullTree {
		dir := proj.LocalesDir()
		if f.localesDir != "" {
			dir = f.localesDir
		}
		found, err := findPOFiles(dir)
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("no PO files to compile")
	}

	lock, err := lockfile.Load(proj.Root)
	if err != nil {
		return err
	}

	opts := []mofile.Option{mofile.SkipUntranslated()}
	if f.useFuzzy {
		opts = append(opts, mofile.WithFuzzy())
	}

	compiled, skipped := 0, 0
	for _, poPath := range files {
		moPath := strings.TrimSuffix(poPath, filepath.Ext(poPath)) + ".mo"
		logger := log.With().Str("po", poPath).Logger()

		if !f.force && fileExists(moPath) {
			changed, err := lock.FileChanged(lockfile.TargetCompile, poPath)
			if err != nil {
				return fmt.Errorf("reading %s: %w", poPath, err)
			}
			if !changed {
				logger.Debug().Msg("unchanged, skipping")
				skipped++
				continue
			}
		}

		cat, err := mofile.CompileFile(poPath, moPath, opts...)
		if err != nil {
			return err
		}
		if f.verify {
			if err := verifyMO(moPath, cat); err != nil {
				return err
			}
		}
		if err := lock.RecordFile(lockfile.TargetCompile, poPath); err != nil {
			return err
		}

		total, translated, fuzzy, _ := cat.Stats()
		logger.Info().Str("mo", moPath).Int("translated", translated).Int("fuzzy", fuzzy).Int("total", total).Msg("compiled")
		compiled++
	}

	if fullTree {
		lock.CleanFiles(lockfile.TargetCompile, files)
	}
	if err := lock.Save(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Compiled %d catalogs, %d unchanged\n", compiled, skipped)
	return nil
}

func verifyMO(moPath string, cat *po.Catalog) error {
	data, err := os.ReadFile(moPath)
	if err != nil {
		return err
	}
	if bad := mofile.Verify(data, cat); len(bad) > 0 {
		for _, m := range bad {
			log.Error().Str("mo", moPath).Msg(m.String())
		}
		return fmt.Errorf("%s: %d messages differ after compilation", moPath, len(bad))
	}
	return nil
}

// findPOFiles returns the sorted .po files under dir.
func findPOFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".po" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ---------------------------------------------------------------------------
// list
// ---------------------------------------------------------------------------

func newListCmd() *cobra.Command {
	var localesDir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show languages and translation statistics",
		Long: `List the languages of the locale tree with their display names and
translation progress. Languages that only have an MO file are read from
it. Does not modify any files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			proj, err := loadProject()
			if err != nil {
				return err
			}
			dir := proj.LocalesDir()
			if localesDir != "" {
				dir = localesDir
			}
			return runList(cmd.OutOrStdout(), dir, proj.File.Domain)
		},
	}

	cmd.Flags().StringVarP(&localesDir, "locales-dir", "d", "", "Locales directory (default from config)")
	return cmd
}

func runList(w io.Writer, dir, domain string) error {
	langs := config.DetectLanguages(dir)
	if len(langs) == 0 {
		fmt.Fprintf(w, "No languages found in %s\n", dir)
		return nil
	}

	fmt.Fprintf(w, "%-10s %-24s %-16s %-12s %s\n", "Lang", "Name", "Native", "Translated", "Progress")
	fmt.Fprintln(w, strings.Repeat("-", 76))
	for _, lang := range langs {
		cat, err := loadCatalog(dir, lang, domain)
		if err != nil {
			fmt.Fprintf(w, "%-10s %-24s %-16s %-12s %s\n", lang, langmeta.EnglishName(lang), langmeta.NativeName(lang), "-", "unreadable")
			log.Warn().Err(err).Str("lang", lang).Msg("cannot read catalog")
			continue
		}
		total, translated, _, _ := cat.Stats()
		percent := 0
		if total > 0 {
			percent = translated * 100 / total
		}
		fmt.Fprintf(w, "%-10s %-24s %-16s %-12s %s\n",
			lang,
			truncateName(langmeta.EnglishName(lang), 24),
			truncateName(langmeta.NativeName(lang), 16),
			fmt.Sprintf("%d/%d", translated, total),
			progressBar(percent, 20))
	}
	return nil
}

// loadCatalog reads the PO for lang, falling back to its MO.
func loadCatalog(dir, lang, domain string) (*po.Catalog, error) {
	base := filepath.Join(dir, lang, "LC_MESSAGES", domain)
	cat, err := po.ParseFile(base + ".po")
	if errors.Is(err, fs.ErrNotExist) {
		return mofile.ReadFile(base + ".mo")
	}
	return cat, err
}

// progressBar renders percent (clamped to 0..100) as a bar of width cells.
func progressBar(percent, width int) string {
	percent = max(0, min(100, percent))
	filled := percent * width / 100
	return fmt.Sprintf("[%s%s] %3d%%", strings.Repeat("#", filled), strings.Repeat(".", width-filled), percent)
}

func truncateName(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

// ---------------------------------------------------------------------------
// translate
// ---------------------------------------------------------------------------

type translateFlags struct {
	langs         []string
	localesDir    string
	source        string
	target        string
	provider      string
	model         string
	apiKey        string
	baseURL       string
	maxConcurrent int
	force         bool
}

func newTranslateCmd() *cobra.Command {
	var f translateFlags

	cmd := &cobra.Command{
		Use:   "translate [file...]",
		Short: "Fill empty translations with a translator",
		Long: `Fill the empty translations of PO files.

Arguments may be PO files or a POT template; a template needs -l and
creates or updates the PO file of each language first. Without arguments
the project PO files of the given (or configured) languages are used.

Providers: dummy (copies the source text), openai, gemini, ollama.
Files translated completely on a previous run and unchanged since are
skipped unless --force is set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTranslate(cmd, args, f)
		},
	}

	cmd.Flags().StringSliceVarP(&f.langs, "langs", "l", nil, "Languages (comma-separated)")
	cmd.Flags().StringVarP(&f.localesDir, "locales-dir", "d", "", "Locales directory (default from config)")
	cmd.Flags().StringVarP(&f.source, "source", "s", "", "Source language (default from config)")
	cmd.Flags().StringVarP(&f.target, "target", "t", "", "Target language for every file (default from each file)")
	cmd.Flags().StringVar(&f.provider, "provider", "", "Translator: "+strings.Join(config.Providers, ", "))
	cmd.Flags().StringVar(&f.model, "model", "", "Model name")
	cmd.Flags().StringVar(&f.apiKey, "api-key", "", "API key (or TRANSX_API_KEY)")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "API base URL")
	cmd.Flags().IntVar(&f.maxConcurrent, "max-concurrent", 0, "Files translated in parallel")
	cmd.Flags().BoolVar(&f.force, "force", false, "Translate files recorded as complete in transx.lock")

	return cmd
}

func runTranslate(cmd *cobra.Command, args []string, f translateFlags) error {
	proj, err := loadProject()
	if err != nil {
		return err
	}
	cfg := proj.File

	tcfg := cfg.Translator
	tcfg.Provider = strings.ToLower(firstNonEmpty(f.provider, tcfg.Provider))
	tcfg.Model = firstNonEmpty(f.model, tcfg.Model)
	tcfg.APIKey = settings.ResolveAPIKey(tcfg.Provider, firstNonEmpty(f.apiKey, tcfg.APIKey))
	tcfg.BaseURL = firstNonEmpty(f.baseURL, tcfg.BaseURL)
	if tcfg.BaseURL == "" {
		if c, err := settings.Get(tcfg.Provider); err == nil && c != nil {
			tcfg.BaseURL = c.BaseURL
		}
	}
	if f.maxConcurrent > 0 {
		tcfg.MaxConcurrent = f.maxConcurrent
	}

	var httpOpts []translate.HTTPOption
	prompt, err := settings.Prompt()
	if err != nil {
		return err
	}
	if prompt != "" {
		httpOpts = append(httpOpts, translate.WithSystemPrompt(prompt))
	}
	tr, err := translate.New(tcfg, httpOpts...)
	if err != nil {
		return err
	}

	langs, err := parseLangs(f.langs)
	if err != nil {
		return err
	}
	dir := proj.LocalesDir()
	if f.localesDir != "" {
		dir = f.localesDir
	}

	files, err := translationTargets(args, langs, dir, proj)
	if err != nil {
		return err
	}

	lock, err := lockfile.Load(proj.Root)
	if err != nil {
		return err
	}
	var todo []string
	for _, path := range files {
		if !f.force {
			changed, err := lock.FileChanged(lockfile.TargetTranslate, path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			if !changed {
				log.Debug().Str("file", path).Msg("complete and unchanged, skipping")
				continue
			}
		}
		todo = append(todo, path)
	}
	if len(todo) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Nothing to translate")
		return nil
	}

	target, err := parseLangs(splitNonEmpty(f.target))
	if err != nil {
		return err
	}
	opts := []translate.FileOption{translate.WithSourceLang(firstNonEmpty(f.source, cfg.SourceLang))}
	if len(target) > 0 {
		opts = append(opts, translate.WithTargetLang(target[0]))
	}

	results, err := translate.TranslateFiles(cmd.Context(), tr, todo, tcfg.MaxConcurrent, opts...)
	if err != nil {
		return err
	}

	for _, r := range results {
		if r.Remaining == 0 {
			if err := lock.RecordFile(lockfile.TargetTranslate, r.Path); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s: %d translated, %d remaining\n", r.Lang, r.Path, r.Translated, r.Remaining)
	}
	return lock.Save()
}

// translationTargets resolves the PO files to translate. POT arguments are
// merged into one PO per language first.
func translationTargets(args, langs []string, dir string, proj *config.Project) ([]string, error) {
	if len(args) == 0 {
		if len(langs) == 0 {
			langs = proj.Languages()
		}
		if len(langs) == 0 {
			return nil, fmt.Errorf("no languages found in %s (use -l)", dir)
		}
		var files []string
		for _, lang := range langs {
			path := merge.POPath(dir, lang, proj.File.Domain)
			if !fileExists(path) {
				log.Warn().Str("lang", lang).Str("path", path).Msg("no catalog, run 'transx update' first")
				continue
			}
			files = append(files, path)
		}
		return files, nil
	}

	var files []string
	for _, arg := range args {
		if filepath.Ext(arg) != ".pot" {
			files = append(files, arg)
			continue
		}
		if len(langs) == 0 {
			return nil, fmt.Errorf("%s: translating a template needs -l", arg)
		}
		tmpl, err := po.ParseFile(arg)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", arg, err)
		}
		for _, lang := range langs {
			res, err := merge.UpdateFile(tmpl, merge.POPath(dir, lang, proj.File.Domain), lang)
			if err != nil {
				return nil, err
			}
			files = append(files, res.Path)
		}
	}
	return files, nil
}

// ---------------------------------------------------------------------------
// auth (stored API keys)
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage stored translator API keys",
		Long: `Manage the per-user credential store used by "transx translate".

Keys are looked up in this order: --api-key, TRANSX_API_KEY or
translator.api_key in .transx.yaml, the provider's own variable
(OPENAI_API_KEY, GEMINI_API_KEY), then the store.`,
	}

	var baseURL string
	setCmd := &cobra.Command{
		Use:   "set <provider> [api_key]",
		Short: "Store an API key and/or base URL for a provider",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider := strings.ToLower(args[0])
			if _, ok := translate.DefaultProviders()[provider]; !ok {
				return fmt.Errorf("unknown provider %q", args[0])
			}
			key := ""
			if len(args) == 2 {
				key = args[1]
			}
			if key == "" && baseURL == "" {
				return fmt.Errorf("nothing to store: give an API key or --base-url")
			}
			if err := settings.SetAPIKey(provider, key, baseURL); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored credentials for %s in %s\n", provider, settings.FilePath())
			return nil
		},
	}
	setCmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL for this provider")

	removeCmd := &cobra.Command{
		Use:   "remove <provider>",
		Short: "Delete the stored credentials of a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return settings.Remove(strings.ToLower(args[0]))
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored credentials with masked keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := settings.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(store) == 0 {
				fmt.Fprintln(out, "No stored credentials")
				return nil
			}
			for _, id := range store.Providers() {
				c := store[id]
				key := "-"
				if c.Key != "" {
					key = settings.MaskKey(c.Key)
				}
				fmt.Fprintf(out, "%-8s %-14s %s\n", id, key, c.BaseURL)
			}
			return nil
		},
	}

	cmd.AddCommand(setCmd, removeCmd, listCmd)
	return cmd
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// parseLangs splits comma-separated codes and normalizes them. Bare known
// language codes ("de", "ja") are kept so they match existing locale
// directories; everything else goes through the alias table ("zh-Hans"
// and "chinese" become "zh_CN", "pt-br" becomes "pt_BR").
func parseLangs(values []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, v := range values {
		for _, code := range splitNonEmpty(v) {
			lang, err := normalizeLangArg(code)
			if err != nil {
				return nil, err
			}
			if !seen[lang] {
				seen[lang] = true
				out = append(out, lang)
			}
		}
	}
	return out, nil
}

func normalizeLangArg(code string) (string, error) {
	if isBareLanguage(code) {
		return code, nil
	}
	return langmeta.Normalize(code)
}

func isBareLanguage(code string) bool {
	if len(code) < 2 || len(code) > 3 || strings.ToLower(code) != code {
		return false
	}
	// "jp", "cn" and "deu" are aliases, not directory names.
	if canon, ok := langmeta.Aliases[code]; ok && !strings.HasPrefix(canon, code+"_") {
		return false
	}
	_, err := language.ParseBase(code)
	return err == nil
}

func splitNonEmpty(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func resolvePath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
