package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/T03ty/Hytale-F2P/internal/archive"
	"github.com/T03ty/Hytale-F2P/internal/buildver"
	"github.com/T03ty/Hytale-F2P/internal/catalog"
	"github.com/T03ty/Hytale-F2P/internal/config"
	"github.com/T03ty/Hytale-F2P/internal/integrity"
	"github.com/T03ty/Hytale-F2P/internal/logging"
	"github.com/T03ty/Hytale-F2P/internal/planner"
	"github.com/T03ty/Hytale-F2P/internal/platform"
)

var (
	version = "0.6.0"

	cfgFile      string
	branchFlag   string
	logLevel     string
	outputFormat string

	probeMax     int
	probeWorkers int
	probeRPS     float64

	sha256Flag string
	buildFlag  int
)

var rootCmd = &cobra.Command{
	Use:   "hytale-f2p",
	Short: "Hytale F2P Launcher",
	Long:  `Hytale F2P Launcher - resolves, plans and verifies community client updates for Windows, macOS, and Linux`,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether a client update is available",
	Run: func(cmd *cobra.Command, args []string) {
		checkForUpdate()
	},
}

var planCmd = &cobra.Command{
	Use:   "plan [target-version]",
	Short: "Resolve the update plan for a target version (default: latest)",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		target := ""
		if len(args) == 1 {
			target = args[0]
		}
		planUpdate(target)
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Scan the mirror for archives that actually exist",
	Run: func(cmd *cobra.Command, args []string) {
		probeMirror()
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <file>",
	Short: "Verify a downloaded file against its published digest",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		verifyFile(args[0])
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the launcher's view of the local install",
	Run: func(cmd *cobra.Command, args []string) {
		showStatus()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Hytale F2P Launcher v%s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.config/hytale-f2p/launcher.yaml)")
	rootCmd.PersistentFlags().StringVar(&branchFlag, "branch", "", "release branch override")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	planCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")
	probeCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format (text, json, yaml)")

	probeCmd.Flags().IntVar(&probeMax, "max", 0, "how many builds below the latest to probe (default from config)")
	probeCmd.Flags().IntVar(&probeWorkers, "workers", 0, "concurrent probes (default from config)")
	probeCmd.Flags().Float64Var(&probeRPS, "rps", -1, "pace probes to this many requests per second, 0 disables")

	verifyCmd.Flags().StringVar(&sha256Flag, "sha256", "", "expected SHA-256 digest in hex")
	verifyCmd.Flags().IntVar(&buildFlag, "build", 0, "look up the digest from this build's patch manifest entry")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// launcher bundles what every subcommand needs: the validated config,
// the detected platform, the catalog client and the planner, plus a
// context carrying the session logger.
type launcher struct {
	ctx  context.Context
	cfg  *config.Config
	info platform.Info
	cat  *catalog.Client
	plan *planner.Planner
}

func setup() *launcher {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if branchFlag != "" {
		cfg.Branch = branchFlag
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	result := cfg.ValidateTiered()
	if result.HasFatals() {
		for _, err := range result.Fatals {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		}
		os.Exit(1)
	}

	logging.Init(cfg.LogFormat, cfg.LogLevel, logDestination(cfg.LogFile))

	logger := logging.WithSession(logging.L("cli"), logging.NewSessionID())
	for _, warn := range result.Warnings {
		logger.Warn("config validation", logging.KeyError, warn)
	}

	info := platform.Detect()
	arch := archive.PathArch(info.OS)

	cat := catalog.New(catalog.Config{
		PrimaryURL: cfg.PrimaryEndpoint,
		LegacyURL:  cfg.LegacyEndpoint,
		PatchURL:   cfg.PatchEndpoint,
		OS:         info.OS,
		Arch:       arch,
	})

	pl := planner.New(planner.Config{
		Manifests:      cat,
		Locator:        archive.NewLocator(cfg.CDNBaseURL),
		OS:             info.OS,
		Arch:           arch,
		CurrentVersion: func() string { return cfg.InstalledVersion },
	})

	return &launcher{
		ctx:  logging.NewContext(context.Background(), logger),
		cfg:  cfg,
		info: info,
		cat:  cat,
		plan: pl,
	}
}

// logDestination opens the rotating log file, keeping stdout free for
// command output. An empty path means the per-user default under the
// state directory; stderr is only the fallback when the file cannot be
// opened.
func logDestination(path string) io.Writer {
	if path == "" {
		path = config.DefaultLogFile()
	}
	w, err := logging.NewRotatingWriter(path, 10, 2)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot open log file %s: %v\n", path, err)
		return os.Stderr
	}
	return w
}

func checkForUpdate() {
	l := setup()

	latest := l.cat.LatestVersion(l.ctx, l.cfg.Branch)
	current := l.cfg.InstalledVersion

	switch {
	case current == "":
		fmt.Printf("No client installed. Latest %s build is %s.\n", l.cfg.Branch, latest)
		fmt.Println("Run 'hytale-f2p plan' to see the install plan.")
	case buildver.ParseBuild(current) >= buildver.ParseBuild(latest):
		fmt.Printf("Up to date: %s (%s)\n", current, l.cfg.Branch)
	default:
		fmt.Printf("Update available: %s -> %s (%s)\n", current, latest, l.cfg.Branch)
	}
}

func planUpdate(target string) {
	l := setup()

	if target == "" {
		target = l.cat.LatestVersion(l.ctx, l.cfg.Branch)
	}

	plan, err := l.plan.Resolve(l.ctx, target, l.cfg.Branch)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve plan: %v\n", err)
		os.Exit(1)
	}

	if err := printPlan(plan, outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render plan: %v\n", err)
		os.Exit(1)
	}
}

func probeMirror() {
	l := setup()

	opts := planner.ProbeOptions{
		MaxProbe: l.cfg.ProbeMax,
		Workers:  l.cfg.ProbeWorkers,
		RPS:      l.cfg.ProbeRPS,
	}
	if probeMax > 0 {
		opts.MaxProbe = probeMax
	}
	if probeWorkers > 0 {
		opts.Workers = probeWorkers
	}
	if probeRPS >= 0 {
		opts.RPS = probeRPS
	}

	latest := l.cat.LatestVersion(l.ctx, l.cfg.Branch)
	archives, err := l.plan.ProbeAvailable(l.ctx, latest, l.cfg.Branch, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		os.Exit(1)
	}

	report := probeReport{Branch: l.cfg.Branch, Latest: latest, Archives: archives}
	if err := printProbe(report, outputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to render report: %v\n", err)
		os.Exit(1)
	}
}

func verifyFile(path string) {
	l := setup()

	expected := sha256Flag
	if expected == "" && buildFlag > 0 {
		entry, ok := l.cat.PatchManifest(l.ctx, l.cfg.Branch)[buildFlag]
		if !ok || entry.PatchHash == "" {
			fmt.Fprintf(os.Stderr, "No published digest for build %d on %s.\n", buildFlag, l.cfg.Branch)
			os.Exit(1)
		}
		expected = entry.PatchHash
	}

	if expected == "" {
		// No digest to compare against; behave like sha256sum.
		digest, err := integrity.Digest(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
			os.Exit(1)
		}
		fmt.Printf("%s  %s\n", digest, path)
		return
	}

	ok, err := integrity.Verify(path, expected)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read %s: %v\n", path, err)
		os.Exit(1)
	}
	if !ok {
		fmt.Printf("MISMATCH: %s\n", path)
		os.Exit(1)
	}
	fmt.Printf("OK: %s\n", path)
}

func showStatus() {
	l := setup()
	printStatus(os.Stdout, l.cfg, l.info)
}
