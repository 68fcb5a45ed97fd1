package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mentionlens/mentionlens/internal/config"
	"github.com/mentionlens/mentionlens/internal/core"
	"github.com/mentionlens/mentionlens/internal/core/engine"
	"github.com/mentionlens/mentionlens/internal/core/ingest"
	"github.com/mentionlens/mentionlens/internal/core/searcher"
	"github.com/mentionlens/mentionlens/internal/observability"
	"github.com/mentionlens/mentionlens/internal/report"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Search every connection and write a report",
	Long: `Scan searches the indexed files once per connection and writes a report
sorted by mention count. Press Ctrl+C to stop early and keep a partial report.

To export your LinkedIn connections:
  1. Go to linkedin.com and log in
  2. Click your profile icon in the top right
  3. Select "Settings & Privacy"
  4. Click "Data privacy" in the left sidebar
  5. Under "How LinkedIn uses your data", click "Get a copy of your data"
  6. Select "Connections" (or "Want something in particular?" and check Connections)
  7. Click "Request archive"
  8. Wait for LinkedIn's email (may take up to 24 hours)
  9. Download and extract the ZIP file
  10. Use the Connections.csv file with this command:

     mentionlens scan --connections /path/to/Connections.csv`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().String("connections", "", "path to the connections CSV export (required)")
	scanCmd.Flags().String("output", "mentionlens-report.html", "report output path")
	scanCmd.Flags().String("format", "html", "report format: html, json")
	scanCmd.Flags().Int("delay-ms", 0, "initial inter-request delay in milliseconds (overrides config)")
	scanCmd.Flags().Int("max-contacts", 0, "limit the number of contacts to scan")
	scanCmd.Flags().Bool("relax-backoff", false, "let clean responses relax an inflated backoff delay")
	scanCmd.Flags().String("logo", "", "path to a PNG logo inlined into the HTML report")

	_ = scanCmd.MarkFlagRequired("connections")
}

func runScan(cmd *cobra.Command, args []string) error {
	connectionsPath, err := cmd.Flags().GetString("connections")
	if err != nil {
		return err
	}
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	delayMS, err := cmd.Flags().GetInt("delay-ms")
	if err != nil {
		return err
	}
	maxContacts, err := cmd.Flags().GetInt("max-contacts")
	if err != nil {
		return err
	}
	relaxBackoff, err := cmd.Flags().GetBool("relax-backoff")
	if err != nil {
		return err
	}
	logoPath, err := cmd.Flags().GetString("logo")
	if err != nil {
		return err
	}

	format, err := report.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	initialDelay := cfg.Search.InitialDelay
	if delayMS > 0 {
		initialDelay = time.Duration(delayMS) * time.Millisecond
	}
	if logoPath == "" {
		logoPath = cfg.Report.LogoPath
	}

	fmt.Printf("Reading LinkedIn connections from: %s\n", connectionsPath)
	contacts, err := ingest.ParseFile(connectionsPath)
	if err != nil {
		return fmt.Errorf("reading connections: %w", err)
	}
	fmt.Printf("Found %d connections\n", len(contacts))
	if len(contacts) == 0 {
		return errors.New("no connections found in CSV, check the file format")
	}
	if maxContacts > 0 && len(contacts) > maxContacts {
		contacts = contacts[:maxContacts]
	}

	// Interrupt flag: written by the signal goroutine, read by the run loop
	// between contacts. A pending backoff sleep completes before it is seen.
	var cancelled atomic.Bool
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancelled.Store(true)
		fmt.Println("\n\nSearch interrupted (Ctrl+C). Finishing the current request...")
	}()

	client := &searcher.Client{
		BaseURL:        cfg.Search.BaseURL,
		Index:          cfg.Search.Index,
		Timeout:        cfg.Search.Timeout,
		MaxAttempts:    cfg.Search.MaxAttempts,
		MaxDelay:       cfg.Search.MaxDelay,
		RelaxOnSuccess: relaxBackoff || cfg.Search.RelaxBackoff,
		InitialDelay:   initialDelay,
		ToolVersion:    versionInfo.Version,
		Logger:         observability.CLILogger,
	}

	runner := &engine.Runner{
		Searcher:     client,
		InitialDelay: initialDelay,
		Cancelled:    &cancelled,
		Logger:       observability.CLILogger,
		Progress: func(index, total int, result *core.Result) {
			fmt.Printf("  [%d/%d] %s -> %d mentions\n", index, total, result.Name, result.TotalMentions)
		},
	}

	fmt.Println("Searching the indexed files...")
	fmt.Println("(Press Ctrl+C to stop and generate a partial report)")
	fmt.Println()

	rep, err := runner.Run(cmd.Context(), contacts)
	if errors.Is(err, engine.ErrNoResults) {
		// Intentional early stop before anything completed: no artifact,
		// successful exit.
		fmt.Println("No results collected yet. Exiting without generating a report.")
		return nil
	}
	if err != nil {
		return err
	}

	if rep.Partial {
		fmt.Printf("Generating partial report with %d of %d contacts searched...\n",
			rep.Summary.TotalSearched, rep.TotalInput)
	}

	if err := writeReport(rep, format, outputPath, cfg, logoPath); err != nil {
		return err
	}
	observability.CLILogger.Debug("Report written", zap.String("path", outputPath))

	fmt.Println()
	report.WriteSummary(os.Stdout, rep, cfg.Report.TopMentions)
	fmt.Printf("\nFull report saved to: %s\n", outputPath)
	return nil
}

func writeReport(rep *core.Report, format report.Format, outputPath string, cfg *config.Config, logoPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close() // nolint:errcheck // flushed explicitly below

	renderer := report.NewRenderer(format, report.Options{
		DocumentBaseURL: cfg.Report.DocumentBaseURL,
		LogoPath:        logoPath,
	})
	if err := renderer.Render(f, rep); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}
