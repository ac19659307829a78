package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"locimages/pkg/checkpoint"
	"locimages/pkg/config"
	"locimages/pkg/crawler"
	"locimages/pkg/loc"
	"locimages/pkg/logger"
	"locimages/pkg/manifest"
)

var (
	// Crawl command flags
	resultsPerPage    int
	ariaFormat        bool
	groupByCollection bool
	rootDir           string
	manifestFile      string
	debugDump         string
	filterMode        string
	resumeCrawl       bool
	forceRestart      bool
)

// crawlCmd represents the crawl command
var crawlCmd = &cobra.Command{
	Use:   "crawl <search-url>",
	Short: "Walk a search and emit a download manifest",
	Long: `Walk every page of a Library of Congress search URL and write an aria2c
input file to stdout, one entry per result image.

The search URL is any loc.gov search or collection URL; the JSON format,
page size, and attribute parameters are added automatically. Pages are
fetched strictly one at a time with a fixed interval between requests.
Transient failures retry with exponential backoff until they succeed, so a
long crawl can ride out hours of server trouble unattended.

Each page is checkpointed after it is written, so an interrupted crawl can
pick up where it left off with --resume without duplicating entries.`,
	Example: `  # Crawl a collection and pipe the manifest into aria2c
  loc-images crawl 'https://www.loc.gov/collections/fsa-owi-color-photographs/' > images.txt
  aria2c -i images.txt

  # Group downloads into per-collection directories under ./loc
  loc-images crawl '<url>' --root-dir ./loc > images.txt

  # Resume an interrupted crawl, appending to the same manifest file
  loc-images crawl '<url>' --manifest-file images.txt --resume

  # Start over, discarding the existing checkpoint
  loc-images crawl '<url>' --force-restart > images.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runCrawl,
}

func init() {
	rootCmd.AddCommand(crawlCmd)

	// Local flags for crawl command
	crawlCmd.Flags().IntVar(&resultsPerPage, "results-per-page", 0, "initial results per page (must be a power of two)")
	crawlCmd.Flags().BoolVar(&ariaFormat, "aria-format", true, "emit aria2c option lines (out=, dir=) after each URL")
	crawlCmd.Flags().BoolVar(&groupByCollection, "group-by-collection", true, "group downloads into per-collection directories")
	crawlCmd.Flags().StringVarP(&rootDir, "root-dir", "o", "", "root directory for downloads written into dir= lines")
	crawlCmd.Flags().StringVar(&manifestFile, "manifest-file", "", "write the manifest to a file instead of stdout")
	crawlCmd.Flags().StringVar(&debugDump, "debug-dump", "", "dump each raw API response body to this file")
	crawlCmd.Flags().StringVar(&filterMode, "filter-mode", "", "original-format filter mode (blocklist, allowlist)")
	crawlCmd.Flags().BoolVar(&resumeCrawl, "resume", false, "resume from the last checkpoint for this search")
	crawlCmd.Flags().BoolVar(&forceRestart, "force-restart", false, "discard any existing checkpoint and start over")
}

func runCrawl(cmd *cobra.Command, args []string) error {
	seedURL := strings.TrimSpace(args[0])

	// Build flags map from command line
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("results-per-page") {
		flags["results-per-page"] = resultsPerPage
	}
	if cmd.Flags().Changed("aria-format") {
		flags["aria-format"] = ariaFormat
	}
	if cmd.Flags().Changed("group-by-collection") {
		flags["group-by-collection"] = groupByCollection
	}
	if rootDir != "" {
		flags["root-dir"] = rootDir
	}
	if manifestFile != "" {
		flags["manifest-file"] = manifestFile
	}
	if debugDump != "" {
		flags["debug-dump"] = debugDump
	}
	if filterMode != "" {
		flags["filter-mode"] = filterMode
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if quiet {
		flags["log-level"] = "error"
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	// A signal cancels the context; the checkpoint written after the last
	// completed page makes the interruption resumable.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cpManager, err := checkpoint.NewManager(seedURL)
	if err != nil {
		return fmt.Errorf("failed to create checkpoint manager: %w", err)
	}

	if forceRestart {
		if err := cpManager.Delete(); err != nil {
			return fmt.Errorf("failed to delete checkpoint: %w", err)
		}
		log.Info("Existing checkpoint discarded")
	}

	var cp *checkpoint.Checkpoint
	if resumeCrawl {
		cp, err = cpManager.Load()
		if err != nil {
			return fmt.Errorf("failed to load checkpoint: %w", err)
		}
		if cp == nil {
			log.Info("No checkpoint found, starting a fresh crawl")
		}
	}

	pageSize := cfg.API.ResultsPerPage
	var startURL string
	if cp != nil {
		if cp.Completed {
			log.Info("Crawl already completed, nothing to resume")
			return nil
		}
		startURL = cp.NextURL
		if cp.EffectivePageSize > 0 {
			pageSize = cp.EffectivePageSize
		}
		log.InfoWithFields("Resuming crawl from checkpoint", map[string]interface{}{
			"next_url":         startURL,
			"page_size":        pageSize,
			"already_emitted":  cp.TotalEmitted,
			"checkpoint_since": cp.CreatedAt,
		})
	} else {
		startURL, err = loc.PreparePageURL(seedURL, pageSize)
		if err != nil {
			return fmt.Errorf("invalid search URL: %w", err)
		}
		cp, err = cpManager.Create(seedURL, startURL, pageSize)
		if err != nil {
			return fmt.Errorf("failed to create checkpoint: %w", err)
		}
	}

	// stdout is reserved for the manifest; everything else is on stderr
	out := io.Writer(os.Stdout)
	if cfg.Output.ManifestFile != "" {
		mode := os.O_CREATE | os.O_WRONLY
		if resumeCrawl {
			mode |= os.O_APPEND
		} else {
			mode |= os.O_TRUNC
		}
		f, err := os.OpenFile(cfg.Output.ManifestFile, mode, 0644)
		if err != nil {
			return fmt.Errorf("failed to open manifest file: %w", err)
		}
		defer f.Close()
		out = f
	}

	writer := manifest.NewWriter(out, manifest.Options{
		AriaFormat:        cfg.Output.AriaFormat,
		GroupByCollection: cfg.Output.GroupByCollection,
		RootDir:           cfg.Output.RootDirectory,
	}, manifest.FromConfig(&cfg.Filter), log)
	for id := range cp.EmittedIDs {
		writer.MarkEmitted(id)
	}

	client := loc.NewClient(cfg.API.RequestTimeout, log)
	cr := crawler.New(client, crawler.Config{
		RequestInterval: cfg.API.RequestInterval,
		MaxBackoff:      cfg.API.MaxBackoff,
		MaxRetries:      cfg.API.MaxRetries,
	}, log)

	log.InfoWithFields("Starting crawl", map[string]interface{}{
		"url":       startURL,
		"page_size": pageSize,
	})

	handler := func(page *loc.Response, pageURL string) error {
		if cfg.Output.DebugDumpFile != "" {
			if err := os.WriteFile(cfg.Output.DebugDumpFile, page.Raw, 0644); err != nil {
				log.WithError(err).Warn("Failed to write debug dump")
			}
		}
		ids, err := writer.WritePage(page)
		if err != nil {
			return err
		}
		// Record the cursor for the page after this one; when there is no
		// next page the crawl is about to finish anyway.
		next := pageURL
		if page.Pagination.HasNextPage() {
			next = *page.Pagination.Next
		}
		return cpManager.RecordPage(cp, next, cr.EffectivePageSize(), ids)
	}

	if err := cr.Crawl(ctx, startURL, handler); err != nil {
		emitted, skipped := writer.Counts()
		log.ErrorWithFields("Crawl failed", map[string]interface{}{
			"emitted": emitted,
			"skipped": skipped,
		})
		return err
	}

	if err := cpManager.MarkCompleted(cp); err != nil {
		log.WithError(err).Warn("Failed to mark checkpoint completed")
	}

	emitted, skipped := writer.Counts()
	log.InfoWithFields("Crawl completed", map[string]interface{}{
		"emitted": emitted,
		"skipped": skipped,
	})
	return nil
}
