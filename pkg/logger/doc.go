// Package logger provides structured logging for the crawler.
//
// It wraps zerolog behind a small Logger interface with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output on stderr (stdout is reserved for the manifest)
// - Optional file output
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "locimages/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{Level: "info"}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	log := logger.GetLogger()
//	log.WithField("url", pageURL).Info("fetching page")
//	log.WithError(err).Error("crawl failed")
package logger
