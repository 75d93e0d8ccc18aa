/*
Package celeste converts Celeste graphics between the run-length encoded DATA
format and common image formats, either one stream at a time or across a whole
directory tree.
*/
package celeste

import (
	"io"
	"log"
)

const (
	defaultDepth = 32
	maxColors    = 256
)

// Options configures a Converter. The zero value converts sequentially with
// no manifest.
type Options struct {
	// Jobs is the number of files converted at once, defaults to 1
	Jobs int
	// Depth limits how deep directories are scanned, defaults to 32
	Depth int
	// Colors reduces exported images to a palette of at most this many
	// colors, up to 256, when greater than zero
	Colors int
	// Manifest records every conversion when set
	Manifest *Manifest
	// Incremental skips files the manifest shows as already converted
	Incremental bool
	// Progress is notified as a batch proceeds, defaults to logging
	Progress Progress
}

// Converter converts single streams and directory trees.
type Converter struct {
	logger   *log.Logger
	progress Progress
	options  Options
}

// New returns a Converter logging to logger, which may be nil.
func New(logger *log.Logger, options Options) *Converter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if options.Jobs < 1 {
		options.Jobs = 1
	}
	if options.Depth < 1 {
		options.Depth = defaultDepth
	}
	if options.Colors > maxColors {
		options.Colors = maxColors
	}

	progress := options.Progress
	if progress == nil {
		progress = LogProgress(logger)
	}

	return &Converter{
		logger:   logger,
		progress: progress,
		options:  options,
	}
}
