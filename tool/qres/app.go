// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

// Package qres defines the logic for the "qres" command-line tool.
//
// The tool encodes files into QRES containers and decodes them back, and can
// describe an existing container or estimate how well a file will compress.
//
//	qres [flags] encode <input> <output>
//	qres [flags] decode <input> <output>
//	qres [flags] info <container>
//	qres [flags] analyze <input>
package qres

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/danjacques/goqres/codec"
	"github.com/danjacques/goqres/container"
	"github.com/danjacques/goqres/support/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes.
const (
	exitSuccess = 0
	exitFailure = 1
	exitUsage   = 2
)

type options struct {
	chunkSize   int
	workers     int
	compression codec.CompressionFlag
	level       int
	noChecksum  bool
	tempDir     string
	verbose     bool
}

func (o *options) addFlags(fs *pflag.FlagSet) {
	o.compression = codec.CompressionFlag(codec.CompressionFlate)

	fs.IntVar(&o.chunkSize, "chunk-size", container.DefaultChunkSize,
		"Raw size of each independently coded chunk, in bytes.")
	fs.IntVar(&o.workers, "workers", 0,
		"Number of chunks to code concurrently. If <= 0, one per CPU.")
	fs.Var(&o.compression, "compression",
		"Entropy scheme to encode with. One of: "+codec.CompressionFlagValues()+".")
	fs.IntVar(&o.level, "level", codec.DefaultLevel,
		fmt.Sprintf("Compression level, 1 through %d, or %d for the scheme's default.", codec.MaxLevel, codec.DefaultLevel))
	fs.BoolVar(&o.noChecksum, "no-checksum", false,
		"Don't record a checksum of the original stream.")
	fs.StringVar(&o.tempDir, "temp-dir", "",
		"Directory to stage outputs in. Defaults to the output's directory.")
	fs.BoolVarP(&o.verbose, "verbose", "v", false,
		"Log debug output and codec metrics.")
}

func (o *options) config(logger logging.L) *container.Config {
	return &container.Config{
		ChunkSize:        o.chunkSize,
		Workers:          o.workers,
		Compression:      o.compression.Value(),
		CompressionLevel: o.level,
		DisableChecksum:  o.noChecksum,
		TempDir:          o.tempDir,
		Logger:           logger,
	}
}

// env is the environment a command runs in.
type env struct {
	opts   *options
	cfg    *container.Config
	logger logging.L
	out    io.Writer
}

type command struct {
	name  string
	args  []string
	usage string
	run   func(e *env, args []string) error
}

var commands = []*command{
	{"encode", []string{"input", "output"}, "Encode a file into a container.", runEncode},
	{"decode", []string{"container", "output"}, "Decode a container back into the original file.", runDecode},
	{"info", []string{"container"}, "Describe a container and verify its layout.", runInfo},
	{"analyze", []string{"input"}, "Profile a file and estimate each scheme's output size.", runAnalyze},
}

func findCommand(name string) *command {
	for _, c := range commands {
		if c.name == name {
			return c
		}
	}
	return nil
}

// Main is the main entry point.
func Main() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run runs the tool with args, writing results to stdout and diagnostics to
// stderr. It returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := pflag.NewFlagSet("qres", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }
	opts.addFlags(fs)

	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return exitSuccess
		}
		return exitUsage
	}

	pos := fs.Args()
	if len(pos) == 0 {
		printUsage(stderr, fs)
		return exitUsage
	}
	cmd := findCommand(pos[0])
	if cmd == nil {
		fmt.Fprintf(stderr, "Unknown command %q.\n\n", pos[0])
		printUsage(stderr, fs)
		return exitUsage
	}
	if len(pos)-1 != len(cmd.args) {
		fmt.Fprintf(stderr, "Usage: qres [flags] %s <%s>\n", cmd.name, strings.Join(cmd.args, "> <"))
		return exitUsage
	}

	zl := newLogger(stderr, opts.verbose)
	defer func() { _ = zl.Sync() }()
	logger := logging.Zap(zl)

	var reg *prometheus.Registry
	if opts.verbose {
		reg = prometheus.NewRegistry()
		codec.RegisterMonitoring(reg)
		container.RegisterMonitoring(reg)
	}

	e := env{
		opts:   &opts,
		cfg:    opts.config(logger),
		logger: logger,
		out:    stdout,
	}
	err := cmd.run(&e, pos[1:])
	if reg != nil {
		logMetrics(logger, reg)
	}
	if err != nil {
		logger.Errorf("Command %q failed: %s", cmd.name, err)
		return exitFailure
	}
	return exitSuccess
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintln(w, "Usage: qres [flags] <command> <args...>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-8s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprint(w, fs.FlagUsages())
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	level := zapcore.InfoLevel
	if verbose {
		encCfg = zap.NewDevelopmentEncoderConfig()
		level = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
	return zap.New(core)
}

// logMetrics logs every counter gathered from reg.
func logMetrics(logger logging.L, reg prometheus.Gatherer) {
	mfs, err := reg.Gather()
	if err != nil {
		logger.Warnf("Couldn't gather metrics: %s", err)
		return
	}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			labels := make([]string, 0, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			logger.Debugf("Metric %s{%s} = %v", mf.GetName(), strings.Join(labels, ","), m.GetCounter().GetValue())
		}
	}
}
