// Package cli implements ice-candidate command.
package cli

import (
	"bufio"
	"encoding/json"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/valyala/bytebufferpool"
	"gopkg.in/yaml.v3"

	"github.com/gortc/icecandidate/ffi"
	"github.com/gortc/icecandidate/internal/config"
	"github.com/gortc/icecandidate/sdp"
)

// ErrFailed is returned in strict mode if any candidate failed to parse.
var ErrFailed = errors.New("some candidates failed to parse")

// Stats of single run.
type Stats struct {
	Parsed int
	Failed int
}

// Runner parses candidates and writes records to Out.
type Runner struct {
	Config *config.Config
	Log    logrus.FieldLogger
	Out    io.Writer
}

// maxLineLen bounds single input line, including line ending.
const maxLineLen = 64 * 1024

// Run parses every non-empty line of in. Line endings are stripped.
// Lines longer than maxLineLen are counted as failed and skipped.
func (r *Runner) Run(in io.Reader) (Stats, error) {
	var (
		stats Stats
		line  int
	)
	br := bufio.NewReaderSize(in, maxLineLen)
	for {
		v, err := br.ReadSlice('\n')
		if err == bufio.ErrBufferFull {
			line++
			stats.Failed++
			r.Log.WithField("line", line).Warnf("line exceeds %d bytes", maxLineLen)
			if err = skipLine(br); err == nil {
				continue
			}
		} else if len(v) > 0 {
			line++
			if v = trimLine(v); len(v) > 0 {
				if errHandle := r.handle(r.Log.WithField("line", line), v, &stats); errHandle != nil {
					return stats, errHandle
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return stats, errors.Wrap(err, "failed to read input")
		}
	}
	return stats, r.result(stats)
}

// skipLine discards the rest of current line.
func skipLine(br *bufio.Reader) error {
	for {
		if _, err := br.ReadSlice('\n'); err != bufio.ErrBufferFull {
			return err
		}
	}
}

func trimLine(v []byte) []byte {
	if n := len(v); n > 0 && v[n-1] == '\n' {
		v = v[:n-1]
	}
	if n := len(v); n > 0 && v[n-1] == '\r' {
		v = v[:n-1]
	}
	return v
}

// RunArgs parses each argument as candidate.
func (r *Runner) RunArgs(args []string) (Stats, error) {
	var stats Stats
	for i, arg := range args {
		if err := r.handle(r.Log.WithField("arg", i+1), []byte(arg), &stats); err != nil {
			return stats, err
		}
	}
	return stats, r.result(stats)
}

func (r *Runner) result(stats Stats) error {
	if r.Config.Strict && stats.Failed > 0 {
		return errors.Wrapf(ErrFailed, "%d of %d", stats.Failed, stats.Failed+stats.Parsed)
	}
	return nil
}

// handle returns only output errors, parse failures are counted.
func (r *Runner) handle(log logrus.FieldLogger, v []byte, stats *Stats) error {
	c, err := sdp.ParseAttribute(v)
	if err != nil {
		stats.Failed++
		log.WithError(err).Warnf("failed to parse %q", v)
		return nil
	}
	rec, err := ffi.Marshal(c)
	if err != nil {
		stats.Failed++
		log.WithError(err).Warn("failed to marshal candidate")
		return nil
	}
	stats.Parsed++
	log.WithFields(logrus.Fields{
		"foundation": rec.Foundation,
		"type":       rec.CandidateType,
	}).Debug("parsed")
	return r.write(rec)
}

func (r *Runner) write(rec *ffi.Record) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	switch r.Config.Format {
	case config.FormatYAML:
		if _, err := buf.WriteString("---\n"); err != nil {
			return err
		}
		e := yaml.NewEncoder(buf)
		e.SetIndent(2)
		if err := e.Encode(rec); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
		if err := e.Close(); err != nil {
			return errors.Wrap(err, "failed to encode yaml")
		}
	default:
		if err := json.NewEncoder(buf).Encode(rec); err != nil {
			return errors.Wrap(err, "failed to encode json")
		}
	}
	if _, err := r.Out.Write(buf.B); err != nil {
		return errors.Wrap(err, "failed to write record")
	}
	return nil
}

func openInput(name string, stdin io.Reader) (io.Reader, func() error, error) {
	if name == "-" {
		return stdin, func() error { return nil }, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to open input")
	}
	return f, f.Close, nil
}

// NewCommand returns root command of ice-candidate.
func NewCommand() *cobra.Command {
	var (
		v       = viper.New()
		cfgFile string
	)
	cmd := &cobra.Command{
		Use:   "ice-candidate [candidate ...]",
		Short: "Parse ICE candidate attributes (RFC 5245)",
		Long: `Parses ICE candidate attributes given as arguments or, if none,
read one per line from input, and prints them as JSON or YAML records.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			log := logrus.New()
			log.SetOutput(cmd.ErrOrStderr())
			log.SetLevel(cfg.Level())
			r := &Runner{
				Config: cfg,
				Log:    log,
				Out:    cmd.OutOrStdout(),
			}
			var stats Stats
			if len(args) > 0 {
				stats, err = r.RunArgs(args)
			} else {
				in, closeIn, errOpen := openInput(cfg.Input, cmd.InOrStdin())
				if errOpen != nil {
					return errOpen
				}
				stats, err = r.Run(in)
				if errClose := closeIn(); errClose != nil {
					log.WithError(errClose).Warn("failed to close input")
				}
			}
			log.WithFields(logrus.Fields{
				"parsed": stats.Parsed,
				"failed": stats.Failed,
			}).Info("done")
			return err
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (json, yaml or toml)")
	flags.StringP("input", "i", "-", `file with one candidate per line, "-" for stdin`)
	flags.StringP("format", "f", config.FormatJSON, "output format: json or yaml")
	flags.Bool("strict", false, "exit with error if any candidate fails to parse")
	flags.String("log-level", logrus.InfoLevel.String(), "log level")
	for _, name := range []string{"input", "format", "strict", "log-level"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}
	return cmd
}
