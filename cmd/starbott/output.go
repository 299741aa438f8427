package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Dhanuzh/starbott/internal/api"
	"github.com/Dhanuzh/starbott/internal/apierr"
)

type outputMode int

const (
	modeHuman outputMode = iota
	modeJSON
	modeYAML
)

// printer routes command output. Structured modes write one document per
// result to stdout; human lines are dropped under --quiet.
type printer struct {
	mode    outputMode
	quiet   bool
	verbose bool
	debug   bool
	stdout  io.Writer
	stderr  io.Writer
}

func printerFromFlags(cmd *cobra.Command) *printer {
	flags := cmd.Root().PersistentFlags()
	asJSON, _ := flags.GetBool("json")
	asYAML, _ := flags.GetBool("yaml")
	quiet, _ := flags.GetBool("quiet")
	verbose, _ := flags.GetBool("verbose")
	debug, _ := flags.GetBool("debug")

	p := &printer{quiet: quiet, verbose: verbose, debug: debug, stdout: cmd.OutOrStdout(), stderr: cmd.ErrOrStderr()}
	switch {
	case asJSON:
		p.mode = modeJSON
	case asYAML:
		p.mode = modeYAML
	}
	return p
}

// Structured reports whether --json or --yaml is active.
func (p *printer) Structured() bool { return p.mode != modeHuman }

// Data writes v as a single compact JSON line or a YAML document.
func (p *printer) Data(v any) error {
	switch p.mode {
	case modeYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return apierr.Wrap(apierr.KindGeneric, err, "Failed to encode YAML output: %v", err)
		}
		_, err = p.stdout.Write(data)
		return err
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return apierr.Wrap(apierr.KindGeneric, err, "Failed to encode JSON output: %v", err)
		}
		_, err = fmt.Fprintln(p.stdout, string(data))
		return err
	}
}

// Human prints a line unless output is structured or quiet.
func (p *printer) Human(format string, args ...any) {
	if p.Structured() || p.quiet {
		return
	}
	fmt.Fprintf(p.stdout, format+"\n", args...)
}

// Verbose prints a diagnostic line to stderr under --verbose.
func (p *printer) Verbose(format string, args ...any) {
	if !p.verbose {
		return
	}
	fmt.Fprintf(p.stderr, format+"\n", args...)
}

// Result prints a raw response body in structured modes and calls human
// otherwise.
func (p *printer) Result(resp *api.Response, human func()) error {
	p.Request(resp)
	if p.Structured() {
		return p.Data(resp.JSON)
	}
	human()
	return nil
}

// Request logs the request id and latency of resp under --verbose.
func (p *printer) Request(resp *api.Response) {
	if resp == nil {
		return
	}
	id := resp.RequestID
	if id == "" {
		id = "-"
	}
	p.Verbose("request_id=%s status=%d elapsed_ms=%d", id, resp.Status, resp.Elapsed.Milliseconds())
}

// Error reports a failed command. Structured modes keep stdout parseable.
// Transport failures get a hint pointing at --debug.
func (p *printer) Error(err error) {
	msg := err.Error()
	transport := apierr.Is(err, apierr.KindNetwork) || apierr.Is(err, apierr.KindServer)
	if transport && !strings.HasSuffix(msg, apierr.DebugHint) {
		msg = apierr.WithDebugHint(msg, p.debug)
	}
	if p.Structured() {
		_ = p.Data(map[string]any{
			"error": msg,
			"code":  string(apierr.KindOf(err)),
		})
		return
	}
	w := p.stderr
	if w == nil {
		w = os.Stderr
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
