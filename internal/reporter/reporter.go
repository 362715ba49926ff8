package reporter

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/the-dev-tools/jsonflow/internal/model"
	"github.com/the-dev-tools/jsonflow/pkg/flow/runner"
	"github.com/the-dev-tools/jsonflow/pkg/model/mflow"
)

type FlowStartInfo struct {
	FlowID     string
	FlowName   string
	TotalNodes int
	NodeNames  []string
}

type NodeStatusEvent struct {
	FlowID   string
	FlowName string
	Status   runner.FlowNodeStatus
}

type Reporter interface {
	HandleFlowStart(info FlowStartInfo)
	HandleNodeStatus(event NodeStatusEvent)
	HandleFlowResult(result model.FlowRunResult)
	Flush() error
}

type ReporterGroup struct {
	reporters      []Reporter
	consoleEnabled bool
}

func (g *ReporterGroup) HandleFlowStart(info FlowStartInfo) {
	for _, reporter := range g.reporters {
		reporter.HandleFlowStart(info)
	}
}

func (g *ReporterGroup) HandleNodeStatus(event NodeStatusEvent) {
	for _, reporter := range g.reporters {
		reporter.HandleNodeStatus(event)
	}
}

func (g *ReporterGroup) HandleFlowResult(result model.FlowRunResult) {
	for _, reporter := range g.reporters {
		reporter.HandleFlowResult(result)
	}
}

func (g *ReporterGroup) Flush() error {
	var firstErr error
	for _, reporter := range g.reporters {
		if err := reporter.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (g *ReporterGroup) HasConsole() bool {
	return g.consoleEnabled
}

type ReportSpec struct {
	Format string
	Path   string
}

const (
	ReportFormatConsole = "console"
	ReportFormatJSON    = "json"
	ReportFormatJUnit   = "junit"
)

func ParseReportSpecs(values []string) ([]ReportSpec, error) {
	specs := make([]ReportSpec, 0, len(values))
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		format, path, _ := strings.Cut(trimmed, ":")
		format = strings.ToLower(strings.TrimSpace(format))
		path = strings.TrimSpace(path)

		switch format {
		case ReportFormatConsole:
			if path != "" {
				return nil, fmt.Errorf("console reporter does not accept a path")
			}
		case ReportFormatJSON, ReportFormatJUnit:
			if path == "" {
				return nil, fmt.Errorf("%s reporter requires a file path", format)
			}
		default:
			return nil, fmt.Errorf("unsupported report format %q", format)
		}

		specs = append(specs, ReportSpec{Format: format, Path: path})
	}

	if len(specs) == 0 {
		specs = append(specs, ReportSpec{Format: ReportFormatConsole})
	}
	return specs, nil
}

type ReporterOptions struct {
	// ShowOutput prints each invocation's status string and error under its row.
	ShowOutput bool
	// Out receives console output; nil means os.Stdout.
	Out io.Writer
}

func NewReporterGroup(specs []ReportSpec, opts ReporterOptions) (*ReporterGroup, error) {
	reporters := make([]Reporter, 0, len(specs))
	hasConsole := false

	for _, spec := range specs {
		var reporter Reporter
		switch spec.Format {
		case ReportFormatConsole:
			out := opts.Out
			if out == nil {
				out = os.Stdout
			}
			reporter = newConsoleReporter(out, opts.ShowOutput)
			hasConsole = true
		case ReportFormatJSON:
			reporter = newJSONReporter(spec.Path)
		case ReportFormatJUnit:
			reporter = newJUnitReporter(spec.Path)
		default:
			return nil, fmt.Errorf("unsupported reporter format %q", spec.Format)
		}
		reporters = append(reporters, reporter)
	}

	return &ReporterGroup{
		reporters:      reporters,
		consoleEnabled: hasConsole,
	}, nil
}

// collector keeps finished results for the file based reporters.
type collector struct {
	mu      sync.Mutex
	results []model.FlowRunResult
}

func (c *collector) HandleFlowStart(FlowStartInfo) {}

func (c *collector) HandleNodeStatus(NodeStatusEvent) {}

func (c *collector) HandleFlowResult(result model.FlowRunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, result)
}

func writeReport(path, kind string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s report directory: %w", kind, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s report: %w", kind, err)
	}
	return nil
}

type jsonReporter struct {
	collector
	path string
}

func newJSONReporter(path string) Reporter {
	return &jsonReporter{path: path, collector: collector{results: make([]model.FlowRunResult, 0)}}
}

func (j *jsonReporter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.path == "" {
		return fmt.Errorf("json reporter missing output path")
	}

	data, err := json.MarshalIndent(j.results, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing json report: %w", err)
	}
	return writeReport(j.path, "json", data)
}

type junitReporter struct {
	collector
	path string
}

func newJUnitReporter(path string) Reporter {
	return &junitReporter{path: path, collector: collector{results: make([]model.FlowRunResult, 0)}}
}

type junitTestSuites struct {
	XMLName xml.Name         `xml:"testsuites"`
	Suites  []junitTestSuite `xml:"testsuite"`
}

type junitTestSuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Failures int             `xml:"failures,attr"`
	Time     string          `xml:"time,attr"`
	Cases    []junitTestCase `xml:"testcase"`
}

type junitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr,omitempty"`
	Time      string        `xml:"time,attr"`
	Failure   *junitFailure `xml:"failure,omitempty"`
}

type junitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr,omitempty"`
	Data    string `xml:",chardata"`
}

func (j *junitReporter) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.path == "" {
		return fmt.Errorf("junit reporter missing output path")
	}

	suites := make([]junitTestSuite, 0, len(j.results))
	for _, result := range j.results {
		suite := junitTestSuite{
			Name:  result.FlowName,
			Tests: len(result.Nodes),
			Time:  fmt.Sprintf("%.6f", result.Duration.Seconds()),
			Cases: make([]junitTestCase, 0, len(result.Nodes)),
		}

		for _, n := range result.Nodes {
			testCase := junitTestCase{
				Name:      n.NodeID,
				ClassName: n.Kind,
				Time:      fmt.Sprintf("%.6f", n.Duration.Seconds()),
			}
			if !strings.EqualFold(n.State, mflow.StringNodeState(mflow.NODE_STATE_SUCCESS)) {
				failureType := n.State
				if failureType == "" {
					failureType = "Failure"
				}
				data := n.Error
				if data == "" {
					data = n.Status
				}
				testCase.Failure = &junitFailure{
					Message: n.Status,
					Type:    failureType,
					Data:    data,
				}
				suite.Failures++
			}
			suite.Cases = append(suite.Cases, testCase)
		}
		suites = append(suites, suite)
	}

	data, err := xml.MarshalIndent(junitTestSuites{Suites: suites}, "", "  ")
	if err != nil {
		return fmt.Errorf("serializing junit report: %w", err)
	}
	data = append([]byte(xml.Header), data...)
	return writeReport(j.path, "junit", data)
}

type consoleReporter struct {
	mu         sync.Mutex
	out        io.Writer
	flows      map[string]*consoleFlowState
	showOutput bool
}

type consoleFlowState struct {
	rowFormat    string
	topBorder    string
	invocations  int
	successCount int
}

func newConsoleReporter(out io.Writer, showOutput bool) Reporter {
	return &consoleReporter{
		out:        out,
		flows:      make(map[string]*consoleFlowState),
		showOutput: showOutput,
	}
}

func flowKey(id, name string) string {
	if id != "" {
		return id
	}
	return name
}

func (c *consoleReporter) HandleFlowStart(info FlowStartInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()

	maxStepNameLen := len("Step")
	for _, name := range info.NodeNames {
		maxStepNameLen = max(maxStepNameLen, len(name))
	}

	tableWidth := 2 + 20 + 3 + maxStepNameLen + 3 + 10 + 3 + 11 + 2
	topBottomBorder := strings.Repeat("=", tableWidth)
	separatorBorder := strings.Repeat("─", tableWidth)
	tableRowFmt := fmt.Sprintf("| %%-20s | %%-%ds | %%-10s | %%-11s |\n", maxStepNameLen)

	title := fmt.Sprintf(" Flow: %s", info.FlowName)
	maxTitle := tableWidth - 2
	if len(title) > maxTitle {
		title = title[:maxTitle-3] + "..."
	}

	fmt.Fprintln(c.out, topBottomBorder)
	fmt.Fprintf(c.out, "|%s%s|\n", title, strings.Repeat(" ", maxTitle-len(title)))
	fmt.Fprintln(c.out, separatorBorder)
	fmt.Fprintf(c.out, tableRowFmt, "Timestamp", "Step", "Duration", "Status")
	fmt.Fprintln(c.out, separatorBorder)

	c.flows[flowKey(info.FlowID, info.FlowName)] = &consoleFlowState{
		rowFormat: tableRowFmt,
		topBorder: topBottomBorder,
	}
}

func (c *consoleReporter) HandleNodeStatus(event NodeStatusEvent) {
	if event.Status.State == mflow.NODE_STATE_RUNNING {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	state, ok := c.flows[flowKey(event.FlowID, event.FlowName)]
	if !ok {
		return
	}

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(c.out, state.rowFormat, timestamp, event.Status.NodeID,
		FormatDuration(event.Status.RunDuration), mflow.StringNodeStateWithIcons(event.Status.State))

	if c.showOutput {
		fmt.Fprintf(c.out, "    [%s] %s\n", event.Status.Kind, event.Status.Status)
		if event.Status.Error != nil && event.Status.Error.Error() != event.Status.Status {
			fmt.Fprintf(c.out, "    error: %v\n", event.Status.Error)
		}
	}

	state.invocations++
	if event.Status.State == mflow.NODE_STATE_SUCCESS {
		state.successCount++
	}
}

func (c *consoleReporter) HandleFlowResult(result model.FlowRunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := flowKey(result.FlowID, result.FlowName)
	state, ok := c.flows[key]
	if !ok {
		return
	}
	delete(c.flows, key)

	fmt.Fprintln(c.out, state.topBorder)
	fmt.Fprintf(c.out, "Flow Duration: %v | Invocations: %d/%d Successful | %s\n",
		FormatDuration(result.Duration), state.successCount, state.invocations, result.Status)
	if result.Error != "" {
		fmt.Fprintf(c.out, "%s\n", result.Error)
	}
}

func (c *consoleReporter) Flush() error {
	return nil
}

// FormatDuration formats a duration for display
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fµs", float64(d.Nanoseconds())/1000)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1000000)
	case d < time.Minute:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.2fm", d.Minutes())
	}
	return fmt.Sprintf("%.2fh", d.Hours())
}
