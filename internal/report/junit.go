package report

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/eomgitae/care-console/internal/models"
)

// JUnit XML schema types

// JUnitTestSuites is the top-level container.
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite maps to one consultation.
type JUnitTestSuite struct {
	XMLName    xml.Name        `xml:"testsuite"`
	Name       string          `xml:"name,attr"`
	Tests      int             `xml:"tests,attr"`
	Failures   int             `xml:"failures,attr"`
	Errors     int             `xml:"errors,attr"`
	Skipped    int             `xml:"skipped,attr"`
	Time       float64         `xml:"time,attr"`
	Timestamp  string          `xml:"timestamp,attr"`
	Properties []JUnitProperty `xml:"properties>property,omitempty"`
	TestCases  []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase maps to one emitted message.
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure carries the compliance finding raised on a message.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr"`
	Body    string `xml:",chardata"`
}

// JUnitProperty is a key-value metadata entry.
type JUnitProperty struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// ConvertToJUnit converts a consultation outcome to JUnit XML. Every message
// is a test case; a message that drew feedback fails with its category.
func ConvertToJUnit(outcome *models.Outcome) *JUnitTestSuites {
	durationSec := outcome.Duration().Seconds()
	name := outcome.ScriptName
	if name == "" {
		name = "consultation"
	}

	feedback := make(map[string]models.Feedback, len(outcome.Feedback))
	for _, fb := range outcome.Feedback {
		feedback[fb.MessageID] = fb
	}

	suite := JUnitTestSuite{
		Name:      fmt.Sprintf("%s/%s", name, outcome.SessionID),
		Tests:     len(outcome.Messages),
		Time:      durationSec,
		Timestamp: outcome.StartedAt.Format(time.RFC3339),
		Properties: []JUnitProperty{
			{Name: "session", Value: outcome.SessionID},
			{Name: "agent", Value: outcome.Agent.Name},
			{Name: "customer", Value: outcome.Customer.Name},
			{Name: "high", Value: fmt.Sprint(outcome.Breakdown.High)},
			{Name: "medium", Value: fmt.Sprint(outcome.Breakdown.Medium)},
			{Name: "low", Value: fmt.Sprint(outcome.Breakdown.Low)},
		},
	}

	for _, m := range outcome.Messages {
		tc := JUnitTestCase{
			Name:      fmt.Sprintf("%s [%s] %s", m.EventID, m.Speaker, truncate(m.Text, 60)),
			Classname: name,
		}
		if fb, ok := feedback[m.ID]; ok {
			tc.Failure = buildFailure(fb)
			suite.Failures++
		}
		suite.TestCases = append(suite.TestCases, tc)
	}

	return &JUnitTestSuites{
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Time:       durationSec,
		TestSuites: []JUnitTestSuite{suite},
	}
}

func buildFailure(fb models.Feedback) *JUnitFailure {
	body := fb.Description
	if fb.SuggestedCorrection != "" {
		body += "\n권장: " + fb.SuggestedCorrection
	}
	if fb.RegulationReference != "" {
		body += "\n근거: " + fb.RegulationReference
	}
	return &JUnitFailure{
		Message: fmt.Sprintf("[%s] %s", fb.Severity.Label(), fb.Category),
		Type:    string(fb.Severity),
		Body:    body,
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

// WriteJUnit writes JUnit XML for the outcome to w.
func WriteJUnit(w io.Writer, outcome *models.Outcome) error {
	data, err := xml.MarshalIndent(ConvertToJUnit(outcome), "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JUnit XML: %w", err)
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteJUnitXML writes JUnit XML to the specified file path.
func WriteJUnitXML(outcome *models.Outcome, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating JUnit report: %w", err)
	}
	if err := WriteJUnit(f, outcome); err != nil {
		f.Close() //nolint:errcheck
		return err
	}
	return f.Close()
}
