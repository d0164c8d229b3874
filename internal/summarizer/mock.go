package summarizer

import (
	"context"
	"regexp"
	"strings"
)

// topicBucket pairs a subject pattern with its canned summary. Buckets
// are checked in order; the first match wins.
type topicBucket struct {
	pattern *regexp.Regexp
	summary string
}

var buckets = []topicBucket{
	{
		pattern: regexp.MustCompile(`meeting|conference|discussion`),
		summary: "• Meeting scheduled for project discussion.\n• Attendance required for all team members.\n• Prepare progress updates before the meeting.\n• Please review the agenda before attending.",
	},
	{
		pattern: regexp.MustCompile(`report|quarterly|review|budget`),
		summary: "• Quarterly report is due by end of week.\n• Include sales figures and customer metrics.\n• Send draft for review before final submission.\n• Financial data must be verified by accounting.",
	},
	{
		pattern: regexp.MustCompile(`project|proposal|plan`),
		summary: "• New project proposal requires immediate attention.\n• Timeline estimation needed by Friday.\n• Resource allocation should be discussed with department heads.\n• Client is expecting preliminary feedback next week.",
	},
	{
		pattern: regexp.MustCompile(`website|update|tech|maintenance`),
		summary: "• Website updates scheduled for this weekend.\n• Backup systems will be tested during maintenance.\n• Expected downtime is approximately 2 hours.\n• Users have been notified of the planned maintenance.",
	},
	{
		pattern: regexp.MustCompile(`training|session|learn|tool`),
		summary: "• Training session scheduled for new company tools.\n• All departments expected to attend.\n• Pre-training materials have been shared via email.\n• Please prepare questions in advance.",
	},
	{
		pattern: regexp.MustCompile(`welcome|team|hr|holiday|schedule`),
		summary: "• Welcome information for new team members.\n• Company policies and guidelines attached.\n• Schedule a meeting with HR for benefits enrollment.\n• Office tour scheduled for Friday morning.",
	},
	{
		pattern: regexp.MustCompile(`client|feedback|customer|release`),
		summary: "• Client feedback regarding the latest product release.\n• Overall positive response with minor concerns.\n• Development team should address UI issues.\n• Follow-up meeting with client scheduled for next week.",
	},
}

const defaultSummary = "• Important email requires your attention.\n• Action items need to be addressed within 24 hours.\n• Coordinate with relevant team members as needed.\n• Reply to confirm receipt of this information."

// Mock classifies the lower-cased subject against fixed keyword sets
// and returns a canned four-bullet summary. Pure function of the
// subject; it never fails.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string {
	return "mock"
}

func (m *Mock) Summarize(_ context.Context, subject, _ string, _ int) (string, error) {
	lower := strings.ToLower(subject)
	for _, b := range buckets {
		if b.pattern.MatchString(lower) {
			return b.summary, nil
		}
	}
	return defaultSummary, nil
}
