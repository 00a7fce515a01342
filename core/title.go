package core

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/huangsam/liftwatch/schema"
)

// DefaultTitleLayout formats period titles like "May 2024".
const DefaultTitleLayout = "January 2006"

// TitleData is the value passed to a job's title template.
type TitleData struct {
	Job     string
	Index   int
	Period  time.Time
	Borough schema.Borough
	Since   time.Time
	Until   time.Time
	Now     time.Time
}

// RenderTitle executes the title template. An empty template falls back to the period
// month, then to the job description or name.
func RenderTitle(job schema.ChartJob, data TitleData) (string, error) {
	if strings.TrimSpace(job.Title) == "" {
		switch {
		case job.Split == schema.SplitBorough && data.Borough != "":
			return fmt.Sprintf("%s: %s", defaultJobTitle(job), data.Borough), nil
		case !data.Period.IsZero() && job.Split == schema.SplitPeriod:
			return data.Period.Format(DefaultTitleLayout), nil
		default:
			return defaultJobTitle(job), nil
		}
	}

	tmpl, err := template.New(job.Name).Option("missingkey=error").Parse(job.Title)
	if err != nil {
		return "", fmt.Errorf("invalid title template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("error rendering title: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func defaultJobTitle(job schema.ChartJob) string {
	if job.Description != "" {
		return job.Description
	}
	return job.Name
}
