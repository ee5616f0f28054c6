package report

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Sayam753/SendToS3/internal/retention"
)

const timeLayout = "2006-01-02 15:04:05"

// Subject returns the email subject for the run.
func (r *Report) Subject() string {
	return fmt.Sprintf("AWS backup for %s dated: %s", r.Site, r.StartedAt.Format("2006-01-02"))
}

// Finalize stamps the end time and renders the report text.
func (r *Report) Finalize(now time.Time) string {
	r.Finish(now)
	return r.Render()
}

// Render returns the report text without changing the report.
func (r *Report) Render() string {
	p := message.NewPrinter(language.English)
	counts := r.Counts()

	var b strings.Builder
	fmt.Fprintf(&b, "Backup report for site %s (host %s)\n", r.Site, r.Hostname)
	fmt.Fprintf(&b, "Run ID:   %s\n", r.ID)
	fmt.Fprintf(&b, "Bucket:   %s\n", r.Bucket)
	fmt.Fprintf(&b, "Started:  %s\n", r.StartedAt.Format(timeLayout))
	if !r.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "Finished: %s\n", r.FinishedAt.Format(timeLayout))
		fmt.Fprintf(&b, "Elapsed:  %s\n", r.Elapsed().Round(time.Second))
	}
	if r.aborted != "" {
		fmt.Fprintf(&b, "\nRun aborted before any upload: %s\n", r.aborted)
	}

	b.WriteString("\nSummary\n")
	fmt.Fprintf(&b, "  Uploaded: %d\n", counts.Success)
	fmt.Fprintf(&b, "  Failed:   %d\n", counts.Failure)
	fmt.Fprintf(&b, "  Deleted:  %d\n", counts.Deleted)
	b.WriteString(p.Sprintf("  Bytes:    %d\n", counts.Bytes))

	b.WriteString("\nTechnologies\n")
	for _, s := range r.summaries {
		fmt.Fprintf(&b, "  [%s] %s\n", statusLabel(*s), summaryLine(*s))
	}
	fmt.Fprintf(&b, "  Total Technologies: %d\n", len(r.summaries))
	fmt.Fprintf(&b, "  Successfully uploaded Technologies: %d\n", len(r.summaries)-r.Issues())
	fmt.Fprintf(&b, "  Issues in %d technologies\n", r.Issues())

	if len(r.outcomes) > 0 {
		b.WriteString("\nFiles\n")
		for _, o := range r.outcomes {
			b.WriteString(p.Sprintf("  %-7s %s -> %s (%d bytes)", strings.ToUpper(string(o.Status)), o.LocalPath, o.RemoteKey, o.Size))
			if o.DeletedLocally {
				b.WriteString(" [deleted locally]")
			}
			b.WriteString("\n")
			if o.ErrorDetail != "" {
				fmt.Fprintf(&b, "          error: %s\n", o.ErrorDetail)
			}
		}
	}

	if len(r.notes) > 0 {
		b.WriteString("\nNotes\n")
		for _, n := range r.notes {
			level := string(n.Level)
			if n.Kind != "" {
				level += " (" + n.Kind + ")"
			}
			if n.Technology == "" {
				fmt.Fprintf(&b, "  %-7s %s\n", level, n.Message)
				continue
			}
			fmt.Fprintf(&b, "  %-7s %s: %s\n", level, n.Technology, n.Message)
		}
	}

	if r.log.Len() > 0 {
		b.WriteString("\nRun log\n")
		b.Write(r.log.Bytes())
	}

	return b.String()
}

func statusLabel(s TechnologySummary) string {
	if s.OK() {
		return "OK"
	}
	return "ISSUE"
}

// summaryLine mirrors the per-technology wording operators already grep for.
func summaryLine(s TechnologySummary) string {
	switch {
	case s.Skipped:
		return fmt.Sprintf("Skipped %s for %s: directory could not be read", s.Path, s.Name)
	case s.Failed == 0 && s.Uploaded == 0:
		return fmt.Sprintf("No files found with given modification interval from %s for %s", s.Path, s.Name)
	case s.Failed == 0 && s.Undeletable == 0 && s.Action == retention.ActionDelete:
		return fmt.Sprintf("Successfully uploaded %d files from %s for %s. Successfully deleted %d files", s.Uploaded, s.Path, s.Name, s.Deleted)
	case s.Failed == 0 && s.Undeletable == 0:
		return fmt.Sprintf("Successfully uploaded %d files from %s for %s. delete_option='%s'", s.Uploaded, s.Path, s.Name, s.Action)
	case s.Failed == 0:
		return fmt.Sprintf("Successfully uploaded %d files from %s for %s but error in deleting %d files", s.Uploaded, s.Path, s.Name, s.Undeletable)
	case s.Action == retention.ActionDelete:
		return fmt.Sprintf("For %s: Successful uploading of %d files, Unsuccessful uploading of %d files, Undeletable files %d", s.Name, s.Uploaded, s.Failed, s.Undeletable)
	default:
		return fmt.Sprintf("For %s: Successful uploading of %d files, Unsuccessful uploading of %d files, delete_option='%s'", s.Name, s.Uploaded, s.Failed, s.Action)
	}
}
