package constants

// Config messages
const (
	// MsgConfigLoadError is the error message when configuration loading fails.
	MsgConfigLoadError = "❌ Failed to load configuration: %v\n"

	// MsgConfigValidationError is the message when configuration validation fails.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValid is the message when configuration is successfully loaded and validated.
	MsgConfigValid = "✅ Configuration loaded"

	// MsgConfigValidatePrefix is the prefix for configuration validation errors.
	MsgConfigValidatePrefix = "  - %v\n"

	// MsgEnvLoadError is the error message when the .env file cannot be loaded.
	MsgEnvLoadError = "❌ Failed to load env file: %v\n"
)

// Run messages
const (
	// MsgRunFinished is printed after the report has been sent.
	MsgRunFinished = "Backup run %s finished: %d uploaded, %d failed, %d deleted\n"
)

// Plan messages
const (
	// MsgPlanHeader is the header of the plan listing.
	MsgPlanHeader = "Files that would be uploaded to s3://%s:\n"

	// MsgPlanTechnology is the per-technology line of the plan listing.
	MsgPlanTechnology = "\n[%s] %s (prefix %s, last %d days, action %s)\n"

	// MsgPlanCutoff shows the oldest modification time inside the window.
	MsgPlanCutoff = "  modified since %s\n"

	// MsgPlanFile is one planned upload.
	MsgPlanFile = "  %s -> %s\n"

	// MsgPlanSkipped is printed when a technology directory cannot be listed.
	MsgPlanSkipped = "  skipped: %v\n"

	// MsgPlanNone is printed when a technology has no candidates.
	MsgPlanNone = "  (no files in window)\n"

	// MsgPlanTotal is the footer of the plan listing.
	MsgPlanTotal = "\nTotal: %d file(s)\n"
)

// Cron messages
const (
	// MsgCronHeader introduces the crontab entry.
	MsgCronHeader = "Add this line to the crontab of the backup user (crontab -e):\n\n"

	// MsgCronNextRuns introduces the preview of upcoming runs.
	MsgCronNextRuns = "\nNext runs:\n"

	// MsgCronRun is one upcoming run.
	MsgCronRun = "  %s\n"
)
