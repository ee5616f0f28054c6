package constants

// Cron constants for the crontab entry printed by `sendtos3 cron`.

// CronDefaultSchedule runs the backup every night at 23:45.
const CronDefaultSchedule = "45 23 * * *"

// CronPreviewRuns is how many upcoming runs `sendtos3 cron` lists.
const CronPreviewRuns = 3
