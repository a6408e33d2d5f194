// Package scheduler posts recurring notifications from config-defined
// cron jobs into the dispatch pipeline.
package scheduler
