// Package alert implements the proximity-alert core: detection ingestion,
// the subscriber fan-out engine, and the alert persistence contract.
package alert
