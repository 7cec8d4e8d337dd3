// Package runlog journals training runs in SQLite.
//
// Each pipeline invocation records a row when it starts, updates the current
// stage as it advances and closes the row as completed (with split sizes and
// test accuracy) or failed (with the error kind and message). The journal is
// an audit trail only: artifacts are overwritten in place by every run, so
// older rows describe models that no longer exist on disk.
//
// Schema changes are added as new files under migrations/; applied versions
// are tracked in schema_migrations.
package runlog
