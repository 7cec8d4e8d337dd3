// Command genrecast trains the genre classifier and serves predictions.
//
// Subcommands:
//
//	train            ingest, transform and fit; prints accuracy and the report
//	predict          score one track given as flags
//	serve            run the web form, dashboard and JSON API
//	runs             list journaled training runs
//	status           stage health and artifact presence
//	config init      write a sample configuration
//	config validate  load and check the configuration
package main
