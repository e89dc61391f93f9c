// Notesserver serves the notes kept in a directory over HTTP, one file per
// note, named after the note with a ".txt" extension. See package
// github.com/nicolagi/notes/server for the routes.
//
// Host, port and directory are given with -h, -p and -c, or in a configuration
// file passed with --config. The configuration file is relaxed JSON (keys need
// not be quoted, commas at the end of a line are optional), for example:
//
//	{
//		host: "localhost"
//		port: 8080
//		cache: "$HOME/lib/notes"
//		debug: true
//		rate_limit: 50
//		rate_burst: 20
//		serialize_writes: true
//	}
//
// Flags take precedence over the configuration file.
package main // import "github.com/nicolagi/notes/cmd/notesserver"
