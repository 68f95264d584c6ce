// Package cli provides the interactive cloudservice command-line client.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// Commands:
//
//	login                      prompt for credentials and obtain a token
//	logout                     revoke the token
//	upload <path> [name]       upload a local file (hash = sha256 of content)
//	download <name> [path]     download a file into the download directory
//	list [limit]               list files (default limit 100)
//	rename <old> <new>         rename a file
//	delete <name>              delete a file
//	exit | quit                leave the program
package cli
