// Package cli implements the dvcurate command line.
//
// Commands
//
//	upload    upload the files listed in a manifest and register them
//	history   list recorded upload runs
//	cleanup   delete stored objects of runs whose registration failed
//
// Configuration is loaded by the config package before any command runs;
// flags given on the command line override it.
package cli
