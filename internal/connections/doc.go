// Package connections provides implementations of the Connection interface
// for various sites. Each connection knows how to decide whether it applies
// to a URL, extract records from the matching pages, and embed the finished
// space back into them.
//
// Connections are registered with the Registry at startup.
package connections
