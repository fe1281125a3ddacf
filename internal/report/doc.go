// Package report renders stability results for the terminal and exports
// them as JSON. It only reads results; nothing here feeds back into the
// analysis.
package report
