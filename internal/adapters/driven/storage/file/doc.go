// Package file provides a shared-directory BlobStore.
//
// Each blob is a JSON file named after its key. Writes go through a
// temporary file and a rename, so a reader in another process sees either
// the old or the new blob. Watch reports writes made by other processes
// using fsnotify on the directory.
//
// # Data Location
//
// By default, blobs are stored in ~/.citetrack/data
package file
