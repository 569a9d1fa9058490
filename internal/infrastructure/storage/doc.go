// Package storage keeps prepared label files on the local file system and optionally mirrors
// them to S3-compatible object storage.
package storage
