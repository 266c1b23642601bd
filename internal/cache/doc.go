// Package cache stores synthesized caption audio so that reading the same
// caption twice does not re-run the speech engine. It has two levels: an
// in-memory LRU and a zstd-compressed directory on disk that survives
// restarts.
package cache
