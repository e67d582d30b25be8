// Package persist turns frame payloads into artifacts on disk.
//
// Artifacts are named by sequence number (frame_000001.raw, frame_000001.png)
// so a directory listing sorts in capture order. Raw artifacts are exact
// payload dumps; processed artifacts are 8-bit RGB images encoded as PNG or
// deflate-compressed TIFF.
package persist
