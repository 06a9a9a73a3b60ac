// Package mem provides aligned allocation for arena backing buffers and
// unsafe typed views over arena regions.
package mem
