// Command reelcast drives the talking-video pipeline from the terminal:
// full runs, single-step re-runs, standalone scripts, voice listings and
// project inspection against the configured store.
package main
