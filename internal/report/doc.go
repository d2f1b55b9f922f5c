// Package report renders a project map.
//
// This package contains writers for different output formats:
//   - JSONWriter: the map itself, indented with four spaces
//   - MarkdownWriter: a digest of the same map for people
//   - SummaryWriter: a one line per section overview for the terminal
//
// WriteFile stores a map atomically so an interrupted run never leaves a
// partial file behind.
package report
