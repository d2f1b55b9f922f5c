// Package pipeline runs the section producers of a project map in sequence.
//
// Each section of the map is produced by one Step. Steps are independent:
// none reads the output of another, so the order in which they are added
// only decides the key order of the written file.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. Sections can be enabled or disabled without touching the run loop
// 2. Logging, progress reporting and cancellation are handled in one place
// 3. A failing section is isolated and degrades to null instead of aborting
//
// Steps run one after another on the calling goroutine. The accumulating
// ProjectMap is the only shared state and is never touched concurrently.
package pipeline
