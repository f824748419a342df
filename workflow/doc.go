// Package workflow holds the pure editorial engines: the manuscript status
// machine, the per-reviewer assignment machine, the publication gate and the
// submission wizard gate. Nothing here touches storage; callers run these
// functions inside whatever atomic unit their repository provides.
package workflow
