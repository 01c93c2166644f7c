// Package matching implements multi-scale template matching.
//
// # Algorithm
//
// For each scale factor, in order, the reference image is resized by that
// factor and slid over every placement inside the region. Each placement is
// scored with zero-mean normalized cross-correlation over the three colour
// channels:
//
//	score(u,v) = Σ T'(x,y,c)·I'(u+x,v+y,c) / sqrt(Σ T'² · Σ I'²)
//
// where T' and I' are the template and the covered window with their
// per-channel means removed. Window means and energies come from integral
// images, so only the cross term costs O(template area) per placement.
// Scores are clamped into [0,1]; a flat template or flat window scores 0.
//
// The best placement of each scale is the first maximum in row-major order.
// Across scales the highest score wins, and on a tie the earlier scale wins.
// The overall best is returned only when its score is strictly greater than
// the threshold.
//
// Scales whose resized template would have a non-positive dimension, or would
// not fit inside the region, are skipped.
//
// # Thread Safety
//
// A Matcher may be used from multiple goroutines; resized templates are
// cached per (template, scale) behind a mutex.
package matching
