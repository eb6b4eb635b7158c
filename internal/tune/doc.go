// Package tune chooses P3M parameters for a target force accuracy. It walks
// a grid of cutoffs, mesh sizes and assignment orders, derives the
// splitting parameter from the real-space error for each cutoff, asks an
// accuracy estimator for the mesh error and keeps the cheapest candidate
// that meets the target.
package tune
