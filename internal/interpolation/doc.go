// Package interpolation spreads particle quantities onto a regular mesh and
// gathers mesh fields back, using cardinal B-spline weights of order 1 to 7.
//
// For every particle the assignment support is an order³ cube whose lower
// left corner is the nearest mesh point minus order/2 per axis. A Kernel is
// called once per (particle, mesh point) with the product of the three
// per-axis weights; the weights of one particle sum to one.
package interpolation
