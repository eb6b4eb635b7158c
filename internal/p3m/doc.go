// Package p3m evaluates the reciprocal-space part of the Ewald sum on a
// regular mesh.
//
// Wave vectors are k = n/L (no factor 2π). Charges are spread with
// B-spline assignment, transformed with a 3-D FFT, scaled by an optimized
// influence function that compensates aliasing, differentiated in k-space
// with the discrete operator of NewDOp and gathered back with the same
// assignment weights.
package p3m
