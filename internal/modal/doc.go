// Package modal extracts eigenvalues, damping ratios, frequencies and
// participation factors from a system state matrix.
//
// Conventions:
//   - one mode per eigenvalue with a non-negative imaginary part, so
//     complex pairs appear once and real eigenvalues appear once;
//   - damping ratio -Re/|λ| for every mode, real ones included (±1);
//   - participation factor of a state is the magnitude of its entry in
//     the unit-norm right eigenvector.
package modal
