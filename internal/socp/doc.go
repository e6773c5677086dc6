// Package socp solves second-order cone programs
//
//	minimize    cᵀx
//	subject to  lx ≤ x ≤ ux
//	            bl ≤ A x ≤ bu
//	            x[i0] ≥ ‖(x[i1], …, x[ik])‖₂                      (quadratic cone)
//	            2·x[i0]·x[i1] ≥ ‖(x[i2], …, x[ik])‖₂², x[i0], x[i1] ≥ 0 (rotated cone)
//
// with a log-barrier path-following method. Equality rows (bl = bu) and fixed
// variables (lx = ux) are kept exactly through KKT solves, and a Phase I
// problem finds a strictly feasible starting point when the obvious one is
// not. Problems can be built in Go or loaded from YAML:
//
//	objective: [0, -1, -1]
//	lower: [1, -.inf, -.inf]
//	upper: [1, .inf, .inf]
//	cones:
//	  - type: quadratic
//	    vars: [0, 1, 2]
package socp
