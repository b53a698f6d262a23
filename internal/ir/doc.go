// Package ir provides the compiled intermediate representation produced by
// the call compiler, the path scope tree, and the canonical value encoding
// used for resolution records.
//
// ir imports only schema; every other internal package may import ir.
//
// Key design constraints:
//   - Expression nodes are a sealed set (Expr); every compiled expression is
//     wrapped in a *Set that carries its PathID and scope.
//   - Record values (IRValue) have no floats and no null, so canonical JSON
//     and the hashes over it are stable across platforms.
//   - All canonical output is RFC 8785 with NFC-normalised strings.
package ir
