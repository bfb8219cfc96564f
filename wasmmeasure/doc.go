// Package wasmmeasure runs leaf measurement in a WebAssembly module.
//
// The module is a core wasm binary exporting
//
//	measure(node i64, knownW f32, knownH f32, availW f32, availH f32) -> (f32, f32)
//
// Unknown known dimensions are passed as NaN. Available space is the
// pixel amount when definite, -1 for min-content and -2 for max-content.
// The results are the content width and height.
//
// Modules may import the "layout" host module:
//
//	context_length(node i64) -> i32
//
// which returns the byte length of the node's string context, or -1 if it
// has none. It is only meaningful during a measure call.
package wasmmeasure
