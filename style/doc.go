// Package style defines the layout properties a host attaches to a node.
//
// A Style is plain data. The engine reads it during layout; the bridge
// only moves it across the host boundary. Lengths are pixels, percentages
// use a 0-100 scale, and auto defers to content or flex sizing.
//
// # Host Format
//
// Hosts exchange styles as JSON objects with camelCase keys:
//
//	{
//	  "flexDirection": "row",
//	  "justifyContent": "space-between",
//	  "size": {"width": 300, "height": "50%"},
//	  "padding": {"left": 4, "right": 4, "top": 0, "bottom": 0},
//	  "flexGrow": 1
//	}
//
// Missing keys keep their Default values. Unknown keys, wrong types and
// out-of-range values fail with a serialization_failure error whose Path
// names the offending property.
//
// # Available Space
//
// Layout is computed under an available size per axis: a definite pixel
// amount, min-content, or max-content. ParseAvailableSize accepts the host
// form {"width": 300, "height": "max-content"}.
package style
