// Package imaging provides the core image operations for the bubble-sheet
// pipeline.
//
// This package implements image loading with caching, grayscale conversion,
// Canny edge detection with dilation, Otsu thresholding, ROI cropping, and a
// QA overlay renderer. All operations work with standard Go image.Image
// types and use a coordinate system where (0,0) is at the top-left corner,
// X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel)
//   - Y: vertical position (0 = topmost pixel)
//
// ROIs are given as (x, y, w, h) with the origin at the ROI's top-left.
//
// # Thread Safety
//
// The Cache type is safe for concurrent use. Individual image operations
// are stateless and can be called concurrently on different images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as out-of-bounds regions
// and file I/O failures during loading. Pure pixel transforms that cannot
// fail return their result directly.
package imaging
