// Package imaging provides the image I/O and geometry helpers used by the
// moderation pipeline and the MCP tools.
//
// It covers decoding (PNG, JPEG, GIF, WebP, with EXIF orientation applied),
// caching, saving, person ROI expansion and cropping, and a debug overlay that
// draws detections over an image. All operations work with standard Go
// image.Image types and use a coordinate system where (0,0) is at the top-left
// corner, X increases rightward, and Y increases downward.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based. For regions, (x1,y1) is
// inclusive (top-left) and (x2,y2) is exclusive (bottom-right), matching
// anatomy.Box and image.Rectangle.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their inputs, so they can be called
// concurrently on shared images.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Crop regions outside image bounds
//   - Empty crop regions
//   - File I/O errors during image loading
//   - Encoding errors during image output
//
// # Performance Considerations
//
// For repeated operations on the same image, use ImageCache to avoid redundant
// disk reads. Large images may consume significant memory when cached.
// Consider using Evict() or Clear() to manage memory for long-running processes.
package imaging
