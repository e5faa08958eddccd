// Package detection connects the moderation pipeline to its two model
// collaborators: a person locator and a region-level anatomical classifier.
//
// Models are not linked into this process. They run as external commands
// that read an image path and print JSON, or their output is replayed from a
// label file recorded earlier. Both forms satisfy the same interfaces, so the
// pipeline never knows which one it is talking to.
//
// # Interfaces
//
//   - PersonLocator: finds people in a full frame. Boxes are absolute and
//     already clipped to the frame.
//   - RegionDetector: finds anatomical regions inside one person ROI. Boxes
//     are returned in the ROI's own coordinates and in whatever encoding the
//     model uses; the anatomy package resolves them.
//
// # Wire Format
//
// Commands print a JSON array, or an object holding the array under
// "detections", "persons" or "predictions". Each element may spell its fields
// in any of these ways:
//
//	label | class | class_name
//	score | confidence
//	box   | bbox
//
// Unknown labels are passed through untouched. Elements whose box does not
// hold four numbers are dropped.
//
// # Availability
//
// Constructors check that the command exists before returning. A missing
// collaborator is reported as ErrDetectorUnavailable, so callers fail before
// the first frame is processed.
package detection
