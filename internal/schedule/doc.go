// Package schedule plans video redaction in time.
//
// Detection runs on a sparse subset of frames. From the timestamps of the
// frames found non-SAFE, Build produces merged, margin-padded intervals; every
// frame whose timestamp falls in one of them is redacted whatever its own
// detection said. An Interpolator supplies observations for frames that were
// never run through the detector.
//
// Interval construction needs every detection timestamp of the video, so
// scheduling is the boundary between the detection pass and the redaction pass.
package schedule
