// Package acquisition runs the frame pipeline between a camera and storage.
//
// The camera's delivery goroutine calls Source.OnFrame for every frame. The
// source copies the device buffer into a Snapshot, pushes it onto an
// unbounded Queue and only then hands the buffer back to the camera. A single
// Worker pops snapshots in order and writes them through a Saver.
//
// Controller owns the session lifecycle:
//
//	Created -> Configured -> Running -> Stopped
//
// Configure pins the process to a core, programs the acquisition mode and
// applies the region of interest. Start launches the worker and begins
// streaming. Stop halts delivery, drains the queue and joins the worker.
// A stopped controller cannot be restarted.
package acquisition
