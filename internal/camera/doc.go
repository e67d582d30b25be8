// Package camera defines the device boundary of the acquisition node.
//
// # Overview
//
// A [Link] is an open camera handle. Configuration happens through a small set of
// typed feature accessors addressed by GenICam-style names (see features.go), and
// streaming happens through continuous delivery: the device owns a pool of frame
// buffers, fills them on its own goroutine, and hands each completed [Frame] to the
// registered [FrameCallback]. The callback must return the frame with
// [Link.QueueFrame] so the buffer can be reused.
//
// Frame buffers belong to the device. Once a frame has been queued back, the device
// may overwrite its memory at any moment, so callers that need the pixels later must
// copy them first.
//
// # Backends
//
// [Simulated] is an in-process device with the same contract: a fixed buffer pool,
// its own delivery goroutine, software and free-running trigger modes, ROI and
// exposure features with realistic ranges, and optional injection of incomplete
// frames and feature failures.
//
//	cam := camera.NewSimulated(camera.SimConfig{})
//	defer cam.Close()
//
//	_ = cam.SetEnum(camera.FeatureTriggerMode, camera.TriggerModeOff)
//	_ = cam.StartContinuous(5, func(f *camera.Frame) {
//		defer cam.QueueFrame(f)
//		// copy f.Buffer() here
//	})
package camera
