// Package device drives the LAN-XI recorder's REST interface: opening and
// closing the recorder application, powering the measurement setup up and
// down, starting and stopping recordings, and managing the files stored on
// the device's SD card.
//
// The recorder exposes a small state machine (Idle, RecorderOpened,
// RecorderStreaming, RecorderRecording); every operation is guarded on the
// state it requires and fails with ErrWrongState otherwise.
package device
