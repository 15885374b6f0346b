package device

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/uwasystemhealth/bnk"
)

// State is the recorder application state reported by the device.
type State string

// The recorder's module states, in the order they are normally traversed.
const (
	StateIdle              State = "Idle"
	StateRecorderOpened    State = "RecorderOpened"
	StateRecorderStreaming State = "RecorderStreaming"
	StateRecorderRecording State = "RecorderRecording"
)

var (
	// ErrWrongState is returned when an operation is attempted in a state
	// it is not valid in. The wrapped message names both states.
	ErrWrongState = errors.New("device is in the wrong state")
	// ErrNoActiveRecording is returned by StopRecording when no recording
	// was started through this client.
	ErrNoActiveRecording = errors.New("no active recording")

	errUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
)

// ModuleInfo summarizes the recorder hardware.
type ModuleInfo struct {
	NumberOfInputChannels int      `json:"numberOfInputChannels"`
	SDCardInserted        bool     `json:"sdCardInserted"`
	SupportedFilters      []string `json:"supportedFilters"`
	SupportedSampleRates  []int    `json:"supportedSampleRates"`
	SupportedRanges       []string `json:"supportedRanges"`
}

// statusResponse is the rest/rec/onchange document.
type statusResponse struct {
	LastUpdateTag int    `json:"lastUpdateTag"`
	ModuleState   string `json:"moduleState"`
}

// Client talks to one recorder over HTTP. It is not safe for concurrent
// use; the device itself serializes recorder operations.
type Client struct {
	baseURL string
	http    *http.Client
	log     *logrus.Logger

	state         State
	lastUpdateTag int
	recordingURI  string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger replaces the default logrus logger.
func WithLogger(log *logrus.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client for the recorder at the given host or
// host:port.
func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		baseURL: "http://" + host + "/",
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// State returns the module state observed at the last query.
func (c *Client) State() State {
	return c.state
}

// Status refreshes and returns the module state.
func (c *Client) Status(ctx context.Context) (State, error) {
	body, err := c.do(ctx, http.MethodGet, "rest/rec/onchange?last=0", "", nil)
	if err != nil {
		return "", err
	}

	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return "", fmt.Errorf("failed to parse status: %w", err)
	}

	c.state = State(status.ModuleState)
	c.lastUpdateTag = status.LastUpdateTag

	c.log.WithFields(logrus.Fields{
		"state":         c.state,
		"lastUpdateTag": c.lastUpdateTag,
	}).Debug("recorder status")

	return c.state, nil
}

// SetTime sets the device clock.
func (c *Client) SetTime(ctx context.Context, t time.Time) error {
	millis := strconv.FormatInt(t.UnixMilli(), 10)

	_, err := c.do(ctx, http.MethodPut, "rest/rec/module/time",
		"text/plain; charset=UTF-8", strings.NewReader(millis))

	return err
}

// Info fetches the recorder hardware summary.
func (c *Client) Info(ctx context.Context) (*ModuleInfo, error) {
	body, err := c.do(ctx, http.MethodGet, "rest/rec/module/info", "", nil)
	if err != nil {
		return nil, err
	}

	info := &ModuleInfo{}
	if err := json.Unmarshal(body, info); err != nil {
		return nil, fmt.Errorf("failed to parse module info: %w", err)
	}

	return info, nil
}

// DefaultInputSettings fetches the device's default channel setup, the
// usual starting point for configuring the next recording.
func (c *Client) DefaultInputSettings(ctx context.Context) (*bnk.RecordingSetup, error) {
	body, err := c.do(ctx, http.MethodGet, "rest/rec/channels/input/default", "", nil)
	if err != nil {
		return nil, err
	}

	setup := &bnk.RecordingSetup{}
	if err := json.Unmarshal(body, setup); err != nil {
		return nil, fmt.Errorf("failed to parse default input settings: %w", err)
	}

	return setup, nil
}

// Open opens the recorder application. The device must be Idle.
func (c *Client) Open(ctx context.Context) error {
	if err := c.require(StateIdle, "open"); err != nil {
		return err
	}

	if _, err := c.do(ctx, http.MethodPut, "rest/rec/open", "text/plain", nil); err != nil {
		return err
	}

	_, err := c.Status(ctx)

	return err
}

// Close closes the recorder application. The recorder must be opened but
// not measuring.
func (c *Client) Close(ctx context.Context) error {
	if err := c.require(StateRecorderOpened, "close"); err != nil {
		return err
	}

	if _, err := c.do(ctx, http.MethodPut, "rest/rec/close", "text/plain", nil); err != nil {
		return err
	}

	_, err := c.Status(ctx)

	return err
}

// PowerUp creates the measurement setup, applies the channel settings
// (powering CCLD transducers on) and returns the settings as the device
// accepted them. The recorder must be opened.
func (c *Client) PowerUp(ctx context.Context, setup *bnk.RecordingSetup) (*bnk.RecordingSetup, error) {
	if err := c.require(StateRecorderOpened, "power up"); err != nil {
		return nil, err
	}

	if _, err := c.do(ctx, http.MethodPut, "rest/rec/create", "text/plain", nil); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(setup)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input settings: %w", err)
	}

	_, err = c.do(ctx, http.MethodPut, "rest/rec/channels/input",
		"text/plain; charset=UTF-8", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, "rest/rec/channels/input", "", nil)
	if err != nil {
		return nil, err
	}

	applied := &bnk.RecordingSetup{}
	if err := json.Unmarshal(body, applied); err != nil {
		return nil, fmt.Errorf("failed to parse applied input settings: %w", err)
	}

	if _, err := c.Status(ctx); err != nil {
		return nil, err
	}

	return applied, nil
}

// StartRecording starts a measurement and returns its recording id. The
// device must be streaming (powered up).
func (c *Client) StartRecording(ctx context.Context) (string, error) {
	if err := c.require(StateRecorderStreaming, "start recording"); err != nil {
		return "", err
	}

	body, err := c.do(ctx, http.MethodPost, "rest/rec/measurements", "text/plain", nil)
	if err != nil {
		return "", err
	}

	c.recordingURI = strings.TrimSpace(string(body))

	c.log.WithField("uri", c.recordingURI).Info("recording started")

	if _, err := c.Status(ctx); err != nil {
		return "", err
	}

	return recordingID(c.recordingURI), nil
}

// StopRecording stops the measurement started by StartRecording.
func (c *Client) StopRecording(ctx context.Context) error {
	if err := c.require(StateRecorderRecording, "stop recording"); err != nil {
		return err
	}

	if c.recordingURI == "" {
		return ErrNoActiveRecording
	}

	uri := strings.TrimPrefix(c.recordingURI, "/")
	if _, err := c.do(ctx, http.MethodPut, uri+"/stop", "text/plain", nil); err != nil {
		return err
	}

	_, err := c.Status(ctx)

	return err
}

// Record performs a timed measurement: start, wait, stop. It returns the
// recording id.
func (c *Client) Record(ctx context.Context, duration time.Duration) (string, error) {
	id, err := c.StartRecording(ctx)
	if err != nil {
		return "", err
	}

	select {
	case <-time.After(duration):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	if err := c.StopRecording(ctx); err != nil {
		return "", err
	}

	return id, nil
}

// PowerDown finishes the measurement setup, which also turns off power to
// CCLD transducers.
func (c *Client) PowerDown(ctx context.Context) error {
	if _, err := c.do(ctx, http.MethodPut, "rest/rec/finish", "text/plain", nil); err != nil {
		return err
	}

	_, err := c.Status(ctx)

	return err
}

// Recordings lists the measurements stored on the SD card, oldest first.
// The recorder must be opened.
func (c *Client) Recordings(ctx context.Context) ([]bnk.RecordingInfo, error) {
	if err := c.require(StateRecorderOpened, "list recordings"); err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodGet, "rest/rec/measurements", "", nil)
	if err != nil {
		return nil, err
	}

	var recordings []bnk.RecordingInfo
	if err := json.Unmarshal(body, &recordings); err != nil {
		return nil, fmt.Errorf("failed to parse recording list: %w", err)
	}

	sort.Slice(recordings, func(i, j int) bool {
		return recordings[i].Setup.DateTime < recordings[j].Setup.DateTime
	})

	return recordings, nil
}

// Download fetches a recording's WAV file into dir along with its settings
// sidecar, and returns the WAV path. The sidecar is what ReadSidecar in the
// root package picks up next to the file.
func (c *Client) Download(ctx context.Context, rec bnk.RecordingInfo, dir string) (string, error) {
	body, err := c.do(ctx, http.MethodGet, strings.TrimPrefix(rec.URI, "/"), "", nil)
	if err != nil {
		return "", err
	}

	base := downloadBaseName(rec)
	wavPath := filepath.Join(dir, base+".wav")

	if err := os.WriteFile(wavPath, body, 0o644); err != nil {
		return "", fmt.Errorf("failed to write recording: %w", err)
	}

	sidecar, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to encode sidecar: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, base+".json"), sidecar, 0o644); err != nil {
		return "", fmt.Errorf("failed to write sidecar: %w", err)
	}

	c.log.WithFields(logrus.Fields{
		"uri":  rec.URI,
		"path": wavPath,
	}).Info("recording downloaded")

	return wavPath, nil
}

// Delete removes a recording from the SD card.
func (c *Client) Delete(ctx context.Context, rec bnk.RecordingInfo) error {
	_, err := c.do(ctx, http.MethodDelete, strings.TrimPrefix(rec.URI, "/"), "", nil)

	return err
}

func (c *Client) require(expected State, op string) error {
	if c.state != expected {
		return fmt.Errorf("%w: %s requires %s, device is %s",
			ErrWrongState, op, expected, c.state)
	}

	return nil
}

func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, path, err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	// The device's embedded web server replays stale cached responses
	// unless the request carries an old If-Modified-Since.
	req.Header.Set("If-Modified-Since", "Sat, 1 Jan 2005 00:00:00 GMT")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: %s %s returned %s",
			errUnexpectedHTTPStatus, method, path, resp.Status)
	}

	return data, nil
}

// recordingID is the short identifier the device embeds at the end of a
// measurement URI.
func recordingID(uri string) string {
	if len(uri) <= 10 {
		return uri
	}

	return uri[len(uri)-10:]
}

// downloadBaseName builds a filesystem-safe file name from the recording's
// setup name and start time.
func downloadBaseName(rec bnk.RecordingInfo) string {
	name := strings.ReplaceAll(rec.Setup.Name, " ", "_")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, `\`, "")

	stamp := time.UnixMilli(rec.Setup.DateTime).UTC().Format("20060102150405")

	return name + "_" + stamp
}
