// Package media provides the decoding side of the merge pipeline: exact
// rational time, frame sizes, lazily probed video sources, and an ffmpeg
// backed decoder for probing and thumbnails.
package media

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Static errors for media operations.
var (
	// ErrDecode is wrapped by every decoder failure.
	ErrDecode = errors.New("media: decode failed")
	// ErrInvalidDimensions is returned when a frame size is not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrInvalidDuration is returned when a duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrNilSource is returned when a nil source is used.
	ErrNilSource = errors.New("media: source is nil")
	// ErrNoVideoStream is returned when a file has no video stream.
	ErrNoVideoStream = errors.New("media: no video stream found")
)

// Size is a frame size in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// IsValid reports whether both dimensions are positive.
func (s Size) IsValid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Info is the resolved metadata of a video source.
type Info struct {
	Duration    Time
	NaturalSize Size
	Codec       string
}

// Validate checks that a resolved source has a positive duration and size.
func (i Info) Validate() error {
	if !i.Duration.IsPositive() {
		return fmt.Errorf("%w: got %s", ErrInvalidDuration, i.Duration)
	}
	if !i.NaturalSize.IsValid() {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, i.NaturalSize.Width, i.NaturalSize.Height)
	}
	return nil
}

// Source is one decodable clip. Path is the opaque handle handed to the
// encoder; Info resolves duration and natural size on demand.
type Source interface {
	Path() string
	Info(ctx context.Context) (Info, error)
}

// Decoder probes media files and renders thumbnails.
// Implementations should wrap their failures with ErrDecode.
type Decoder interface {
	// Probe returns the duration, natural size and codec of the first video
	// stream in the file at path.
	Probe(ctx context.Context, path string) (Info, error)

	// Thumbnail renders the first frame of the file as a PNG no wider than
	// maxWidth pixels. A non-positive maxWidth keeps the natural size.
	Thumbnail(ctx context.Context, path string, maxWidth int) ([]byte, error)
}

// Compile-time check that File implements Source.
var _ Source = (*File)(nil)

// File is a Source backed by a file on disk. The first successful probe is
// cached; failures are retried on the next call.
type File struct {
	path    string
	decoder Decoder

	mu   sync.Mutex
	info *Info
}

// NewFile creates a File that resolves through decoder.
func NewFile(path string, decoder Decoder) *File {
	return &File{path: path, decoder: decoder}
}

// Path returns the file path.
func (f *File) Path() string {
	return f.path
}

// Info probes the file once and returns the cached result afterwards.
func (f *File) Info(ctx context.Context) (Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.info != nil {
		return *f.info, nil
	}
	if f.decoder == nil {
		return Info{}, fmt.Errorf("%w: no decoder for %s", ErrDecode, f.path)
	}

	info, err := f.decoder.Probe(ctx, f.path)
	if err != nil {
		return Info{}, err
	}
	f.info = &info
	return info, nil
}
