package media

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// mockDecoder implements Decoder for testing.
type mockDecoder struct {
	mock.Mock
}

func (m *mockDecoder) Probe(ctx context.Context, path string) (Info, error) {
	args := m.Called(ctx, path)
	return args.Get(0).(Info), args.Error(1)
}

func (m *mockDecoder) Thumbnail(ctx context.Context, path string, maxWidth int) ([]byte, error) {
	args := m.Called(ctx, path, maxWidth)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func TestSize(t *testing.T) {
	assert.True(t, Size{Width: 640, Height: 480}.IsValid())
	assert.False(t, Size{Width: 0, Height: 480}.IsValid())
	assert.False(t, Size{Width: 640, Height: -1}.IsValid())
	assert.Equal(t, "1920x1080", Size{Width: 1920, Height: 1080}.String())
}

func TestInfo_Validate(t *testing.T) {
	valid := Info{Duration: TimeFromSeconds(2), NaturalSize: Size{Width: 640, Height: 480}}
	require.NoError(t, valid.Validate())

	zeroDuration := valid
	zeroDuration.Duration = Zero
	assert.ErrorIs(t, zeroDuration.Validate(), ErrInvalidDuration)

	noSize := valid
	noSize.NaturalSize = Size{}
	assert.ErrorIs(t, noSize.Validate(), ErrInvalidDimensions)
}

func TestFile_InfoIsCached(t *testing.T) {
	dec := &mockDecoder{}
	info := Info{Duration: TimeFromSeconds(3), NaturalSize: Size{Width: 1280, Height: 720}, Codec: "h264"}
	dec.On("Probe", mock.Anything, "/clips/a.mov").Return(info, nil).Once()

	f := NewFile("/clips/a.mov", dec)
	assert.Equal(t, "/clips/a.mov", f.Path())

	for i := 0; i < 3; i++ {
		got, err := f.Info(context.Background())
		require.NoError(t, err)
		assert.Equal(t, info, got)
	}
	dec.AssertExpectations(t)
}

func TestFile_InfoRetriesAfterFailure(t *testing.T) {
	dec := &mockDecoder{}
	probeErr := errors.New("boom")
	info := Info{Duration: TimeFromSeconds(1), NaturalSize: Size{Width: 64, Height: 64}}
	dec.On("Probe", mock.Anything, "a.mp4").Return(Info{}, probeErr).Once()
	dec.On("Probe", mock.Anything, "a.mp4").Return(info, nil).Once()

	f := NewFile("a.mp4", dec)

	_, err := f.Info(context.Background())
	require.ErrorIs(t, err, probeErr)

	got, err := f.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, info, got)
	dec.AssertExpectations(t)
}

func TestFile_InfoWithoutDecoder(t *testing.T) {
	_, err := NewFile("a.mp4", nil).Info(context.Background())
	assert.ErrorIs(t, err, ErrDecode)
}
