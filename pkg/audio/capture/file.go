// ABOUTME: File capture driver for offline decoding of recordings
// ABOUTME: Reads WAV, MP3 and FLAC files and presents them as a capture device at their native rate
package capture

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
	"github.com/youpy/go-wav"
	"go.uber.org/zap"

	"github.com/heywifi/heywifi-go/pkg/audio"
)

// FileDriver replays recordings named "file:<path>"
type FileDriver struct {
	logger *zap.Logger
}

// NewFileDriver creates a file driver
func NewFileDriver(logger *zap.Logger) *FileDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileDriver{logger: logger}
}

func (d *FileDriver) Name() string { return "file" }

// Open opens the recording and its decoder
func (d *FileDriver) Open(device string) (Handle, error) {
	path := strings.TrimPrefix(device, FilePrefix)

	f, err := os.Open(path)
	if err != nil {
		return nil, nativeErr("open "+path, syscall.ENOENT, err)
	}

	var reader pcmReader
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".wav":
		reader, err = newWAVReader(f)
	case ".mp3":
		reader, err = newMP3Reader(f)
	case ".flac":
		reader, err = newFLACReader(f)
	default:
		err = fmt.Errorf("unsupported recording format: %s (supported: .wav, .mp3, .flac)", ext)
	}
	if err != nil {
		f.Close()
		return nil, nativeErr("open "+path, syscall.EINVAL, err)
	}

	d.logger.Info("replaying recording",
		zap.String("path", path),
		zap.Int("rate", reader.sampleRate()),
		zap.Int("channels", reader.channels()))

	return newFileHandle(reader, f), nil
}

// pcmReader yields interleaved samples normalized to [-1, 1]
type pcmReader interface {
	readFrames(dst []float32) (int, error)
	sampleRate() int
	channels() int
}

type fileHandle struct {
	reader pcmReader
	closer io.Closer

	format   audio.SampleFormat
	channels int
	scratch  []float32
	eof      bool
	closed   bool
}

func newFileHandle(reader pcmReader, closer io.Closer) *fileHandle {
	return &fileHandle{
		reader:   reader,
		closer:   closer,
		format:   audio.FormatF32LE,
		channels: reader.channels(),
	}
}

func (h *fileHandle) SetAccess(access Access) error {
	if access != AccessRWInterleaved {
		return nativeErr("set access "+access.String(), syscall.EINVAL, nil)
	}
	return nil
}

func (h *fileHandle) SetFormat(format audio.SampleFormat) error {
	if !format.Valid() {
		return nativeErr("set format", syscall.EINVAL, fmt.Errorf("unsupported sample format: %v", format))
	}
	h.format = format
	return nil
}

// SetRateNear always answers with the recording's own rate
func (h *fileHandle) SetRateNear(rate int) (int, error) {
	return h.reader.sampleRate(), nil
}

// SetChannels accepts the native layout or a mono downmix
func (h *fileHandle) SetChannels(channels int) error {
	if channels != h.reader.channels() && channels != 1 {
		return nativeErr("set channels", syscall.EINVAL,
			fmt.Errorf("recording has %d channels, cannot produce %d", h.reader.channels(), channels))
	}
	h.channels = channels
	return nil
}

func (h *fileHandle) Commit() error { return nil }

// ReadInterleaved decodes frames frames into buf. A short read is returned at
// the end of the recording; the read after that fails with ENODATA.
func (h *fileHandle) ReadInterleaved(ctx context.Context, buf []byte, frames int) (int, error) {
	if h.closed {
		return 0, nativeErr("read", syscall.EBADF, nil)
	}
	if h.eof {
		return 0, nativeErr("read", syscall.ENODATA, io.EOF)
	}

	bps := h.format.BytesPerSample()
	frameBytes := bps * h.channels
	if frames*frameBytes > len(buf) {
		return 0, nativeErr("read", syscall.EINVAL, fmt.Errorf("buffer holds %d bytes, need %d", len(buf), frames*frameBytes))
	}

	srcChannels := h.reader.channels()
	if cap(h.scratch) < frames*srcChannels {
		h.scratch = make([]float32, frames*srcChannels)
	}

	got := 0
	for got < frames {
		if err := ctx.Err(); err != nil {
			return got, err
		}

		n, err := h.reader.readFrames(h.scratch[:(frames-got)*srcChannels])
		for i := 0; i < n; i++ {
			src := h.scratch[i*srcChannels : (i+1)*srcChannels]
			dst := buf[(got+i)*frameBytes:]
			if h.channels == srcChannels {
				for ch, v := range src {
					audio.EncodeSample(dst[ch*bps:], h.format, v)
				}
				continue
			}
			var sum float32
			for _, v := range src {
				sum += v
			}
			audio.EncodeSample(dst, h.format, sum/float32(srcChannels))
		}
		got += n

		if err == io.EOF {
			h.eof = true
			if got == 0 {
				return 0, nativeErr("read", syscall.ENODATA, io.EOF)
			}
			return got, nil
		}
		if err != nil {
			return got, nativeErr("read", syscall.EIO, err)
		}
	}
	return got, nil
}

func (h *fileHandle) Drain() error { return nil }

func (h *fileHandle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.closer != nil {
		return h.closer.Close()
	}
	return nil
}

// wavReader decodes integer PCM WAV; go-wav samples carry at most two channels
type wavReader struct {
	reader *wav.Reader
	rate   int
	nch    int
	bits   int
}

func newWAVReader(f *os.File) (*wavReader, error) {
	reader := wav.NewReader(f)
	format, err := reader.Format()
	if err != nil {
		return nil, fmt.Errorf("failed to decode WAV: %w", err)
	}
	if format.AudioFormat != wav.AudioFormatPCM {
		return nil, fmt.Errorf("unsupported WAV encoding %d (only integer PCM)", format.AudioFormat)
	}
	switch format.BitsPerSample {
	case 8, 16, 24, 32:
	default:
		return nil, fmt.Errorf("unsupported WAV bit depth: %d", format.BitsPerSample)
	}
	if format.NumChannels < 1 || format.NumChannels > 2 {
		return nil, fmt.Errorf("unsupported WAV channel count: %d", format.NumChannels)
	}
	return &wavReader{
		reader: reader,
		rate:   int(format.SampleRate),
		nch:    int(format.NumChannels),
		bits:   int(format.BitsPerSample),
	}, nil
}

func (r *wavReader) sampleRate() int { return r.rate }
func (r *wavReader) channels() int   { return r.nch }

func (r *wavReader) readFrames(dst []float32) (int, error) {
	want := len(dst) / r.nch
	frames := 0
	for frames < want {
		samples, err := r.reader.ReadSamples(uint32(want - frames))
		for _, sample := range samples {
			for ch := 0; ch < r.nch; ch++ {
				dst[frames*r.nch+ch] = r.normalize(r.reader.IntValue(sample, uint(ch)))
			}
			frames++
		}
		if err != nil {
			return frames, err
		}
		if len(samples) == 0 {
			return frames, io.EOF
		}
	}
	return frames, nil
}

// normalize maps a raw sample to [-1, 1]; 8-bit WAV is unsigned
func (r *wavReader) normalize(v int) float32 {
	if r.bits == 8 {
		return float32(v-128) / 128
	}
	return float32(v) / float32(int64(1)<<(r.bits-1))
}

// mp3Reader decodes MP3; go-mp3 always produces 16-bit stereo
type mp3Reader struct {
	decoder *mp3.Decoder
	pending []byte
}

func newMP3Reader(r io.Reader) (*mp3Reader, error) {
	decoder, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}
	return &mp3Reader{decoder: decoder}, nil
}

func (r *mp3Reader) sampleRate() int { return r.decoder.SampleRate() }
func (r *mp3Reader) channels() int   { return 2 }

func (r *mp3Reader) readFrames(dst []float32) (int, error) {
	const frameBytes = 4
	want := (len(dst) / 2) * frameBytes
	if cap(r.pending) < want {
		r.pending = make([]byte, want)
	}
	buf := r.pending[:want]

	n, err := io.ReadFull(r.decoder, buf)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}

	frames := n / frameBytes
	for i := 0; i < frames*2; i++ {
		dst[i] = float32(int16(binary.LittleEndian.Uint16(buf[i*2:]))) / 32768
	}
	return frames, err
}

// flacReader decodes FLAC frame by frame, keeping the unread tail of a block
type flacReader struct {
	stream   *flac.Stream
	bitDepth int
	nch      int

	block [][]int32
	pos   int
	size  int
}

func newFLACReader(r io.Reader) (*flacReader, error) {
	stream, err := flac.New(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}
	return &flacReader{
		stream:   stream,
		bitDepth: int(stream.Info.BitsPerSample),
		nch:      int(stream.Info.NChannels),
	}, nil
}

func (r *flacReader) sampleRate() int { return int(r.stream.Info.SampleRate) }
func (r *flacReader) channels() int   { return r.nch }

func (r *flacReader) readFrames(dst []float32) (int, error) {
	scale := float32(int64(1) << (r.bitDepth - 1))
	want := len(dst) / r.nch
	frames := 0

	for frames < want {
		if r.pos >= r.size {
			frame, err := r.stream.ParseNext()
			if errors.Is(err, io.EOF) {
				return frames, io.EOF
			}
			if err != nil {
				return frames, err
			}
			r.block = r.block[:0]
			for _, sub := range frame.Subframes {
				r.block = append(r.block, sub.Samples)
			}
			r.pos = 0
			r.size = int(frame.BlockSize)
		}

		for ; r.pos < r.size && frames < want; r.pos++ {
			for ch := 0; ch < r.nch; ch++ {
				dst[frames*r.nch+ch] = float32(r.block[ch][r.pos]) / scale
			}
			frames++
		}
	}
	return frames, nil
}
