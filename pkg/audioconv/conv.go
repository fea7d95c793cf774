package audioconv

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	popus "github.com/pekim/opus"
)

// TargetRate is the sample rate whisper expects.
const TargetRate = 16000

type Options struct {
	MaxSamples int // 0 = no limit
}

// DecodeFile reads a wav, mp3 or ogg (vorbis or opus) file and returns mono
// float32 samples at TargetRate.
func DecodeFile(ctx context.Context, path string, opt Options) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	format := strings.ToLower(filepath.Ext(path))
	if format != ".wav" && format != ".mp3" && format != ".ogg" && format != ".oga" {
		format = sniff(f)
	}

	var (
		pcm []float32
		sr  int
	)
	switch format {
	case ".wav":
		pcm, sr, err = decodeWAV(f)
	case ".mp3":
		pcm, sr, err = decodeMP3(f)
	case ".ogg", ".oga":
		pcm, sr, err = decodeOgg(f)
	default:
		return nil, fmt.Errorf("unsupported format %q (supported: wav, mp3, ogg vorbis/opus)", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pcm = Resample(pcm, sr, TargetRate)
	if opt.MaxSamples > 0 && len(pcm) > opt.MaxSamples {
		pcm = pcm[:opt.MaxSamples]
	}
	return pcm, nil
}

func sniff(f *os.File) string {
	magic, _ := bufio.NewReader(f).Peek(4)
	_, _ = f.Seek(0, io.SeekStart)

	switch string(magic) {
	case "RIFF":
		return ".wav"
	case "OggS":
		return ".ogg"
	}
	if len(magic) >= 3 && string(magic[:3]) == "ID3" {
		return ".mp3"
	}
	return ""
}

func decodeWAV(r io.ReadSeeker) ([]float32, int, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("invalid wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("read wav: %w", err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, 0, errors.New("empty wav")
	}

	depth := int(dec.BitDepth)
	if depth == 0 {
		depth = 16
	}
	channels, rate := 1, int(dec.SampleRate)
	if buf.Format != nil {
		channels = max(buf.Format.NumChannels, 1)
		if buf.Format.SampleRate > 0 {
			rate = buf.Format.SampleRate
		}
	}

	scale := 1.0 / float64(int64(1)<<(depth-1))
	x := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		x[i] = float32(min(max(float64(v)*scale, -1), 1))
	}
	return Downmix(x, channels), rate, nil
}

func decodeMP3(r io.Reader) ([]float32, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read mp3: %w", err)
	}
	var raw bytes.Buffer
	if _, err := io.Copy(&raw, dec); err != nil {
		return nil, 0, fmt.Errorf("read mp3: %w", err)
	}
	ints := make([]int16, raw.Len()/2)
	if err := binary.Read(&raw, binary.LittleEndian, ints); err != nil {
		return nil, 0, err
	}
	// go-mp3 always produces interleaved stereo
	return Downmix(fromInt16(ints), 2), dec.SampleRate(), nil
}

func decodeOgg(r io.ReadSeeker) ([]float32, int, error) {
	pcm, format, err := oggvorbis.ReadAll(r)
	if err == nil && format != nil && format.Channels > 0 {
		return Downmix(pcm, format.Channels), format.SampleRate, nil
	}

	if _, serr := r.Seek(0, io.SeekStart); serr != nil {
		return nil, 0, serr
	}
	pcm, rate, oerr := decodeOpus(r)
	if oerr != nil {
		return nil, 0, fmt.Errorf("ogg is neither vorbis (%v) nor opus (%w)", err, oerr)
	}
	return pcm, rate, nil
}

func decodeOpus(r io.ReadSeeker) ([]float32, int, error) {
	const rate = 48000

	dec, err := popus.NewDecoder(r)
	if err != nil {
		return nil, 0, err
	}
	defer dec.Destroy()

	ch := max(dec.ChannelCount(), 1)
	buf := make([]int16, rate*ch/2)

	var out []float32
	for {
		n, err := dec.Read(buf)
		if n > 0 {
			out = append(out, fromInt16(buf[:n*ch])...)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, err
		}
	}
	return Downmix(out, ch), rate, nil
}

func fromInt16(data []int16) []float32 {
	out := make([]float32, len(data))
	for i, v := range data {
		out[i] = float32(v) / 32768
	}
	return out
}
