package media

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/llehouerou/alac"
	"github.com/llehouerou/go-faad2"
	"github.com/llehouerou/go-m4a"
)

const alacFrameSize = 4096

var errUnsupportedM4ACodec = errors.New("m4a: unsupported codec")

// m4aDecoder reads an MP4 container and decodes AAC or ALAC samples.
type m4aDecoder struct {
	container  *m4a.Reader
	closer     io.Closer
	codec      m4a.CodecType
	sampleRate int
	sampleSize int
	channels   int
	totalLen   int
	currentIdx int
	err        error

	aac  *faad2.Decoder
	alac *alac.Alac

	pcm    [][2]float64
	pcmPos int
}

func decodeM4A(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	container, err := m4a.Open(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}

	d := &m4aDecoder{
		container:  container,
		closer:     rc,
		codec:      container.Codec(),
		sampleRate: int(container.SampleRate()),
		sampleSize: int(container.SampleSize()),
		channels:   int(container.Channels()),
	}
	d.totalLen = int(container.Duration().Seconds() * float64(d.sampleRate))

	precision := 2
	switch d.codec {
	case m4a.CodecAAC:
		ctx := context.Background()
		dec, err := faad2.NewDecoder(ctx)
		if err != nil {
			return nil, beep.Format{}, err
		}
		if err := dec.Init(ctx, container.CodecConfig()); err != nil {
			dec.Close(ctx)
			return nil, beep.Format{}, err
		}
		d.aac = dec
	case m4a.CodecALAC:
		dec, err := alac.NewWithConfig(alac.Config{
			SampleRate:  d.sampleRate,
			SampleSize:  d.sampleSize,
			NumChannels: d.channels,
			FrameSize:   alacFrameSize,
		})
		if err != nil {
			return nil, beep.Format{}, err
		}
		d.alac = dec
		if d.sampleSize == 24 {
			precision = 3
		}
	default:
		return nil, beep.Format{}, errUnsupportedM4ACodec
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(d.sampleRate),
		NumChannels: 2,
		Precision:   precision,
	}
	return d, format, nil
}

func (d *m4aDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}

	for n < len(samples) {
		if d.pcmPos < len(d.pcm) {
			c := copy(samples[n:], d.pcm[d.pcmPos:])
			n += c
			d.pcmPos += c
			continue
		}
		if d.currentIdx >= d.container.SampleCount() {
			return n, n > 0
		}

		data, err := d.container.ReadSample(d.currentIdx)
		if err != nil {
			d.err = err
			return n, n > 0
		}
		d.currentIdx++

		switch d.codec {
		case m4a.CodecAAC:
			pcm, err := d.aac.Decode(context.Background(), data)
			if err != nil {
				d.err = err
				return n, n > 0
			}
			d.pcm = int16ToStereo(pcm, d.channels)
		case m4a.CodecALAC:
			d.pcm = alacToStereo(d.alac.Decode(data), d.sampleSize, d.channels)
		}
		d.pcmPos = 0
	}
	return n, true
}

// int16ToStereo converts interleaved 16-bit PCM to stereo frames,
// duplicating mono.
func int16ToStereo(pcm []int16, channels int) [][2]float64 {
	if channels < 1 {
		return nil
	}
	frames := make([][2]float64, len(pcm)/channels)
	for i := range frames {
		left := float64(pcm[i*channels]) / 32768.0
		right := left
		if channels > 1 {
			right = float64(pcm[i*channels+1]) / 32768.0
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

// alacToStereo converts little-endian 16 or 24-bit ALAC output to stereo
// frames.
func alacToStereo(data []byte, sampleSize, channels int) [][2]float64 {
	if channels < 1 {
		return nil
	}
	width := 2
	scale := 32768.0
	if sampleSize == 24 {
		width = 3
		scale = 8388608.0
	}
	read := func(off int) float64 {
		if width == 3 {
			v := int32(data[off]) | int32(data[off+1])<<8 | int32(data[off+2])<<16
			if v&0x800000 != 0 {
				v |= ^0xFFFFFF
			}
			return float64(v) / scale
		}
		return float64(int16(uint16(data[off])|uint16(data[off+1])<<8)) / scale
	}

	frameBytes := width * channels
	frames := make([][2]float64, len(data)/frameBytes)
	for i := range frames {
		off := i * frameBytes
		left := read(off)
		right := left
		if channels > 1 {
			right = read(off + width)
		}
		frames[i] = [2]float64{left, right}
	}
	return frames
}

func (d *m4aDecoder) Err() error { return d.err }

func (d *m4aDecoder) Len() int { return d.totalLen }

func (d *m4aDecoder) Position() int {
	return int(d.container.SampleTime(d.currentIdx).Seconds()*float64(d.sampleRate)) + d.pcmPos - len(d.pcm)
}

func (d *m4aDecoder) Seek(p int) error {
	p = min(max(p, 0), d.totalLen)
	pos := time.Duration(float64(p) / float64(d.sampleRate) * float64(time.Second))
	d.currentIdx = d.container.SeekToTime(pos)
	d.pcm = nil
	d.pcmPos = 0
	d.err = nil
	return nil
}

func (d *m4aDecoder) Close() error {
	if d.aac != nil {
		d.aac.Close(context.Background())
	}
	return d.closer.Close()
}
