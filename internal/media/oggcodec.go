package media

import (
	"encoding/binary"
	"errors"

	"github.com/jfreymuth/vorbis"
	"github.com/jj11hh/opus"
)

// opus always decodes at 48kHz.
const opusSampleRate = 48000

var (
	errUnknownOggCodec             = errors.New("ogg: unknown codec (not Opus or Vorbis)")
	errInvalidOpusHead             = errors.New("opus: invalid OpusHead packet")
	errUnsupportedOpus             = errors.New("opus: unsupported version")
	errInvalidVorbisHeader         = errors.New("vorbis: invalid identification header")
	errVorbisDecoderNotInitialized = errors.New("vorbis: decoder not initialized")
	errVorbisBufferTooSmall        = errors.New("vorbis: output buffer too small")
)

// oggCodec decodes the packets of one logical Ogg stream.
type oggCodec interface {
	SampleRate() int
	Channels() int
	// GranuleToSamples converts a page granule to a sample position.
	GranuleToSamples(granule int64) int64
	// AddHeaderPacket feeds a setup packet and reports whether decoding
	// can start.
	AddHeaderPacket(packet []byte) (complete bool, err error)
	// Decode writes interleaved float samples into pcm.
	Decode(packet []byte, pcm []float32) (samplesPerChannel int, err error)
	// Reset clears decoder state after a seek.
	Reset() error
}

func detectOggCodec(firstPacket []byte) (oggCodec, error) {
	if len(firstPacket) >= 8 && string(firstPacket[:8]) == "OpusHead" {
		return newOpusCodec(firstPacket)
	}
	if len(firstPacket) >= 7 && firstPacket[0] == 0x01 && string(firstPacket[1:7]) == "vorbis" {
		return newVorbisCodec(firstPacket)
	}
	return nil, errUnknownOggCodec
}

type opusCodec struct {
	decoder  *opus.Decoder
	channels int
	preSkip  int
	tags     bool
}

func newOpusCodec(packet []byte) (*opusCodec, error) {
	if len(packet) < 19 {
		return nil, errInvalidOpusHead
	}
	if packet[8] != 1 {
		return nil, errUnsupportedOpus
	}
	channels := int(packet[9])
	if channels < 1 || channels > 2 {
		return nil, errInvalidOpusHead
	}

	decoder, err := opus.NewDecoder(opusSampleRate, channels)
	if err != nil {
		return nil, err
	}
	return &opusCodec{
		decoder:  decoder,
		channels: channels,
		preSkip:  int(binary.LittleEndian.Uint16(packet[10:12])),
	}, nil
}

func (c *opusCodec) SampleRate() int { return opusSampleRate }

func (c *opusCodec) Channels() int { return c.channels }

func (c *opusCodec) GranuleToSamples(granule int64) int64 {
	return max(granule-int64(c.preSkip), 0)
}

// AddHeaderPacket waits for the OpusTags packet that follows OpusHead.
func (c *opusCodec) AddHeaderPacket(packet []byte) (bool, error) {
	if c.tags {
		return true, nil
	}
	if packet == nil {
		return false, nil
	}
	c.tags = true
	return true, nil
}

func (c *opusCodec) Decode(packet []byte, pcm []float32) (int, error) {
	return c.decoder.DecodeFloat32(packet, pcm)
}

// Reset is a no-op, the decoder recovers on the next packets.
func (c *opusCodec) Reset() error { return nil }

type vorbisCodec struct {
	decoder    *vorbis.Decoder
	channels   int
	sampleRate int
	headers    [][]byte
}

// newVorbisCodec reads the identification header:
// [0] type 0x01, [1:7] "vorbis", [7:11] version, [11] channels,
// [12:16] sample rate.
func newVorbisCodec(packet []byte) (*vorbisCodec, error) {
	if len(packet) < 16 {
		return nil, errInvalidVorbisHeader
	}
	if binary.LittleEndian.Uint32(packet[7:11]) != 0 {
		return nil, errInvalidVorbisHeader
	}
	channels := int(packet[11])
	if channels < 1 || channels > 2 {
		return nil, errInvalidVorbisHeader
	}
	return &vorbisCodec{
		channels:   channels,
		sampleRate: int(binary.LittleEndian.Uint32(packet[12:16])),
		headers:    [][]byte{append([]byte(nil), packet...)},
	}, nil
}

func (c *vorbisCodec) SampleRate() int { return c.sampleRate }

func (c *vorbisCodec) Channels() int { return c.channels }

func (c *vorbisCodec) GranuleToSamples(granule int64) int64 { return granule }

// AddHeaderPacket collects the comment and setup headers, then builds the
// decoder.
func (c *vorbisCodec) AddHeaderPacket(packet []byte) (bool, error) {
	if c.decoder != nil {
		return true, nil
	}
	if packet == nil {
		return false, nil
	}
	c.headers = append(c.headers, append([]byte(nil), packet...))
	if len(c.headers) < 3 {
		return false, nil
	}

	decoder := &vorbis.Decoder{}
	for _, hdr := range c.headers {
		if err := decoder.ReadHeader(hdr); err != nil {
			return false, err
		}
	}
	c.decoder = decoder
	c.headers = nil
	return true, nil
}

func (c *vorbisCodec) Decode(packet []byte, pcm []float32) (int, error) {
	if c.decoder == nil {
		return 0, errVorbisDecoderNotInitialized
	}
	samples, err := c.decoder.Decode(packet)
	if err != nil {
		return 0, err
	}
	if len(pcm) < len(samples) {
		return 0, errVorbisBufferTooSmall
	}
	n := copy(pcm, samples)
	return n / c.channels, nil
}

func (c *vorbisCodec) Reset() error {
	if c.decoder != nil {
		c.decoder.Clear()
	}
	return nil
}
