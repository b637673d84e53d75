package media

import (
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
)

const oggPCMFrames = 8192

// decodeOgg decodes an Ogg Opus or Ogg Vorbis stream.
func decodeOgg(rc io.ReadSeekCloser) (beep.StreamSeekCloser, beep.Format, error) {
	hdr, err := parseOggPageHeader(rc)
	if err != nil {
		return nil, beep.Format{}, err
	}
	packets, partial, err := readOggPageBody(rc, hdr)
	if err != nil {
		return nil, beep.Format{}, err
	}
	if len(packets) == 0 {
		return nil, beep.Format{}, errors.New("ogg: no packets in first page")
	}

	codec, err := detectOggCodec(packets[0])
	if err != nil {
		return nil, beep.Format{}, err
	}
	pending := packets[1:]

	for {
		complete := false
		for len(pending) > 0 && !complete {
			complete, err = codec.AddHeaderPacket(pending[0])
			if err != nil {
				return nil, beep.Format{}, err
			}
			pending = pending[1:]
		}
		if complete {
			break
		}

		hdr, err := parseOggPageHeader(rc)
		if err != nil {
			return nil, beep.Format{}, err
		}
		pagePackets, tail, err := readOggPageBody(rc, hdr)
		if err != nil {
			return nil, beep.Format{}, err
		}
		// Setup headers often span pages.
		if partial != nil {
			if len(pagePackets) > 0 {
				pagePackets[0] = append(partial, pagePackets[0]...)
			} else {
				tail = append(partial, tail...)
			}
		}
		partial = tail
		pending = pagePackets
	}

	dataStart, err := rc.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, beep.Format{}, err
	}
	ogg, err := newOggReader(rc, dataStart)
	if err != nil {
		return nil, beep.Format{}, err
	}

	format := beep.Format{
		SampleRate:  beep.SampleRate(codec.SampleRate()),
		NumChannels: codec.Channels(),
		Precision:   2,
	}
	d := &oggDecoder{
		ogg:       ogg,
		codec:     codec,
		closer:    rc,
		pcmBuffer: make([]float32, oggPCMFrames*codec.Channels()),
		totalLen:  codec.GranuleToSamples(ogg.lastGranule),
	}
	d.pcmPos = len(d.pcmBuffer)
	return d, format, nil
}

// oggDecoder implements beep.StreamSeekCloser over an oggReader.
type oggDecoder struct {
	ogg    *oggReader
	codec  oggCodec
	closer io.Closer

	page      *oggPage
	packetIdx int
	pcmBuffer []float32
	pcmPos    int
	position  int64
	totalLen  int64
	skip      int64
	err       error
}

func (d *oggDecoder) Stream(samples [][2]float64) (n int, ok bool) {
	if d.err != nil {
		return 0, false
	}
	channels := d.codec.Channels()

	for n < len(samples) {
		if d.pcmPos < len(d.pcmBuffer) {
			for n < len(samples) && d.pcmPos < len(d.pcmBuffer) {
				left := float64(d.pcmBuffer[d.pcmPos])
				right := left
				if channels == 2 {
					right = float64(d.pcmBuffer[d.pcmPos+1])
				}
				d.pcmPos += channels
				if d.skip > 0 {
					d.skip--
					continue
				}
				samples[n] = [2]float64{left, right}
				n++
				d.position++
			}
			continue
		}

		if d.page == nil || d.packetIdx >= len(d.page.Packets) {
			page, err := d.ogg.readPage()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					d.err = err
				}
				return n, n > 0
			}
			d.page = page
			d.packetIdx = 0
			continue
		}

		packet := d.page.Packets[d.packetIdx]
		d.packetIdx++
		spc, err := d.codec.Decode(packet, d.pcmBuffer[:cap(d.pcmBuffer)])
		if err != nil {
			// Corrupt packets are skipped.
			continue
		}
		d.pcmBuffer = d.pcmBuffer[:spc*channels]
		d.pcmPos = 0
	}
	return n, true
}

func (d *oggDecoder) Err() error { return d.err }

func (d *oggDecoder) Len() int { return int(d.totalLen) }

func (d *oggDecoder) Position() int { return int(d.position) }

// Seek lands on the page holding p and decodes forward to it.
func (d *oggDecoder) Seek(p int) error {
	target := min(max(int64(p), 0), d.totalLen)

	pageStart, err := d.ogg.seekToGranule(target)
	if err != nil {
		return err
	}
	start := d.codec.GranuleToSamples(pageStart)

	d.page = nil
	d.packetIdx = 0
	d.pcmBuffer = d.pcmBuffer[:cap(d.pcmBuffer)]
	d.pcmPos = len(d.pcmBuffer)
	d.position = target
	d.skip = max(target-start, 0)
	d.err = nil
	return d.codec.Reset()
}

func (d *oggDecoder) Close() error {
	return d.closer.Close()
}
