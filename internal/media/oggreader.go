package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const (
	oggHeaderSize   = 27
	oggContinued    = 0x01
	oggMaxPageSize  = oggHeaderSize + 255 + 255*255
	oggTailScanSize = 2 * oggMaxPageSize
)

var (
	errInvalidOggMagic   = errors.New("ogg: invalid capture pattern")
	errInvalidOggVersion = errors.New("ogg: unsupported version")
)

type oggPageHeader struct {
	HeaderType   uint8
	GranulePos   int64
	SerialNumber uint32
	SequenceNum  uint32
	NumSegments  uint8
	SegmentTable []uint8
}

func (h *oggPageHeader) bodySize() int64 {
	var n int64
	for _, s := range h.SegmentTable {
		n += int64(s)
	}
	return n
}

func parseOggPageHeader(r io.Reader) (*oggPageHeader, error) {
	var buf [oggHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return nil, err
	}
	if string(buf[0:4]) != "OggS" {
		return nil, errInvalidOggMagic
	}
	if buf[4] != 0 {
		return nil, errInvalidOggVersion
	}

	hdr := &oggPageHeader{
		HeaderType:   buf[5],
		GranulePos:   int64(binary.LittleEndian.Uint64(buf[6:14])),
		SerialNumber: binary.LittleEndian.Uint32(buf[14:18]),
		SequenceNum:  binary.LittleEndian.Uint32(buf[18:22]),
		// CRC at buf[22:26] is not verified.
		NumSegments: buf[26],
	}
	if hdr.NumSegments > 0 {
		hdr.SegmentTable = make([]uint8, hdr.NumSegments)
		if _, err := io.ReadFull(r, hdr.SegmentTable); err != nil {
			return nil, err
		}
	}
	return hdr, nil
}

// readOggPageBody splits a page body into its complete packets. A packet
// still open at the end of the page is returned as partial.
func readOggPageBody(r io.Reader, hdr *oggPageHeader) (packets [][]byte, partial []byte, err error) {
	body := make([]byte, hdr.bodySize())
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, err
	}

	var start, size int
	for _, seg := range hdr.SegmentTable {
		size += int(seg)
		if seg < 255 {
			packets = append(packets, body[start:start+size])
			start += size
			size = 0
		}
	}
	if size > 0 {
		partial = body[start : start+size]
	}
	return packets, partial, nil
}

// oggPage is one page of audio packets. Granule is the page's end position.
type oggPage struct {
	Granule int64
	Packets [][]byte
}

// oggReader reads audio pages from an Ogg stream and joins packets that
// span pages.
type oggReader struct {
	r           io.ReadSeeker
	dataStart   int64
	lastGranule int64
	partial     []byte
}

func newOggReader(r io.ReadSeeker, dataStart int64) (*oggReader, error) {
	o := &oggReader{r: r, dataStart: dataStart}
	if err := o.scanLastGranule(); err != nil {
		return nil, err
	}
	return o, o.reset()
}

// reset rewinds to the first audio page.
func (o *oggReader) reset() error {
	o.partial = nil
	_, err := o.r.Seek(o.dataStart, io.SeekStart)
	return err
}

func (o *oggReader) readPage() (*oggPage, error) {
	hdr, err := parseOggPageHeader(o.r)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, io.EOF
		}
		return nil, err
	}
	packets, tail, err := readOggPageBody(o.r, hdr)
	if err != nil {
		return nil, err
	}

	if hdr.HeaderType&oggContinued != 0 {
		switch {
		case o.partial == nil && len(packets) > 0:
			// Head of a packet that began before a seek point.
			packets = packets[1:]
		case o.partial == nil:
			tail = nil
		case len(packets) > 0:
			packets[0] = append(o.partial, packets[0]...)
		default:
			tail = append(o.partial, tail...)
		}
	}
	o.partial = tail

	return &oggPage{Granule: hdr.GranulePos, Packets: packets}, nil
}

// scanLastGranule finds the end position of the stream from its last page.
func (o *oggReader) scanLastGranule() error {
	end, err := o.r.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	from := max(o.dataStart, end-oggTailScanSize)
	if _, err := o.r.Seek(from, io.SeekStart); err != nil {
		return err
	}
	tail := make([]byte, end-from)
	if _, err := io.ReadFull(o.r, tail); err != nil {
		return err
	}

	for i := bytes.LastIndex(tail, []byte("OggS")); i >= 0; i = bytes.LastIndex(tail[:i], []byte("OggS")) {
		if len(tail)-i < oggHeaderSize {
			continue
		}
		granule := int64(binary.LittleEndian.Uint64(tail[i+6 : i+14]))
		if granule >= 0 {
			o.lastGranule = granule
			return nil
		}
	}
	o.lastGranule = 0
	return nil
}

// seekToGranule positions the reader on the page holding granule and
// returns the granule where that page starts.
func (o *oggReader) seekToGranule(granule int64) (int64, error) {
	if err := o.reset(); err != nil {
		return 0, err
	}

	pos := o.dataStart
	var prev int64
	for {
		hdr, err := parseOggPageHeader(o.r)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return 0, err
		}
		if hdr.GranulePos >= granule && hdr.GranulePos >= 0 {
			break
		}
		next, err := o.r.Seek(hdr.bodySize(), io.SeekCurrent)
		if err != nil {
			return 0, err
		}
		pos = next
		if hdr.GranulePos >= 0 {
			prev = hdr.GranulePos
		}
	}

	o.partial = nil
	if _, err := o.r.Seek(pos, io.SeekStart); err != nil {
		return 0, err
	}
	return prev, nil
}
