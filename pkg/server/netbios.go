package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"
)

// NetBIOS session service packet types (RFC 1002 section 4.3).
const (
	nbSessionMessage     byte = 0x00
	nbSessionRequest     byte = 0x81
	nbPositiveResponse   byte = 0x82
	nbNegativeResponse   byte = 0x83
	nbSessionKeepAlive   byte = 0x85
	nbHeaderSize              = 4
	nbMaxLength               = 1<<24 - 1
	nbCalledNameNotFound byte = 0x82
)

// ErrFrameTooLarge is returned when a peer announces a message above the
// configured limit.
var ErrFrameTooLarge = errors.New("netbios frame too large")

// frame is one NetBIOS session packet.
type frame struct {
	kind    byte
	payload []byte
}

// readFrame reads one session packet. When skipKeepAlive is set, keepalive
// packets are consumed silently. readTimeout of zero leaves the deadline
// unchanged.
func readFrame(ctx context.Context, conn net.Conn, maxSize int, readTimeout time.Duration, skipKeepAlive bool) (frame, error) {
	var hdr [nbHeaderSize]byte
	for {
		if err := ctx.Err(); err != nil {
			return frame{}, err
		}
		if readTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
				return frame{}, fmt.Errorf("set read deadline: %w", err)
			}
		}
		if _, err := io.ReadFull(conn, hdr[:]); err != nil {
			return frame{}, err
		}

		// Direct-hosted SMB uses all 24 length bits.
		length := int(hdr[1])<<16 | int(hdr[2])<<8 | int(hdr[3])
		if hdr[0] == nbSessionKeepAlive && skipKeepAlive {
			if length > 0 {
				if _, err := io.CopyN(io.Discard, conn, int64(length)); err != nil {
					return frame{}, err
				}
			}
			continue
		}
		if length > maxSize {
			return frame{}, fmt.Errorf("%w: %d bytes (max %d)", ErrFrameTooLarge, length, maxSize)
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(conn, payload); err != nil {
			return frame{}, fmt.Errorf("read frame payload: %w", err)
		}
		return frame{kind: hdr[0], payload: payload}, nil
	}
}

// writeFrame writes a session packet of the given type.
func writeFrame(conn net.Conn, kind byte, payload []byte, writeTimeout time.Duration) error {
	if len(payload) > nbMaxLength {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}
	if writeTimeout > 0 {
		if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
			return fmt.Errorf("set write deadline: %w", err)
		}
	}

	n := len(payload)
	buf := make([]byte, nbHeaderSize+n)
	buf[0] = kind
	buf[1] = byte(n >> 16)
	buf[2] = byte(n >> 8)
	buf[3] = byte(n)
	copy(buf[nbHeaderSize:], payload)

	if _, err := conn.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// decodeNetBIOSName decodes a first-level encoded NetBIOS name (RFC 1001
// section 14.1): a length byte of 32 followed by 32 half-byte characters
// 'A'..'P'. The 16th character, the suffix, is returned separately and
// trailing padding is trimmed from the name.
func decodeNetBIOSName(b []byte) (name string, suffix byte, rest []byte, err error) {
	if len(b) < 34 || b[0] != 32 {
		return "", 0, nil, fmt.Errorf("invalid netbios name encoding")
	}
	var raw [16]byte
	for i := 0; i < 16; i++ {
		hi, lo := b[1+2*i], b[2+2*i]
		if hi < 'A' || hi > 'P' || lo < 'A' || lo > 'P' {
			return "", 0, nil, fmt.Errorf("invalid netbios name character")
		}
		raw[i] = (hi-'A')<<4 | (lo - 'A')
	}

	// Skip the scope terminator.
	rest = b[33:]
	if rest[0] != 0 {
		return "", 0, nil, fmt.Errorf("netbios name scopes are not supported")
	}
	rest = rest[1:]

	n := 15
	for n > 0 && raw[n-1] == ' ' {
		n--
	}
	return string(raw[:n]), raw[15], rest, nil
}

// encodeNetBIOSName is the inverse of decodeNetBIOSName.
func encodeNetBIOSName(name string, suffix byte) []byte {
	var raw [16]byte
	for i := range raw[:15] {
		raw[i] = ' '
	}
	copy(raw[:15], name)
	raw[15] = suffix

	out := make([]byte, 0, 34)
	out = append(out, 32)
	for _, c := range raw {
		out = append(out, 'A'+c>>4, 'A'+c&0x0F)
	}
	return append(out, 0)
}
