package hw

import (
	"io"

	"github.com/go-faster/jx"
)

// portAccess is a single CPU port access, for the I/O trace.
type portAccess struct {
	PC   uint16
	Port uint8
	Val  uint8
	Out  bool
}

type tracer struct {
	w    io.Writer
	json bool

	buf []byte
	enc jx.Encoder
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

func (t *tracer) write(acc portAccess) {
	if t.json {
		t.writeJSON(acc)
		return
	}

	// PPPP  OUT NN <- VV
	// PPPP  IN  NN -> VV
	const lineLen = 19
	if cap(t.buf) < lineLen {
		t.buf = make([]byte, lineLen)
	}
	buf := t.buf[:lineLen]

	hexEncode(buf[0:], byte(acc.PC>>8))
	hexEncode(buf[2:], byte(acc.PC))
	copy(buf[4:], "  ")
	if acc.Out {
		copy(buf[6:], "OUT ")
	} else {
		copy(buf[6:], "IN  ")
	}
	hexEncode(buf[10:], acc.Port)
	if acc.Out {
		copy(buf[12:], " <- ")
	} else {
		copy(buf[12:], " -> ")
	}
	hexEncode(buf[16:], acc.Val)
	buf[18] = '\n'
	t.w.Write(buf)
}

// writeJSON writes acc as a JSON object on its own line.
func (t *tracer) writeJSON(acc portAccess) {
	e := &t.enc
	e.Reset()
	e.ObjStart()
	e.FieldStart("pc")
	e.Int(int(acc.PC))
	e.FieldStart("dir")
	if acc.Out {
		e.Str("out")
	} else {
		e.Str("in")
	}
	e.FieldStart("port")
	e.Int(int(acc.Port))
	e.FieldStart("val")
	e.Int(int(acc.Val))
	e.ObjEnd()

	t.buf = append(append(t.buf[:0], e.Bytes()...), '\n')
	t.w.Write(t.buf)
}
