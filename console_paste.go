package main

// pasteBytes turns clipboard text into console input: CRLF and LF become
// CR as typed on a terminal, non-ASCII is dropped, and the result is capped
// at max bytes.
func pasteBytes(raw []byte, max int) []byte {
	out := make([]byte, 0, len(raw))
	for i := 0; i < len(raw) && len(out) < max; i++ {
		b := raw[i]
		switch {
		case b == '\r':
			if i+1 < len(raw) && raw[i+1] == '\n' {
				i++
			}
			out = append(out, '\r')
		case b == '\n':
			out = append(out, '\r')
		case b < 0x80:
			out = append(out, b)
		}
	}
	return out
}
