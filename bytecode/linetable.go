package bytecode

// LineStart marks the byte offset where a new source line begins.
type LineStart struct {
	Offset int
	Line   int
}

// EncodeLineTable builds a line table from instruction starts given in
// offset order. Each table record is a pair of bytes: an unsigned offset
// delta and a signed line delta. Entries with a non-positive line and entries
// that do not change the line are skipped. Deltas that do not fit a record
// are split across several records.
func EncodeLineTable(firstLine int, starts []LineStart) []byte {
	var table []byte
	prevOffset, prevLine := 0, firstLine
	for _, s := range starts {
		if s.Line <= 0 || s.Line == prevLine {
			continue
		}
		dOff := s.Offset - prevOffset
		dLine := s.Line - prevLine
		prevOffset, prevLine = s.Offset, s.Line

		for dOff > 255 {
			table = append(table, 255, 0)
			dOff -= 255
		}
		for dLine < -128 {
			table = append(table, byte(dOff), 0x80)
			dOff = 0
			dLine += 128
		}
		for dLine > 127 {
			table = append(table, byte(dOff), 127)
			dOff = 0
			dLine -= 127
		}
		if dOff != 0 || dLine != 0 {
			table = append(table, byte(dOff), byte(int8(dLine)))
		}
	}
	return table
}

// DecodeLineTable returns the offsets at which the line changes. A trailing
// odd byte is ignored.
func DecodeLineTable(firstLine int, table []byte) []LineStart {
	var starts []LineStart
	line, lastLine, addr := firstLine, -1, 0
	started := false
	for i := 0; i+1 < len(table); i += 2 {
		dOff := int(table[i])
		dLine := int(int8(table[i+1]))
		if dOff != 0 {
			if !started || line != lastLine {
				starts = append(starts, LineStart{Offset: addr, Line: line})
				lastLine, started = line, true
			}
			addr += dOff
		}
		line += dLine
	}
	if !started || line != lastLine {
		starts = append(starts, LineStart{Offset: addr, Line: line})
	}
	return starts
}

// LineAt returns the line in effect at offset according to starts, or 0
// when offset precedes the first start.
func LineAt(starts []LineStart, offset int) int {
	line := 0
	for _, s := range starts {
		if s.Offset > offset {
			break
		}
		line = s.Line
	}
	return line
}
