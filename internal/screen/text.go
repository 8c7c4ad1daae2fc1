package screen

// lineFeed is the only control character the text writers understand.
const lineFeed = '\n'

// PrintTextAt places text at column x, row y. See PrintText.
func (b *Buffer) PrintTextAt(text string, x, y, color int) {
	b.PrintText(text, b.Offset(x, y), color)
}

// PrintText places text starting at offset, every character in color.
// A line feed writes nothing and moves to the start of the next line, where
// "start" is the offset the current line began at, not column 0. No escape
// processing is done.
func (b *Buffer) PrintText(text string, offset, color int) {
	if text == "" {
		return
	}

	lineStart := offset
	for _, ch := range text {
		if ch == lineFeed {
			offset = lineStart + b.width
			lineStart = offset
			continue
		}
		b.put(ch, color, offset)
		offset++
	}
}

// put writes one cell of text output.
func (b *Buffer) put(ch rune, color, offset int) {
	b.PutChar(ch, offset)
	b.PutColor(color, offset)
}
