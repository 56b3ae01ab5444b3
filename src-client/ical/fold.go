package ical

// fold75Writer turns writer into a content line writer: every line ends
// with CRLF and lines longer than 75 octets continue on the next line after
// a single space. Example (assuming 6 octets per line):
//
//	Hello,
//	 world!
func fold75Writer(writer func(string)) func(string) {
	return func(line string) {
		for len(line) > 75 {
			cut := 75
			// never split a multi-byte rune
			for cut > 0 && line[cut]&0xC0 == 0x80 {
				cut--
			}
			writer(line[:cut] + "\r\n")
			line = " " + line[cut:]
		}
		writer(line + "\r\n")
	}
}
