package bpy331

import "strings"

// Serialize renders records in the batch file layout: the header verbatim,
// then one quoted field per line per record in canonical order.
func Serialize(header string, records []Record) []byte {
	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteByte('\n')

	for _, rec := range records {
		fields := rec.fields()
		for _, f := range fields {
			sb.WriteByte('"')
			sb.WriteString(f)
			sb.WriteByte('"')
			sb.WriteByte('\n')
		}
	}
	return []byte(sb.String())
}
