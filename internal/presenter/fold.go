package presenter

import "strings"

const (
	// foldPadding zero-width spaces push everything after the first line
	// behind KakaoTalk's "see more" cut.
	foldPadding    = 500
	zeroWidthSpace = "\u200b"

	// foldAfter is the line count, header included, above which a listing folds.
	foldAfter = 10
)

// listing joins header and rows one per line. Long listings keep only the
// header and hint visible and fold the rows.
func listing(header, hint string, rows []string) string {
	var sb strings.Builder
	if len(rows)+1 <= foldAfter {
		sb.WriteString(header)
		for _, r := range rows {
			sb.WriteByte('\n')
			sb.WriteString(r)
		}
		return sb.String()
	}

	head := strings.TrimSpace(header) + hint
	sb.Grow(len(head) + foldPadding*len(zeroWidthSpace) + len(rows)*32)
	sb.WriteString(head)
	sb.WriteString(strings.Repeat(zeroWidthSpace, foldPadding))
	for _, r := range rows {
		sb.WriteByte('\n')
		sb.WriteString(r)
	}
	return sb.String()
}
