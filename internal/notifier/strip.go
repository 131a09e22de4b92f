package notifier

import (
	"strings"

	"golang.org/x/net/html"
)

// StripMarkup 去除富文本中的 HTML 标签，仅保留文本内容。
// 块级标签边界折叠为单个空格，不含标签的输入原样返回。
func StripMarkup(s string) string {
	if !strings.ContainsRune(s, '<') {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt != html.TextToken {
			if b.Len() > 0 && !strings.HasSuffix(b.String(), " ") {
				b.WriteByte(' ')
			}
			continue
		}
		b.WriteString(string(z.Text()))
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
