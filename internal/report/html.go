package report

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

const htmlStyle = `body{font-family:Georgia,serif;max-width:760px;margin:2rem auto;padding:0 1rem;color:#1c1917;line-height:1.55;} ` +
	`h1{border-bottom:2px solid #92400e;padding-bottom:0.3rem;} h2{color:#78350f;margin-top:1.6rem;} ` +
	`li{margin:0.2rem 0;} strong{color:#1c1917;} ` +
	`@media print{ @page{size:auto;margin:12mm;} body{margin:0;} }`

// RenderHTML converts the markdown summary into a standalone HTML document.
func RenderHTML(markdown string) (string, error) {
	var content strings.Builder
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	if err := md.Convert([]byte(markdown), &content); err != nil {
		return "", fmt.Errorf("markdown convert: %w", err)
	}
	return "<!doctype html><html><head><meta charset='utf-8'><title>Trip Preference Summary</title>" +
		"<style>" + htmlStyle + "</style></head><body>" +
		content.String() +
		"</body></html>", nil
}
