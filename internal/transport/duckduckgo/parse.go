package duckduckgo

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

const redirectPrefix = "//duckduckgo.com/l/?uddg="

// rawResult is one scraped entry before scores are attached.
type rawResult struct {
	title   string
	url     string
	snippet string
}

// parseResults extracts up to max organic results from the HTML results page.
// Each result lives in a div whose class carries both "result" and
// "results_links"; ads and spelling corrections use other classes.
func parseResults(page string, max int) ([]rawResult, error) {
	doc, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, err
	}

	var results []rawResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) >= max {
			return
		}
		if n.Type == html.ElementNode && n.Data == "div" {
			class := attrValue(n, "class")
			if strings.Contains(class, "result") && strings.Contains(class, "results_links") {
				if r, ok := extractResult(n); ok {
					results = append(results, r)
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	return results, nil
}

// extractResult pulls title, link and snippet out of one result div.
func extractResult(n *html.Node) (rawResult, bool) {
	var r rawResult

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attrValue(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				r.title = textContent(n)
				r.url = cleanRedirect(attrValue(n, "href"))
			case strings.Contains(class, "result__snippet"):
				r.snippet = textContent(n)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)

	return r, r.title != "" && r.url != ""
}

// cleanRedirect unwraps the uddg redirect DuckDuckGo puts on result links.
func cleanRedirect(href string) string {
	if !strings.HasPrefix(href, redirectPrefix) {
		return href
	}
	target, err := url.QueryUnescape(strings.TrimPrefix(href, redirectPrefix))
	if err != nil {
		return href
	}
	if i := strings.Index(target, "&"); i >= 0 {
		target = target[:i]
	}
	return target
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// textContent joins the text nodes under n.
func textContent(n *html.Node) string {
	var parts []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)

	return strings.Join(parts, " ")
}
