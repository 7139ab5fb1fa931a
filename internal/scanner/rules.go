package scanner

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/tenji/internal/model"
	"golang.org/x/net/html"
)

// staticRule is one script-free accessibility check. The rule ids, impact
// tiers and help links mirror the axe-core rules of the same name so scans
// from the static and chromedp backends diff cleanly against each other.
type staticRule struct {
	ID          string
	Impact      model.Severity
	Description string
	Tags        []string
	Check       func(doc *goquery.Document) []model.Node
}

func helpURL(ruleID string) string {
	return "https://dequeuniversity.com/rules/axe/4.9/" + ruleID
}

// staticRules is the subset of axe checks decidable without running scripts.
// Checks that need computed style or a live accessibility tree
// (color-contrast most notably) are chromedp-backend only.
var staticRules = []staticRule{
	{
		ID:          "image-alt",
		Impact:      model.SeverityCritical,
		Description: "Images must have alternate text",
		Tags:        []string{"wcag2a", "cat.text-alternatives"},
		Check: func(doc *goquery.Document) []model.Node {
			return collect(doc, "img", func(sel *goquery.Selection) bool {
				if _, ok := sel.Attr("alt"); ok {
					return false
				}
				if role, _ := sel.Attr("role"); role == "presentation" || role == "none" {
					return false
				}
				return !hasAriaName(sel)
			}, "Fix any of the following: Element does not have an alt attribute")
		},
	},
	{
		ID:          "document-title",
		Impact:      model.SeveritySerious,
		Description: "Documents must have <title> element to aid in navigation",
		Tags:        []string{"wcag2a", "cat.text-alternatives"},
		Check: func(doc *goquery.Document) []model.Node {
			title := strings.TrimSpace(doc.Find("head title").First().Text())
			if title != "" {
				return nil
			}
			return collect(doc, "html", func(*goquery.Selection) bool { return true },
				"Fix any of the following: Document does not have a non-empty <title> element")
		},
	},
	{
		ID:          "html-has-lang",
		Impact:      model.SeveritySerious,
		Description: "<html> element must have a lang attribute",
		Tags:        []string{"wcag2a", "cat.language"},
		Check: func(doc *goquery.Document) []model.Node {
			return collect(doc, "html", func(sel *goquery.Selection) bool {
				lang, ok := sel.Attr("lang")
				return !ok || strings.TrimSpace(lang) == ""
			}, "Fix any of the following: The <html> element does not have a lang attribute")
		},
	},
	{
		ID:          "label",
		Impact:      model.SeverityCritical,
		Description: "Form elements must have labels",
		Tags:        []string{"wcag2a", "cat.forms"},
		Check: func(doc *goquery.Document) []model.Node {
			return collect(doc, "input, select, textarea", func(sel *goquery.Selection) bool {
				if t, _ := sel.Attr("type"); t == "hidden" || t == "submit" || t == "button" || t == "reset" || t == "image" {
					return false
				}
				if hasAriaName(sel) {
					return false
				}
				if _, ok := sel.Attr("title"); ok {
					return false
				}
				if id, ok := sel.Attr("id"); ok && id != "" {
					if sel.Closest("html").Find(fmt.Sprintf(`label[for=%q]`, id)).Length() > 0 {
						return false
					}
				}
				return sel.ParentsFiltered("label").Length() == 0
			}, "Fix any of the following: Form element does not have an implicit (wrapped) or explicit <label>")
		},
	},
	{
		ID:          "link-name",
		Impact:      model.SeveritySerious,
		Description: "Links must have discernible text",
		Tags:        []string{"wcag2a", "cat.name-role-value"},
		Check: func(doc *goquery.Document) []model.Node {
			return collect(doc, "a[href]", func(sel *goquery.Selection) bool {
				return !hasDiscernibleText(sel)
			}, "Fix any of the following: Element does not have text that is visible to screen readers")
		},
	},
	{
		ID:          "button-name",
		Impact:      model.SeverityCritical,
		Description: "Buttons must have discernible text",
		Tags:        []string{"wcag2a", "cat.name-role-value"},
		Check: func(doc *goquery.Document) []model.Node {
			return collect(doc, "button", func(sel *goquery.Selection) bool {
				return !hasDiscernibleText(sel)
			}, "Fix any of the following: Element does not have inner text that is visible to screen readers")
		},
	},
	{
		ID:          "frame-title",
		Impact:      model.SeveritySerious,
		Description: "Frames must have an accessible name",
		Tags:        []string{"wcag2a", "cat.text-alternatives"},
		Check: func(doc *goquery.Document) []model.Node {
			return collect(doc, "iframe, frame", func(sel *goquery.Selection) bool {
				if title, ok := sel.Attr("title"); ok && strings.TrimSpace(title) != "" {
					return false
				}
				return !hasAriaName(sel)
			}, "Fix any of the following: Element has no title attribute")
		},
	},
	{
		ID:          "duplicate-id",
		Impact:      model.SeverityMinor,
		Description: "IDs used in ARIA and labels must be unique",
		Tags:        []string{"wcag2a", "cat.parsing"},
		Check: func(doc *goquery.Document) []model.Node {
			seen := map[string]int{}
			doc.Find("[id]").Each(func(_ int, sel *goquery.Selection) {
				if id, ok := sel.Attr("id"); ok && id != "" {
					seen[id]++
				}
			})
			var nodes []model.Node
			doc.Find("[id]").Each(func(_ int, sel *goquery.Selection) {
				id, _ := sel.Attr("id")
				if seen[id] > 1 {
					nodes = append(nodes, newNode(sel,
						fmt.Sprintf("Fix any of the following: Document has multiple elements with the same id attribute: %s", id)))
					seen[id] = 0 // report each duplicated id once
				}
			})
			return nodes
		},
	},
}

// collect gathers a node for every selection matching selector where failing
// returns true.
func collect(doc *goquery.Document, selector string, failing func(*goquery.Selection) bool, summary string) []model.Node {
	var nodes []model.Node
	doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
		if failing(sel) {
			nodes = append(nodes, newNode(sel, summary))
		}
	})
	return nodes
}

func newNode(sel *goquery.Selection, summary string) model.Node {
	return model.Node{
		Target:         selectorPath(sel),
		HTML:           outerHTML(sel),
		FailureSummary: summary,
	}
}

// hasAriaName reports whether the element carries a non-empty aria-label or
// an aria-labelledby reference.
func hasAriaName(sel *goquery.Selection) bool {
	if label, ok := sel.Attr("aria-label"); ok && strings.TrimSpace(label) != "" {
		return true
	}
	if ref, ok := sel.Attr("aria-labelledby"); ok && strings.TrimSpace(ref) != "" {
		return true
	}
	return false
}

// hasDiscernibleText approximates the accessible-name computation for links
// and buttons: visible text, aria naming, a titled child image, or a title
// attribute.
func hasDiscernibleText(sel *goquery.Selection) bool {
	if strings.TrimSpace(sel.Text()) != "" {
		return true
	}
	if hasAriaName(sel) {
		return true
	}
	if title, ok := sel.Attr("title"); ok && strings.TrimSpace(title) != "" {
		return true
	}
	named := false
	sel.Find("img").Each(func(_ int, img *goquery.Selection) {
		if alt, ok := img.Attr("alt"); ok && strings.TrimSpace(alt) != "" {
			named = true
		}
	})
	return named
}

// selectorPath builds the structural path to an element, outermost fragment
// first. Fragments prefer #id, otherwise tag:nth-of-type(n); the path is
// stable across re-scans of unchanged markup but, like axe targets, not
// globally unique.
func selectorPath(sel *goquery.Selection) []string {
	var fragments []string
	for cur := sel; cur.Length() > 0; cur = cur.Parent() {
		node := cur.Get(0)
		if node.Type != html.ElementNode || node.Data == "" {
			break
		}
		tag := strings.ToLower(node.Data)

		if id, ok := cur.Attr("id"); ok && id != "" {
			fragments = append(fragments, "#"+id)
			break
		}

		fragment := tag
		if tag != "html" && tag != "body" && tag != "head" {
			nth := 1
			for prev := cur.Prev(); prev.Length() > 0; prev = prev.Prev() {
				if strings.EqualFold(prev.Get(0).Data, tag) {
					nth++
				}
			}
			if nth > 1 || cur.Siblings().FilterFunction(func(_ int, sib *goquery.Selection) bool {
				return strings.EqualFold(sib.Get(0).Data, tag)
			}).Length() > 0 {
				fragment = fmt.Sprintf("%s:nth-of-type(%d)", tag, nth)
			}
		}
		fragments = append(fragments, fragment)

		if tag == "html" {
			break
		}
	}

	// reverse: outermost first
	for i, j := 0, len(fragments)-1; i < j; i, j = i+1, j-1 {
		fragments[i], fragments[j] = fragments[j], fragments[i]
	}
	return fragments
}

func outerHTML(sel *goquery.Selection) string {
	html, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(html)
}
