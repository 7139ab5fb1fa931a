package diff

import "testing"

func TestNormalizeMarkup(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a, b string
		same bool
	}{
		{"attribute order", `<a href="/x" id="l">go</a>`, `<a id="l" href="/x">go</a>`, true},
		{"whitespace", "<p>  hello \n world </p>", "<p>hello world</p>", true},
		{"case of tag and attr names", `<DIV Class="c">x</DIV>`, `<div class="c">x</div>`, true},
		{"attribute value differs", `<a href="/x">go</a>`, `<a href="/y">go</a>`, false},
		{"text differs", "<p>hello</p>", "<p>goodbye</p>", false},
		{"tag differs", "<b>x</b>", "<i>x</i>", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			na, nb := normalizeMarkup(tc.a), normalizeMarkup(tc.b)
			if (na == nb) != tc.same {
				t.Errorf("normalizeMarkup(%q)=%q, normalizeMarkup(%q)=%q, want same=%t",
					tc.a, na, tc.b, nb, tc.same)
			}
		})
	}
}

func TestNormalizeMarkup_NonHTMLFallsBack(t *testing.T) {
	t.Parallel()

	// Not parseable as an element; normalization still yields something
	// deterministic and whitespace-insensitive.
	if normalizeMarkup("plain  text") != normalizeMarkup("plain text") {
		t.Error("fallback normalization is not whitespace-insensitive")
	}
}
