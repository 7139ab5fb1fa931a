package demosite

// PageVersion is one revision of a page.
type PageVersion struct {
	HTML        string
	ContentType string
}

// PageDefinition holds all revisions of a single page.
type PageDefinition struct {
	Path        string
	Description string
	Versions    map[int]PageVersion
}

// GetAllPages returns the demo page definitions. Revision 1 carries a set of
// deliberate accessibility defects; revision 2 fixes some of them and
// introduces new ones, so a v1 baseline gated against v2 produces resolved,
// unchanged and new violations at the same time.
func GetAllPages() []PageDefinition {
	return []PageDefinition{
		getHomePage(),
		getProductsPage(),
		getContactPage(),
	}
}

func getHomePage() PageDefinition {
	return PageDefinition{
		Path:        "/",
		Description: "Home page with navigation",
		Versions: map[int]PageVersion{
			// v1: image without alt text, html element without lang.
			1: {
				HTML: `<!DOCTYPE html>
<html>
<head>
    <title>Acme Store</title>
</head>
<body>
    <img src="/static/logo.png" class="logo">
    <nav>
        <a href="/products">Products</a> |
        <a href="/contact">Contact</a>
    </nav>
    <p>Welcome to the Acme demo store.</p>
</body>
</html>`,
			},
			// v2: alt and lang fixed; a search field with no label appears.
			2: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Acme Store</title>
</head>
<body>
    <img src="/static/logo.png" class="logo" alt="Acme Store">
    <nav>
        <a href="/products">Products</a> |
        <a href="/contact">Contact</a>
    </nav>
    <form action="/search"><input type="text" name="q" placeholder="Search"></form>
    <p>Welcome to the Acme demo store.</p>
</body>
</html>`,
			},
		},
	}
}

func getProductsPage() PageDefinition {
	return PageDefinition{
		Path:        "/products",
		Description: "Product listing",
		Versions: map[int]PageVersion{
			// v1: icon-only link with no discernible text; product images
			// without alt text.
			1: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Products</title>
</head>
<body>
    <h1>Products</h1>
    <ul>
        <li><img src="/static/widget.png"> Widget <a href="/checkout"></a></li>
        <li><img src="/static/gadget.png"> Gadget <a href="/checkout"></a></li>
    </ul>
    <a href="/">Back home</a>
</body>
</html>`,
			},
			// v2: links get text; the images stay broken (unchanged defects).
			2: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Products</title>
</head>
<body>
    <h1>Products</h1>
    <ul>
        <li><img src="/static/widget.png"> Widget <a href="/checkout">Buy widget</a></li>
        <li><img src="/static/gadget.png"> Gadget <a href="/checkout">Buy gadget</a></li>
    </ul>
    <a href="/">Back home</a>
</body>
</html>`,
			},
		},
	}
}

func getContactPage() PageDefinition {
	return PageDefinition{
		Path:        "/contact",
		Description: "Contact form",
		Versions: map[int]PageVersion{
			// v1: form fields with no labels.
			1: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Contact</title>
</head>
<body>
    <h1>Contact us</h1>
    <form action="/contact" method="post">
        <input type="text" name="email">
        <textarea name="message"></textarea>
        <button type="submit">Send</button>
    </form>
    <a href="/">Back home</a>
</body>
</html>`,
			},
			// v2: labels added; the submit button loses its text.
			2: {
				HTML: `<!DOCTYPE html>
<html lang="en">
<head>
    <title>Contact</title>
</head>
<body>
    <h1>Contact us</h1>
    <form action="/contact" method="post">
        <label for="email">Email</label>
        <input type="text" name="email" id="email">
        <label for="message">Message</label>
        <textarea name="message" id="message"></textarea>
        <button type="submit"></button>
    </form>
    <a href="/">Back home</a>
</body>
</html>`,
			},
		},
	}
}
