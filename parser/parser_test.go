package parser

import (
	"errors"
	"strings"
	"testing"
)

func shopPage(items ...string) string {
	return `<html><body><div class="mf-shop-content"><ul class="products">` +
		strings.Join(items, "") +
		`</ul></div></body></html>`
}

func TestExtractProducts(t *testing.T) {
	page := shopPage(
		`<li class="product"><div class="thumb"><img title="Widget A" data-lazy-src="https://shop.test/img/a.jpg" src="data:placeholder"></div>
		<span class="price"><span><bdi>₹1,299.00</bdi></span></span></li>`,
		`<li class="product"><img title="Widget B" src="/img/b.png">
		<span class="price"><del><bdi>₹500.00</bdi></del><ins><bdi>₹450.00</bdi></ins></span></li>`,
	)

	products, warnings, err := ExtractProducts(page, DefaultOptions())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want 2", len(products))
	}

	a := products[0]
	if a.Title != "Widget A" || a.Price == nil || *a.Price != 1299 || a.ImageURL != "https://shop.test/img/a.jpg" {
		t.Fatalf("unexpected first product: %+v", a)
	}
	b := products[1]
	if b.Price == nil || *b.Price != 450 {
		t.Fatalf("expected sale price 450, got %v", b.Price)
	}
	if b.ImageURL != "/img/b.png" {
		t.Fatalf("image url = %q, want src fallback", b.ImageURL)
	}
}

func TestExtractProductsPriceWarnings(t *testing.T) {
	tests := []struct {
		name        string
		priceMarkup string
		wantWarning string
	}{
		{
			name:        "garbage price",
			priceMarkup: `<span class="price"><bdi>garbage</bdi></span>`,
			wantWarning: "garbage",
		},
		{
			name:        "missing price span",
			priceMarkup: ``,
			wantWarning: "Price not found or invalid",
		},
		{
			name:        "price span without amount",
			priceMarkup: `<span class="price">Call us</span>`,
			wantWarning: "Call us",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := shopPage(`<li class="product"><img title="Widget B" src="b.jpg">` + tt.priceMarkup + `</li>`)
			products, warnings, err := ExtractProducts(page, DefaultOptions())
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if len(products) != 1 {
				t.Fatalf("products = %d, want 1", len(products))
			}
			if products[0].Price != nil {
				t.Fatalf("price should be absent, got %v", *products[0].Price)
			}
			if len(warnings) != 1 {
				t.Fatalf("warnings = %v, want exactly one", warnings)
			}
			if !strings.Contains(warnings[0], tt.wantWarning) {
				t.Fatalf("warning %q does not mention %q", warnings[0], tt.wantWarning)
			}
		})
	}
}

func TestExtractProductsSkipsUntitled(t *testing.T) {
	page := shopPage(
		`<li class="product"><img src="x.jpg"><span class="price"><bdi>10</bdi></span></li>`,
		`<li class="product"><img title="Kept" src="k.jpg"><span class="price"><bdi>10</bdi></span></li>`,
	)
	products, warnings, err := ExtractProducts(page, DefaultOptions())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(products) != 1 || products[0].Title != "Kept" {
		t.Fatalf("unexpected products: %+v", products)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "title") {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
}

func TestExtractProductsEmptyAndMissingContainer(t *testing.T) {
	products, warnings, err := ExtractProducts(shopPage(), DefaultOptions())
	if err != nil {
		t.Fatalf("empty page: %v", err)
	}
	if len(products) != 0 || len(warnings) != 0 {
		t.Fatalf("expected nothing, got %v / %v", products, warnings)
	}

	_, _, err = ExtractProducts(`<html><body><p>maintenance</p></body></html>`, DefaultOptions())
	if !errors.Is(err, ErrShopContentMissing) {
		t.Fatalf("expected ErrShopContentMissing, got %v", err)
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{name: "rupee with separator", input: "₹1,299.00", want: 1299},
		{name: "plain", input: "25.99", want: 25.99},
		{name: "spaces", input: "  ₹ 40  ", want: 40},
		{name: "nbsp", input: "₹\u00a075.50", want: 75.5},
		{name: "empty", input: "", wantErr: true},
		{name: "symbol only", input: "₹", wantErr: true},
		{name: "garbage", input: "garbage", wantErr: true},
		{name: "infinity", input: "Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.input, "₹")
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePrice(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("ParsePrice(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestImageFilename(t *testing.T) {
	tests := []struct {
		input   string
		want    string
		wantErr bool
	}{
		{input: "https://shop.test/wp-content/uploads/a.jpg", want: "a.jpg"},
		{input: "https://shop.test/img/b.png?ver=2", want: "b.png"},
		{input: "https://shop.test/img/", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ImageFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ImageFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Fatalf("ImageFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://shop.test/shop/page/2/"
	if got := ResolveURL(base, "/img/a.jpg"); got != "https://shop.test/img/a.jpg" {
		t.Fatalf("absolute path = %q", got)
	}
	if got := ResolveURL(base, "https://cdn.test/b.jpg"); got != "https://cdn.test/b.jpg" {
		t.Fatalf("absolute url = %q", got)
	}
	if got := ResolveURL(base, ""); got != "" {
		t.Fatalf("empty ref = %q", got)
	}
}
