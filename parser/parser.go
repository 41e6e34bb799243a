package parser

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/aluiziolira/go-scrape-shop/models"
)

// ErrShopContentMissing means the page does not have the catalog layout we know how to read.
var ErrShopContentMissing = errors.New("parser: shop content container not found")

const (
	shopContentSelector = "div.mf-shop-content"
	productSelector     = "li.product"
)

// Options tune price normalisation.
type Options struct {
	// CurrencySymbols are stripped from the price text before parsing.
	CurrencySymbols []string
}

// DefaultOptions matches the rupee-priced demo target.
func DefaultOptions() Options {
	return Options{CurrencySymbols: []string{"₹"}}
}

// ExtractProducts parses one catalog page. Field-level problems never fail the page:
// they come back as warnings, one per problem. Only a page without the shop content
// container is an error.
func ExtractProducts(body string, opts Options) ([]models.Product, []string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("parse html: %w", err)
	}

	shop := doc.Find(shopContentSelector).First()
	if shop.Length() == 0 {
		return nil, nil, ErrShopContentMissing
	}

	var (
		products []models.Product
		warnings []string
	)
	shop.Find(productSelector).Each(func(_ int, item *goquery.Selection) {
		// The heading text is truncated for small screens; the image title is not.
		img := item.Find("img").First()
		title := strings.TrimSpace(img.AttrOr("title", ""))
		if title == "" {
			warnings = append(warnings, "Product title not found, skipping item")
			return
		}

		price, warning := extractPrice(item, opts)
		if warning != "" {
			warnings = append(warnings, warning)
		}

		products = append(products, models.Product{
			Title:    title,
			Price:    price,
			ImageURL: imageURL(img),
		})
	})

	return products, warnings, nil
}

func extractPrice(item *goquery.Selection, opts Options) (*float64, string) {
	priceSpan := item.Find("span.price").First()
	if priceSpan.Length() == 0 {
		return nil, "Price not found or invalid: <missing price>"
	}

	amount := priceSpan.Find("ins bdi").First()
	if amount.Length() == 0 {
		amount = priceSpan.Find("bdi").First()
	}
	if amount.Length() == 0 {
		raw := strings.TrimSpace(priceSpan.Text())
		return nil, fmt.Sprintf("Price not found or invalid: %q", raw)
	}

	raw := strings.TrimSpace(amount.Text())
	value, err := ParsePrice(raw, opts.CurrencySymbols...)
	if err != nil {
		return nil, fmt.Sprintf("Could not convert price to number: %q", raw)
	}
	return &value, ""
}

// ParsePrice strips currency symbols, thousands separators, and spaces, then parses
// the remainder as a finite decimal.
func ParsePrice(raw string, symbols ...string) (float64, error) {
	cleaned := raw
	for _, symbol := range symbols {
		if symbol != "" {
			cleaned = strings.ReplaceAll(cleaned, symbol, "")
		}
	}
	cleaned = strings.NewReplacer(",", "", " ", "", "\u00a0", "").Replace(cleaned)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, fmt.Errorf("empty price text %q", raw)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", raw, err)
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("price %q is not a finite number", raw)
	}
	return value, nil
}

// imageURL prefers the lazy-load attribute over the placeholder src.
func imageURL(img *goquery.Selection) string {
	if lazy := strings.TrimSpace(img.AttrOr("data-lazy-src", "")); lazy != "" {
		return lazy
	}
	return strings.TrimSpace(img.AttrOr("src", ""))
}

// ImageFilename returns the last path segment of an image URL.
func ImageFilename(rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return "", fmt.Errorf("image url is empty")
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	name := path.Base(parsed.Path)
	if strings.HasSuffix(parsed.Path, "/") || name == "." || name == "/" {
		return "", fmt.Errorf("image url %q has no file name", rawURL)
	}
	return name, nil
}

// ResolveURL makes ref absolute against base. Empty refs stay empty.
func ResolveURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}
