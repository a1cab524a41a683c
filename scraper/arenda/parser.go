package arenda

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"arenda-scraper/models"
)

var (
	spaceRe  = regexp.MustCompile(`\s+`)
	numberRe = regexp.MustCompile(`[\d\s]+`)
	floorRe  = regexp.MustCompile(`(\d+)\s*/\s*(\d+)`)
)

// cleanText collapses whitespace runs and trims the result.
func cleanText(s string) string {
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// extractNumber pulls the first digit group (spaces allowed, the site
// writes prices like "1 200") out of a text fragment.
func extractNumber(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(numberRe.FindString(s))
}

// IndexEntry is one (listing id, href) pair found on an index page. The
// href may be relative; the page scanner resolves it against the base URL.
type IndexEntry struct {
	ID   string
	Href string
}

// ExtractIndex pulls the listing entries out of an index page. A page
// with no entries yields an empty slice, not an error.
func ExtractIndex(body []byte) ([]IndexEntry, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("could not parse index page: %w", err)
	}

	var entries []IndexEntry
	doc.Find("li.new_elan_box").Each(func(_ int, item *goquery.Selection) {
		id := strings.TrimPrefix(item.AttrOr("id", ""), "elan_")
		href, ok := item.Find("a[href]").First().Attr("href")
		if ok && id != "" {
			entries = append(entries, IndexEntry{ID: id, Href: href})
		}
	})

	return entries, nil
}

// MaxPage scans the pagination block for numeric page links and returns
// the largest one. Best-effort: with no pagination (or unparseable
// markup) it reports 1 and the coordinator tolerates the undercount.
func MaxPage(body []byte) int {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 1
	}

	max := 0
	doc.Find("ul.pagination a.page-numbers").Each(func(_ int, link *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(link.Text()))
		if err == nil && n > max {
			max = n
		}
	})

	if max == 0 {
		return 1
	}
	return max
}

// ParseListing extracts a full Listing from a detail page. Fields absent
// from the page stay empty. An error means the document itself could not
// be parsed; the caller records the job as failed.
func ParseListing(body []byte, url string) (models.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return models.Listing{}, fmt.Errorf("could not parse detail page: %w", err)
	}

	listing := models.Listing{
		URL:       url,
		ScrapedAt: time.Now().Format(time.RFC3339),
	}

	// The canonical listing id is the last dash-separated segment of the
	// detail URL.
	if i := strings.LastIndex(url, "-"); i >= 0 {
		listing.ListingID = url[i+1:]
	}

	listing.PropertyType = cleanText(doc.Find("h2.elan_in_title_link").First().Text())
	listing.Title = cleanText(doc.Find("p.elan_elan_nov").First().Text())

	if price := cleanText(doc.Find("span.elan_price_new").First().Text()); price != "" {
		listing.Price = price
		listing.PriceAZN = extractNumber(price)
	}

	listing.Location = cleanText(doc.Find("p.elan_unvan").First().Text())
	listing.Address = cleanText(doc.Find("span.elan_unvan_txt").First().Text())

	// Rooms, area and floor share one property list and are told apart
	// by their unit words.
	doc.Find("ul.elan_property_list li").Each(func(_ int, prop *goquery.Selection) {
		text := cleanText(prop.Text())
		switch {
		case strings.Contains(text, "otaq"):
			listing.Rooms = extractNumber(text)
		case strings.Contains(text, "m2") || strings.Contains(text, "m²"):
			listing.Area = extractNumber(text)
		case strings.Contains(text, "mərtəbə"):
			if m := floorRe.FindStringSubmatch(text); m != nil {
				listing.Floor = m[1]
				listing.TotalFloors = m[2]
			}
		}
	})

	listing.Description = cleanText(doc.Find("div.elan_info_txt p").First().Text())

	var features []string
	doc.Find("ul.property_lists li").Each(func(_ int, feature *goquery.Selection) {
		if text := cleanText(feature.Text()); text != "" {
			features = append(features, text)
		}
	})
	listing.Features = strings.Join(features, ", ")

	agentInfo := doc.Find("div.new_elan_user_info").First()
	listing.AgentName = cleanText(agentInfo.Find("p").First().Text())
	listing.Phone = cleanText(agentInfo.Find("a.elan_in_tel").First().Text())

	doc.Find("div.elan_date_box p").Each(func(_ int, p *goquery.Selection) {
		text := cleanText(p.Text())
		switch {
		case strings.Contains(text, "Elanın tarixi:"):
			listing.DatePosted = strings.TrimSpace(strings.Replace(text, "Elanın tarixi:", "", 1))
		case strings.Contains(text, "Elanın kodu:"):
			listing.ListingCode = strings.TrimSpace(strings.Replace(text, "Elanın kodu:", "", 1))
		case strings.Contains(text, "Baxış sayı:"):
			listing.ViewCount = strings.TrimSpace(strings.Replace(text, "Baxış sayı:", "", 1))
		}
	})

	listing.HasDocument = yesNo(doc.Find("button.kupca_ico").Length() > 0)
	listing.IsCreditAvailable = yesNo(doc.Find("button.kreditle_ico").Length() > 0)

	listing.Latitude = doc.Find(`input[name="lat"]`).First().AttrOr("value", "")
	listing.Longitude = doc.Find(`input[name="lon"]`).First().AttrOr("value", "")

	return listing, nil
}

func yesNo(v bool) string {
	if v {
		return "Bəli"
	}
	return "Xeyr"
}
