package services

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"arenda-scraper/models"
)

type Report struct {
	TotalListings      int
	WithDocument       int
	CreditAvailable    int
	AveragePrice       float64
	MinPrice           float64
	MaxPrice           float64
	MostExpensive      models.Listing
	ListingsByLocation map[string]int
}

// GenerateReport cleans the run's harvested rows and computes the market
// overview printed after a run.
func GenerateReport(listings []models.Listing) Report {
	cleaned := CleanListings(listings)

	report := Report{
		TotalListings:      len(cleaned),
		ListingsByLocation: make(map[string]int),
	}

	if len(cleaned) == 0 {
		return report
	}

	var (
		priceSum   float64
		priceCount int
		maxPrice   = -1.0
		minPrice   = math.MaxFloat64
	)

	for _, l := range cleaned {
		if l.HasDocument == "Bəli" {
			report.WithDocument++
		}
		if l.IsCreditAvailable == "Bəli" {
			report.CreditAvailable++
		}

		report.ListingsByLocation[normalizeLocation(l.Location)]++

		if price := parsePriceAZN(l.PriceAZN); price > 0 {
			priceSum += price
			priceCount++

			if price > maxPrice {
				maxPrice = price
				report.MostExpensive = l
			}
			if price < minPrice {
				minPrice = price
			}
		}
	}

	if priceCount > 0 {
		report.AveragePrice = priceSum / float64(priceCount)
		report.MinPrice = minPrice
		report.MaxPrice = maxPrice
	}

	return report
}

func PrintReport(report Report) {
	fmt.Println()
	fmt.Println("┌──────────────────────────────────────────────────────────────┐")
	fmt.Println("│                   Rental Market Overview                     │")
	fmt.Println("├───────────────────────────────┬──────────────────────────────┤")
	fmt.Printf("│ %-29s │ %-28d │\n", "Listings This Run", report.TotalListings)
	fmt.Printf("│ %-29s │ %-28d │\n", "With Ownership Document", report.WithDocument)
	fmt.Printf("│ %-29s │ %-28d │\n", "Credit Available", report.CreditAvailable)
	fmt.Printf("│ %-29s │ %-28.0f │\n", "Average Price (AZN)", report.AveragePrice)
	fmt.Printf("│ %-29s │ %-28.0f │\n", "Minimum Price (AZN)", report.MinPrice)
	fmt.Printf("│ %-29s │ %-28.0f │\n", "Maximum Price (AZN)", report.MaxPrice)
	fmt.Println("└───────────────────────────────┴──────────────────────────────┘")

	if report.MostExpensive.ListingID != "" {
		fmt.Println()
		fmt.Println("┌──────────────────────────────────────────────────────────────┐")
		fmt.Println("│                    Most Expensive Listing                    │")
		fmt.Println("├───────────────────────────────┬──────────────────────────────┤")
		fmt.Printf("│ %-29s │ %-28s │\n", "Price", report.MostExpensive.Price)
		fmt.Printf("│ %-29s │ %-28s │\n", "Location", truncateText(normalizeLocation(report.MostExpensive.Location), 28))
		fmt.Println("└───────────────────────────────┴──────────────────────────────┘")
		fmt.Printf("Title: %s\n", report.MostExpensive.Title)
	}

	fmt.Println()
	fmt.Println("┌──────────────────────────────────────────────┬───────────────┐")
	fmt.Println("│ Listings per Location                        │ Count         │")
	fmt.Println("├──────────────────────────────────────────────┼───────────────┤")
	for _, loc := range sortedLocations(report.ListingsByLocation) {
		fmt.Printf("│ %-44s │ %-13d │\n", truncateText(loc, 44), report.ListingsByLocation[loc])
	}
	fmt.Println("└──────────────────────────────────────────────┴───────────────┘")
}

// CleanListings trims fields and drops rows with no id or URL, deduping
// by listing id.
func CleanListings(listings []models.Listing) []models.Listing {
	seen := make(map[string]bool)
	cleaned := make([]models.Listing, 0, len(listings))

	for _, l := range listings {
		l.ListingID = strings.TrimSpace(l.ListingID)
		l.URL = strings.TrimSpace(l.URL)
		l.Title = strings.TrimSpace(l.Title)
		l.Location = strings.TrimSpace(l.Location)

		if l.ListingID == "" || l.URL == "" {
			continue
		}

		if seen[l.ListingID] {
			continue
		}

		seen[l.ListingID] = true
		cleaned = append(cleaned, l)
	}

	return cleaned
}

// parsePriceAZN reads the digits-only price field; the site writes
// thousands with spaces ("1 200").
func parsePriceAZN(raw string) float64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func normalizeLocation(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return "Unknown"
	}
	return location
}

func sortedLocations(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
