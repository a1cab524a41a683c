package models

// Listing is one harvested real-estate ad. Every field is a string:
// a field missing on the source page stays empty, which is a valid
// terminal value, not an error.
type Listing struct {
	ListingID         string
	URL               string
	Title             string
	PropertyType      string
	Price             string
	PriceAZN          string
	Location          string
	Address           string
	Rooms             string
	Area              string
	Floor             string
	TotalFloors       string
	Description       string
	Features          string
	AgentName         string
	Phone             string
	DatePosted        string
	ListingCode       string
	ViewCount         string
	HasDocument       string
	IsCreditAvailable string
	Latitude          string
	Longitude         string
	ScrapedAt         string
}

// ListingColumns is the canonical CSV column order. The sink writes the
// header and every row in exactly this order; no runtime reflection.
var ListingColumns = []string{
	"listing_id",
	"url",
	"title",
	"property_type",
	"price",
	"price_azn",
	"location",
	"address",
	"rooms",
	"area",
	"floor",
	"total_floors",
	"description",
	"features",
	"agent_name",
	"phone",
	"date_posted",
	"listing_code",
	"view_count",
	"has_document",
	"is_credit_available",
	"latitude",
	"longitude",
	"scraped_at",
}

// Row returns the listing's fields in ListingColumns order.
func (l Listing) Row() []string {
	return []string{
		l.ListingID,
		l.URL,
		l.Title,
		l.PropertyType,
		l.Price,
		l.PriceAZN,
		l.Location,
		l.Address,
		l.Rooms,
		l.Area,
		l.Floor,
		l.TotalFloors,
		l.Description,
		l.Features,
		l.AgentName,
		l.Phone,
		l.DatePosted,
		l.ListingCode,
		l.ViewCount,
		l.HasDocument,
		l.IsCreditAvailable,
		l.Latitude,
		l.Longitude,
		l.ScrapedAt,
	}
}

// HarvestJob is one (listing id, detail URL) pair found on an index page.
// A job is consumed exactly once; its effects live in the progress state
// and the CSV sink, never the job itself.
type HarvestJob struct {
	ListingID string
	URL       string
}
