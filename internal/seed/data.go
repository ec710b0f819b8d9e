package seed

import "github.com/shopspring/decimal"

type storeSeed struct {
	Name string
	Slug string
}

type productSeed struct {
	SKU      string
	Name     string
	Category string
	Price    string
}

var demoStores = []storeSeed{
	{Name: "New York Times Square", Slug: "nyc-times-square"},
	{Name: "San Francisco Union Square", Slug: "sf-union-square"},
	{Name: "Toronto Eaton Centre", Slug: "toronto-eaton"},
	{Name: "London Oxford Street", Slug: "london-oxford"},
	{Name: "Berlin Alexanderplatz", Slug: "berlin-alex"},
	{Name: "Tokyo Shibuya", Slug: "tokyo-shibuya"},
	{Name: "Singapore Orchard Road", Slug: "sg-orchard"},
	{Name: "Cape Town V&A Waterfront", Slug: "capetown-va"},
	{Name: "Sydney Pitt Street", Slug: "sydney-pitt"},
}

var demoProducts = []productSeed{
	{SKU: "ELC-001", Name: `MacBook Pro 16" M3 Max`, Category: "Electronics", Price: "3499.99"},
	{SKU: "ELC-002", Name: `iPad Pro 13" M4`, Category: "Electronics", Price: "1299.99"},
	{SKU: "ELC-003", Name: "Sony WH-1000XM5", Category: "Electronics", Price: "349.99"},
	{SKU: "ELC-004", Name: "Logitech MX Master 3S", Category: "Electronics", Price: "99.99"},
	{SKU: "ELC-005", Name: "Anker USB-C Hub 10-in-1", Category: "Electronics", Price: "79.99"},
	{SKU: "FRN-001", Name: "Herman Miller Aeron Chair", Category: "Furniture", Price: "1395.99"},
	{SKU: "FRN-002", Name: "Uplift V2 Standing Desk", Category: "Furniture", Price: "799.99"},
	{SKU: "FRN-003", Name: "Rain Design mStand", Category: "Furniture", Price: "49.99"},
	{SKU: "OFS-001", Name: "Moleskine Classic XL", Category: "Office Supplies", Price: "24.99"},
	{SKU: "OFS-002", Name: "LAMY 2000 Fountain Pen", Category: "Office Supplies", Price: "199.99"},
	{SKU: "OFS-003", Name: "Brother P-Touch Label Maker", Category: "Office Supplies", Price: "59.99"},
	{SKU: "APL-001", Name: "Breville Barista Express", Category: "Appliances", Price: "699.99"},
	{SKU: "APL-002", Name: "Fellow Stagg EKG Kettle", Category: "Appliances", Price: "169.99"},
	{SKU: "APL-003", Name: "Ember Mug 14oz", Category: "Appliances", Price: "149.99"},
	{SKU: "ACC-001", Name: "Peak Design Everyday V2 20L", Category: "Accessories", Price: "259.99"},
	{SKU: "ACC-002", Name: "Yeti Rambler 26oz", Category: "Accessories", Price: "35.99"},
}

func (p productSeed) price() decimal.Decimal {
	return decimal.RequireFromString(p.Price)
}
