package store

// MarketTotal is a raw row of an external market source. Total is kept as text so that
// the decimal value survives the driver untouched.
type MarketTotal struct {
	Year  int
	Total string
}
