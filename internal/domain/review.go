package domain

const SentimentNeutral = "neutral"

// Review is a dealer review as served to clients: the upstream record
// normalized to a fixed shape and labelled with a sentiment.
type Review struct {
	Review       string `json:"review"`
	Name         string `json:"name"`
	Purchase     bool   `json:"purchase"`
	PurchaseDate string `json:"purchase_date"`
	CarMake      string `json:"car_make"`
	CarModel     string `json:"car_model"`
	CarYear      string `json:"car_year"`
	Sentiment    string `json:"sentiment"`
}
