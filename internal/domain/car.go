package domain

type CarMake struct {
	ID          int64      `json:"id,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Country     string     `json:"country"`
	Models      []CarModel `json:"models,omitempty"` // only used when seeding
}

type CarModel struct {
	ID       int64  `json:"id,omitempty"`
	MakeID   int64  `json:"make_id,omitempty"`
	MakeName string `json:"make_name,omitempty"` // joined from car_makes on reads
	Name     string `json:"name"`
	Type     string `json:"type"` // Sedan|SUV|Wagon|...
	Year     int    `json:"year"`
	DealerID int64  `json:"dealer_id"`
}
