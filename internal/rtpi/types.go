package rtpi

// Wire types for the RTPI API. All numeric fields arrive as strings.

type stopInformationResponse struct {
	ErrorCode    string       `json:"errorcode"`
	ErrorMessage string       `json:"errormessage"`
	Results      []stopResult `json:"results"`
}

type stopResult struct {
	StopID             string           `json:"stopid"`
	ShortName          string           `json:"shortname"`
	ShortNameLocalized string           `json:"shortnamelocalized"`
	FullName           string           `json:"fullname"`
	FullNameLocalized  string           `json:"fullnamelocalized"`
	Latitude           string           `json:"latitude"`
	Longitude          string           `json:"longitude"`
	Operators          []operatorResult `json:"operators"`
}

type operatorResult struct {
	Name   string   `json:"name"`
	Routes []string `json:"routes"`
}

type routeInformationResponse struct {
	ErrorCode    string            `json:"errorcode"`
	ErrorMessage string            `json:"errormessage"`
	Results      []directionResult `json:"results"`
}

type directionResult struct {
	Origin               string       `json:"origin"`
	OriginLocalized      string       `json:"originlocalized"`
	Destination          string       `json:"destination"`
	DestinationLocalized string       `json:"destinationlocalized"`
	Stops                []stopResult `json:"stops"`
}

type realtimeResponse struct {
	ErrorCode    string            `json:"errorcode"`
	ErrorMessage string            `json:"errormessage"`
	Results      []departureResult `json:"results"`
}

type departureResult struct {
	Destination          string `json:"destination"`
	DestinationLocalized string `json:"destinationlocalized"`
	Route                string `json:"route"`
	LowFloorStatus       string `json:"lowfloorstatus"`
	DepartureDateTime    string `json:"departuredatetime"`
}
