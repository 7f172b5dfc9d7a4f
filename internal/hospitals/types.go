package hospitals

// Hospital is one nearby-search result
type Hospital struct {
	PlaceID    string   `json:"placeId"`
	Name       string   `json:"name"`
	Address    string   `json:"address"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	Rating     float64  `json:"rating,omitempty"`
	OpenNow    *bool    `json:"openNow,omitempty"`
	Phone      string   `json:"phone,omitempty"`
	PhotoURLs  []string `json:"photoUrls,omitempty"`
	DistanceKM float64  `json:"distanceKm"`
}

// Coordinates is a geographic point
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// searchNearby request/response wire shapes (Places API, New)

type searchRequest struct {
	IncludedTypes       []string            `json:"includedTypes"`
	MaxResultCount      int                 `json:"maxResultCount"`
	LocationRestriction locationRestriction `json:"locationRestriction"`
}

type locationRestriction struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchResponse struct {
	Places []place `json:"places"`
}

type place struct {
	ID               string    `json:"id"`
	DisplayName      localized `json:"displayName"`
	FormattedAddress string    `json:"formattedAddress"`
	Location         latLng    `json:"location"`
	Rating           float64   `json:"rating"`
	Phone            string    `json:"internationalPhoneNumber"`
	Photos           []photo   `json:"photos"`
	OpeningHours     *struct {
		OpenNow bool `json:"openNow"`
	} `json:"currentOpeningHours"`
}

type localized struct {
	Text string `json:"text"`
}

type photo struct {
	Name string `json:"name"`
}

// geocode wire shapes

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}
