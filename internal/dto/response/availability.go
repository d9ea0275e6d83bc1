package response

type SectorAvailability struct {
	SectorID  int64  `json:"sectorId"`
	Name      string `json:"name"`
	Capacity  int    `json:"capacity"`
	Sold      int    `json:"sold"`
	Available int    `json:"available"`
}
