package meteo

// DefaultLocations returns the Bangkok sampling points used for the citywide
// rainfall average: stations along each tracked line plus the major
// interchange hubs. Fetches across points are independent; one failing point
// only shrinks the sample.
func DefaultLocations() []Location {
	return []Location{
		// BTS Silom line
		{Name: "BTS Siam", Lat: 13.7459, Lon: 100.5340},
		{Name: "BTS Chong Nonsi", Lat: 13.7236, Lon: 100.5310},
		{Name: "BTS Saphan Taksin", Lat: 13.7197, Lon: 100.5089},
		{Name: "BTS Bang Wa", Lat: 13.7250, Lon: 100.4033},

		// BTS Sukhumvit line
		{Name: "BTS Phrom Phong", Lat: 13.7308, Lon: 100.5697},
		{Name: "BTS On Nut", Lat: 13.7056, Lon: 100.6014},
		{Name: "BTS Samrong", Lat: 13.6464, Lon: 100.6081},
		{Name: "BTS Mo Chit", Lat: 13.8028, Lon: 100.5544},

		// MRT Blue line
		{Name: "MRT Hua Lamphong", Lat: 13.7375, Lon: 100.5169},
		{Name: "MRT Sukhumvit", Lat: 13.7381, Lon: 100.5603},
		{Name: "MRT Thailand Cultural Centre", Lat: 13.7692, Lon: 100.5481},
		{Name: "MRT Bang Sue", Lat: 13.8200, Lon: 100.5344},

		// MRT Purple line
		{Name: "MRT Khlong Bang Phai", Lat: 13.8333, Lon: 100.5206},
		{Name: "MRT Talad Bang Yai", Lat: 13.8519, Lon: 100.5367},

		// Airport Rail Link
		{Name: "ARL Phaya Thai", Lat: 13.7775, Lon: 100.5344},
		{Name: "ARL Makkasan", Lat: 13.7450, Lon: 100.5631},
		{Name: "ARL Suvarnabhumi", Lat: 13.6900, Lon: 100.7500},

		// Interchange hubs
		{Name: "Victory Monument", Lat: 13.7650, Lon: 100.5375},
		{Name: "Central World", Lat: 13.7467, Lon: 100.5400},
		{Name: "ICONSIAM", Lat: 13.7267, Lon: 100.5089},
	}
}
